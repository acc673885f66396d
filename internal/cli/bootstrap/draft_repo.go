package bootstrap

import (
	"fmt"

	"StroyTrack/internal/cli/repo"
	reposqlite "StroyTrack/internal/cli/repo/sqlite"
	"StroyTrack/internal/config"
)

// OpenDraftRepo открывает репозиторий черновиков в каталоге cfg.ClientDBPath,
// выполняет миграции и возвращает (repo, cleanup, error).
// cleanup необходимо вызвать после окончания работы с репозиторием, чтобы закрыть соединение с БД.
func OpenDraftRepo(cfg *config.Config) (repo.DraftRepository, func() error, error) {
	if cfg == nil || cfg.ClientDBPath == "" {
		return nil, nil, fmt.Errorf("не задан путь к локальной БД (CLIENT_DB_PATH / -client-db)")
	}
	r, _, err := reposqlite.Open(cfg.ClientDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open client db: %w", err)
	}
	if err := r.Migrate(); err != nil {
		_ = r.Close()
		return nil, nil, fmt.Errorf("migrate client db: %w", err)
	}
	cleanup := func() error { return r.Close() }
	return r, cleanup, nil
}
