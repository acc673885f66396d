package repo

import (
	"context"
	"errors"

	"StroyTrack/internal/cli/model"
)

// ErrDraftNotFound — черновик с таким id отсутствует.
var ErrDraftNotFound = errors.New("draft not found")

// DraftRepository определяет порт доступа к локальным черновикам отправки.
type DraftRepository interface {
	// SaveDraft создаёт или перезаписывает черновик.
	SaveDraft(ctx context.Context, d *model.Draft) error

	// GetDraft находит черновик по id.
	GetDraft(ctx context.Context, id string) (*model.Draft, error)

	// ListDrafts возвращает черновики, свежие первыми.
	ListDrafts(ctx context.Context) ([]model.Draft, error)

	// DeleteDraft удаляет черновик; отсутствие черновика не ошибка.
	DeleteDraft(ctx context.Context, id string) error
}
