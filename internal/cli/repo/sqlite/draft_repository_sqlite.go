package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"StroyTrack/internal/cli/model"
	"StroyTrack/internal/cli/repo"

	_ "modernc.org/sqlite"
)

const dbFileName = "client.sqlite"

// DraftRepositorySQLite — черновики отправки в локальной БД SQLite.
type DraftRepositorySQLite struct {
	db *sql.DB
}

var _ repo.DraftRepository = (*DraftRepositorySQLite)(nil)

// Open открывает (и создаёт при необходимости) файл БД в каталоге dir.
// Вторым значением возвращается путь к БД.
func Open(dir string) (*DraftRepositorySQLite, string, error) {
	if dir == "" {
		return nil, "", errors.New("empty client db path")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", err
	}
	dbPath := filepath.Join(dir, dbFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, "", err
	}
	return &DraftRepositorySQLite{db: db}, dbPath, nil
}

// Close закрывает соединение с БД.
func (r *DraftRepositorySQLite) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate гарантирует наличие необходимых таблиц/индексов.
func (r *DraftRepositorySQLite) Migrate() error {
	_, err := r.db.Exec(initialDDL())
	return err
}

// SaveDraft создаёт или перезаписывает черновик (created_at сохраняется).
func (r *DraftRepositorySQLite) SaveDraft(ctx context.Context, d *model.Draft) error {
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	staged, err := json.Marshal(nonNil(d.StagedFiles))
	if err != nil {
		return fmt.Errorf("marshal staged files: %w", err)
	}
	pending, err := json.Marshal(nonNil(d.PendingDeletions))
	if err != nil {
		return fmt.Errorf("marshal pending deletions: %w", err)
	}
	var version sql.NullInt64
	if d.Version != nil {
		version = sql.NullInt64{Int64: *d.Version, Valid: true}
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO drafts (id, transaction_id, version, fields, staged_files, pending_deletions, last_error, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    transaction_id = excluded.transaction_id,
    version = excluded.version,
    fields = excluded.fields,
    staged_files = excluded.staged_files,
    pending_deletions = excluded.pending_deletions,
    last_error = excluded.last_error,
    updated_at = excluded.updated_at`,
		d.ID, d.TransactionID, version, string(fields), string(staged), string(pending), d.LastError, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

const selectDraft = `SELECT id, transaction_id, version, fields, staged_files, pending_deletions, last_error, created_at, updated_at FROM drafts`

// GetDraft находит черновик по id.
func (r *DraftRepositorySQLite) GetDraft(ctx context.Context, id string) (*model.Draft, error) {
	row := r.db.QueryRowContext(ctx, selectDraft+` WHERE id = ?`, id)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListDrafts возвращает черновики, свежие первыми.
func (r *DraftRepositorySQLite) ListDrafts(ctx context.Context) ([]model.Draft, error) {
	rows, err := r.db.QueryContext(ctx, selectDraft+` ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// DeleteDraft удаляет черновик.
func (r *DraftRepositorySQLite) DeleteDraft(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(s scanner) (*model.Draft, error) {
	var d model.Draft
	var version sql.NullInt64
	var fields, staged, pending string
	if err := s.Scan(&d.ID, &d.TransactionID, &version, &fields, &staged, &pending, &d.LastError, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if version.Valid {
		v := version.Int64
		d.Version = &v
	}
	if err := json.Unmarshal([]byte(fields), &d.Fields); err != nil {
		return nil, fmt.Errorf("draft %s: fields: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(staged), &d.StagedFiles); err != nil {
		return nil, fmt.Errorf("draft %s: staged files: %w", d.ID, err)
	}
	if err := json.Unmarshal([]byte(pending), &d.PendingDeletions); err != nil {
		return nil, fmt.Errorf("draft %s: pending deletions: %w", d.ID, err)
	}
	return &d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
