package service

import (
	"fmt"
	"time"

	"StroyTrack/internal/cli/attach"
	"StroyTrack/internal/cli/model"

	"github.com/google/uuid"
)

// SnapshotDraft сохраняет состояние формы после неудачной отправки: поля, известный id
// и версию транзакции, новые файлы (путь и LocalID) и пометки на удаление.
// Файлы без пути на диске в черновик не попадают.
func SnapshotDraft(draftID string, c *Coordinator, st *attach.Staging, fields model.TransactionFields, cause error, now time.Time) *model.Draft {
	if draftID == "" {
		draftID = uuid.NewString()
	}
	d := &model.Draft{
		ID:               draftID,
		TransactionID:    c.TransactionID(),
		Version:          c.Version(),
		Fields:           fields,
		PendingDeletions: st.PendingDeletions(),
		CreatedAt:        now.Unix(),
		UpdatedAt:        now.Unix(),
	}
	for _, f := range st.Staged() {
		if f.SourcePath != "" {
			d.StagedFiles = append(d.StagedFiles, model.DraftFile{LocalID: f.LocalID, Path: f.SourcePath})
		}
	}
	if cause != nil {
		d.LastError = cause.Error()
	}
	return d
}

// RestoreStaging восстанавливает набор вложений из черновика: помеченные на удаление
// снова помечаются, файлы перечитываются с диска под прежними LocalID.
func RestoreStaging(d *model.Draft) (*attach.Staging, error) {
	st := attach.NewStaging(d.PendingDeletions)
	for _, a := range d.PendingDeletions {
		if err := st.Unstage(a.ID); err != nil {
			return nil, err
		}
	}
	for _, f := range d.StagedFiles {
		if _, err := st.RestorePath(f.LocalID, f.Path); err != nil {
			st.Reset()
			return nil, fmt.Errorf("restore draft %s: %w", d.ID, err)
		}
	}
	return st, nil
}
