package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/cli/attach"
	"StroyTrack/internal/cli/bootstrap"
	"StroyTrack/internal/cli/model"
	"StroyTrack/internal/cli/service"
	"StroyTrack/internal/config"

	"github.com/dustin/go-humanize"
)

// stringList — повторяемый флаг (-attach a -attach b).
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Стратегии флага -resolve при конфликте версий.
const (
	resolveClient = "client" // отправить без версии: последняя запись побеждает
	resolveServer = "server" // взять текущую версию с сервера и отправить поверх неё
)

func validResolve(v string) bool {
	return v == "" || v == resolveClient || v == resolveServer
}

// resolveVersion выбирает версию, с которой обновляется транзакция txID.
func resolveVersion(ctx context.Context, client *api.Client, strategy, txID string, known *int64) (*int64, error) {
	switch strategy {
	case resolveClient:
		return nil, nil
	case resolveServer:
		tx, err := client.GetTransaction(ctx, txID)
		if err != nil {
			return nil, err
		}
		Logger.Debugw("version resolved from server", "tx_id", txID, "version", tx.Version)
		v := tx.Version
		return &v, nil
	default:
		return known, nil
	}
}

// stageFiles добавляет файлы с диска в набор вложений.
func stageFiles(st *attach.Staging, paths []string) error {
	for _, p := range paths {
		f, err := st.StagePath(p)
		if err != nil {
			return err
		}
		Logger.Debugw("file staged", "local_id", f.LocalID, "name", f.DisplayName, "size", f.Size)
	}
	return nil
}

// submitForm отправляет форму и печатает итог. При неудаче сохранения или загрузки
// состояние формы сохраняется черновиком; при успехе черновик draftID удаляется.
func submitForm(ctx context.Context, cfg *config.Config, coord *service.Coordinator, st *attach.Staging, fields model.TransactionFields, draftID string) error {
	printVisible(st)
	fmt.Fprintln(Out, "→ Отправка транзакции...")
	res, err := coord.Submit(ctx, fields)

	var ve *service.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintln(Out, "× "+res.Message()+":")
		for field, reason := range ve.Fields {
			fmt.Fprintf(Out, "  %s: %s\n", field, reason)
		}
		return err
	}
	if err != nil {
		fmt.Fprintln(Out, "× "+res.Message())
		if res.Outcome == service.PersistFailed || res.Outcome == service.UploadFailed {
			id := saveDraft(ctx, cfg, coord, st, fields, draftID, err)
			if id != "" && api.IsStatus(err, http.StatusConflict) {
				fmt.Fprintln(Out, "! Запись изменена на сервере после чтения (версия устарела).")
				fmt.Fprintf(Out, "  Перезаписать своими полями: stcli tx-retry -resolve=server %s\n", id)
				fmt.Fprintf(Out, "  Без проверки версии:        stcli tx-retry -resolve=client %s\n", id)
			}
		}
		return err
	}

	fmt.Fprintln(Out, "✓ "+res.Message())
	fmt.Fprintf(Out, "  id:      %s\n", res.Transaction.ID)
	fmt.Fprintf(Out, "  version: %d\n", res.Transaction.Version)
	for _, a := range res.Uploaded {
		fmt.Fprintf(Out, "  + %s (%s) %s\n", a.OriginalFilename, humanize.Bytes(uint64(a.FileSize)), a.FileURI)
	}
	for _, d := range res.Deletions {
		if d.Err != nil {
			fmt.Fprintf(Out, "  ! не удалено %s: %v\n", d.ID, d.Err)
			continue
		}
		fmt.Fprintf(Out, "  - %s\n", d.ID)
	}
	if draftID != "" {
		removeDraft(ctx, cfg, draftID)
	}
	return nil
}

// saveDraft сохраняет черновик и возвращает его id; пусто, если сохранить не удалось.
func saveDraft(ctx context.Context, cfg *config.Config, coord *service.Coordinator, st *attach.Staging, fields model.TransactionFields, draftID string, cause error) string {
	repo, done, err := bootstrap.OpenDraftRepo(cfg)
	if err != nil {
		Logger.Warnw("draft not saved", "error", err)
		fmt.Fprintf(Out, "! Черновик не сохранён: %v\n", err)
		return ""
	}
	defer done()

	now := time.Now()
	d := service.SnapshotDraft(draftID, coord, st, fields, cause, now)
	if draftID != "" {
		if prev, err := repo.GetDraft(ctx, draftID); err == nil {
			d.CreatedAt = prev.CreatedAt
		}
	}
	if err := repo.SaveDraft(ctx, d); err != nil {
		Logger.Warnw("draft not saved", "draft_id", d.ID, "error", err)
		fmt.Fprintf(Out, "! Черновик не сохранён: %v\n", err)
		return ""
	}
	fmt.Fprintf(Out, "• Черновик %s сохранён. Повторить: stcli tx-retry %s\n", d.ID, d.ID)
	return d.ID
}

func removeDraft(ctx context.Context, cfg *config.Config, draftID string) {
	repo, done, err := bootstrap.OpenDraftRepo(cfg)
	if err != nil {
		Logger.Warnw("draft not removed", "draft_id", draftID, "error", err)
		return
	}
	defer done()
	if err := repo.DeleteDraft(ctx, draftID); err != nil {
		Logger.Warnw("draft not removed", "draft_id", draftID, "error", err)
		return
	}
	fmt.Fprintf(Out, "• Черновик %s удалён\n", draftID)
}

func printVisible(st *attach.Staging) {
	entries := st.Visible()
	pending := st.PendingDeletions()
	if len(entries) == 0 && len(pending) == 0 {
		return
	}
	fmt.Fprintln(Out, "Вложения:")
	for _, e := range entries {
		fmt.Fprintf(Out, "  [%s] %s  %s  %s\n", e.Kind, e.Name, humanize.Bytes(uint64(e.Size)), e.Ref)
	}
	for _, a := range pending {
		fmt.Fprintf(Out, "  [delete] %s  %s\n", a.OriginalFilename, a.ID)
	}
}
