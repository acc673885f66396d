package commands

import (
	"context"
	"fmt"
	"time"

	"StroyTrack/internal/cli/bootstrap"
	"StroyTrack/internal/config"

	"github.com/dustin/go-humanize"
)

type txDraftsCmd struct{}

func (txDraftsCmd) Name() string { return "tx-drafts" }
func (txDraftsCmd) Description() string {
	return "Показать черновики неудачных отправок"
}
func (txDraftsCmd) Usage() string { return "tx-drafts" }

func (txDraftsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	repo, done, err := bootstrap.OpenDraftRepo(cfg)
	if err != nil {
		return err
	}
	defer done()
	list, err := repo.ListDrafts(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет черновиков")
		return nil
	}
	for _, d := range list {
		tx := d.TransactionID
		if tx == "" {
			tx = "<new>"
		}
		fmt.Fprintf(Out, "- %s  tx=%s  material=%s  files=%d  delete=%d  %s\n",
			d.ID, tx, d.Fields.MaterialID, len(d.StagedFiles), len(d.PendingDeletions),
			humanize.Time(time.Unix(d.UpdatedAt, 0)))
		if d.LastError != "" {
			fmt.Fprintf(Out, "    ошибка: %s\n", d.LastError)
		}
	}
	fmt.Fprintf(Out, "Всего: %d\n", len(list))
	return nil
}

func init() { RegisterCmd(txDraftsCmd{}) }
