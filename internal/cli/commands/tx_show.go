package commands

import (
	"context"
	"fmt"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/cli/attach"
	"StroyTrack/internal/cli/model"
	"StroyTrack/internal/config"

	"github.com/dustin/go-humanize"
)

type txShowCmd struct{}

func (txShowCmd) Name() string { return "tx-show" }
func (txShowCmd) Description() string {
	return "Показать транзакцию и её вложения"
}
func (txShowCmd) Usage() string { return "tx-show <transactionId>" }

func (txShowCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	client := api.NewFromConfig(cfg)
	tx, err := client.GetTransaction(ctx, args[0])
	if err != nil {
		return err
	}
	records, err := client.ListAttachments(ctx, tx.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "id:        %s\n", tx.ID)
	fmt.Fprintf(Out, "material:  %s\n", tx.MaterialID)
	fmt.Fprintf(Out, "type:      %s\n", tx.Type)
	fmt.Fprintf(Out, "quantity:  %s\n", humanize.Ftoa(tx.Quantity))
	if tx.Reason != "" {
		fmt.Fprintf(Out, "reason:    %s\n", tx.Reason)
	}
	if tx.ProjectID != nil {
		fmt.Fprintf(Out, "project:   %s\n", *tx.ProjectID)
	}
	fmt.Fprintf(Out, "version:   %d\n", tx.Version)
	printAttachments(attach.Normalize(tx.ID, records, tx.Files, client.BaseURL()))
	return nil
}

func printAttachments(list []model.CommittedAttachment) {
	if len(list) == 0 {
		fmt.Fprintln(Out, "Нет вложений")
		return
	}
	var total int64
	for _, a := range list {
		size := "?"
		if !a.Legacy {
			size = humanize.Bytes(uint64(a.FileSize))
			total += a.FileSize
		}
		fmt.Fprintf(Out, "- %s  %s  %s  %s\n", a.ID, a.OriginalFilename, size, a.FileURI)
	}
	fmt.Fprintf(Out, "Всего: %d (%s)\n", len(list), humanize.Bytes(uint64(total)))
}

func init() { RegisterCmd(txShowCmd{}) }
