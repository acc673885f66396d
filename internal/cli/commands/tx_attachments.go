package commands

import (
	"context"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/cli/attach"
	"StroyTrack/internal/config"
)

type txAttachmentsCmd struct{}

func (txAttachmentsCmd) Name() string { return "tx-attachments" }
func (txAttachmentsCmd) Description() string {
	return "Показать вложения транзакции"
}
func (txAttachmentsCmd) Usage() string { return "tx-attachments <transactionId>" }

func (txAttachmentsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	client := api.NewFromConfig(cfg)
	// устаревшие имена файлов хранятся в самой транзакции
	tx, err := client.GetTransaction(ctx, args[0])
	if err != nil {
		return err
	}
	records, err := client.ListAttachments(ctx, tx.ID)
	if err != nil {
		return err
	}
	printAttachments(attach.Normalize(tx.ID, records, tx.Files, client.BaseURL()))
	return nil
}

func init() { RegisterCmd(txAttachmentsCmd{}) }
