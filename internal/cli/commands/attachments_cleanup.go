package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/config"
)

type attachmentsCleanupCmd struct{}

func (attachmentsCleanupCmd) Name() string { return "attachments-cleanup" }
func (attachmentsCleanupCmd) Description() string {
	return "Удалить на сервере файлы, не привязанные к транзакциям"
}
func (attachmentsCleanupCmd) Usage() string { return "attachments-cleanup [-grace 1h]" }

func (attachmentsCleanupCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("attachments-cleanup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	grace := fs.Duration("grace", 0, "минимальный возраст файла-сироты (по умолчанию настройка сервера)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 || *grace < 0 {
		return ErrUsage
	}
	report, err := api.NewFromConfig(cfg).CleanupOrphans(ctx, *grace)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Проверено объектов: %d\n", report.Scanned)
	for _, k := range report.Removed {
		fmt.Fprintf(Out, "  - %s\n", k)
	}
	for _, k := range report.Failed {
		fmt.Fprintf(Out, "  ! %s\n", k)
	}
	fmt.Fprintf(Out, "Удалено: %d, ошибок: %d\n", len(report.Removed), len(report.Failed))
	return nil
}

func init() { RegisterCmd(attachmentsCleanupCmd{}) }
