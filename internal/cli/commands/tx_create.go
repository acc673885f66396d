package commands

import (
	"context"
	"flag"
	"io"
	"strconv"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/cli/attach"
	"StroyTrack/internal/cli/model"
	"StroyTrack/internal/cli/service"
	"StroyTrack/internal/config"
)

type txCreateCmd struct{}

func (txCreateCmd) Name() string { return "tx-create" }
func (txCreateCmd) Description() string {
	return "Создать транзакцию материала и загрузить вложения"
}
func (txCreateCmd) Usage() string {
	return "tx-create [-reason R] [-project P] [-attach FILE]... <materialId> <import|export> <quantity>"
}

func (txCreateCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	// флаги только перед позиционными аргументами
	fs := flag.NewFlagSet("tx-create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	reason := fs.String("reason", "", "причина движения материала")
	project := fs.String("project", "", "id проекта")
	var files stringList
	fs.Var(&files, "attach", "файл вложения (можно несколько раз)")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) != 3 {
		return ErrUsage
	}
	qty, err := strconv.ParseFloat(rest[2], 64)
	if err != nil {
		return ErrUsage
	}
	fields := model.TransactionFields{
		MaterialID: rest[0],
		Type:       rest[1],
		Quantity:   qty,
		Reason:     *reason,
	}
	if *project != "" {
		fields.ProjectID = project
	}

	st := attach.NewStaging(nil)
	if err := stageFiles(st, files); err != nil {
		return err
	}
	client := api.NewFromConfig(cfg)
	coord := service.NewCoordinator(client, st, Logger, service.WithBaseURL(client.BaseURL()))
	return submitForm(ctx, cfg, coord, st, fields, "")
}

func init() { RegisterCmd(txCreateCmd{}) }
