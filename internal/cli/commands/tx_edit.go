package commands

import (
	"context"
	"flag"
	"io"
	"strconv"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/cli/attach"
	"StroyTrack/internal/cli/service"
	"StroyTrack/internal/config"
)

type txEditCmd struct{}

func (txEditCmd) Name() string { return "tx-edit" }
func (txEditCmd) Description() string {
	return "Изменить транзакцию: поля, новые вложения (-attach), удаление вложений (-detach)"
}
func (txEditCmd) Usage() string {
	return "tx-edit [-resolve=client|server] [-material M] [-type T] [-quantity Q] [-reason R] [-project P] [-attach FILE]... [-detach ID]... <transactionId>"
}

func (txEditCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tx-edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	material := fs.String("material", "", "id материала")
	txType := fs.String("type", "", "import|export")
	quantity := fs.String("quantity", "", "количество")
	reason := fs.String("reason", "", "причина движения материала")
	project := fs.String("project", "", "id проекта")
	resolve := fs.String("resolve", "", "стратегия разрешения конфликта версий: client|server")
	var files, detach stringList
	fs.Var(&files, "attach", "новый файл вложения (можно несколько раз)")
	fs.Var(&detach, "detach", "id вложения или имя файла для удаления (можно несколько раз)")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) != 1 || !validResolve(*resolve) {
		return ErrUsage
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	client := api.NewFromConfig(cfg)
	tx, err := client.GetTransaction(ctx, rest[0])
	if err != nil {
		return err
	}
	records, err := client.ListAttachments(ctx, tx.ID)
	if err != nil {
		return err
	}

	fields := tx.Fields()
	if set["material"] {
		fields.MaterialID = *material
	}
	if set["type"] {
		fields.Type = *txType
	}
	if set["quantity"] {
		q, err := strconv.ParseFloat(*quantity, 64)
		if err != nil {
			return ErrUsage
		}
		fields.Quantity = q
	}
	if set["reason"] {
		fields.Reason = *reason
	}
	if set["project"] {
		if *project == "" {
			fields.ProjectID = nil
		} else {
			fields.ProjectID = project
		}
	}

	st := attach.NewStaging(attach.Normalize(tx.ID, records, tx.Files, client.BaseURL()))
	for _, ref := range detach {
		if err := st.Unstage(ref); err != nil {
			return err
		}
	}
	if err := stageFiles(st, files); err != nil {
		return err
	}
	// запись только что прочитана, так что "server" совпадает с поведением по умолчанию
	version := &tx.Version
	if *resolve == resolveClient {
		version = nil
	}
	coord := service.NewCoordinator(client, st, Logger,
		service.WithExisting(tx.ID, version),
		service.WithBaseURL(client.BaseURL()),
	)
	return submitForm(ctx, cfg, coord, st, fields, "")
}

func init() { RegisterCmd(txEditCmd{}) }
