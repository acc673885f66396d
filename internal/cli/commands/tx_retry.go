package commands

import (
	"context"
	"flag"
	"io"

	"StroyTrack/internal/cli/api"
	"StroyTrack/internal/cli/bootstrap"
	"StroyTrack/internal/cli/service"
	"StroyTrack/internal/config"
)

type txRetryCmd struct{}

func (txRetryCmd) Name() string { return "tx-retry" }
func (txRetryCmd) Description() string {
	return "Повторить неудачную отправку из черновика"
}
func (txRetryCmd) Usage() string { return "tx-retry [-resolve=client|server] <draftId>" }

func (txRetryCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tx-retry", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	resolve := fs.String("resolve", "", "стратегия разрешения конфликта версий: client|server")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	rest := fs.Args()
	if len(rest) != 1 || !validResolve(*resolve) {
		return ErrUsage
	}

	repo, done, err := bootstrap.OpenDraftRepo(cfg)
	if err != nil {
		return err
	}
	d, err := repo.GetDraft(ctx, rest[0])
	_ = done()
	if err != nil {
		return err
	}
	st, err := service.RestoreStaging(d)
	if err != nil {
		return err
	}

	client := api.NewFromConfig(cfg)
	opts := []service.Option{service.WithBaseURL(client.BaseURL())}
	if d.TransactionID != "" {
		version, err := resolveVersion(ctx, client, *resolve, d.TransactionID, d.Version)
		if err != nil {
			st.Reset()
			return err
		}
		opts = append(opts, service.WithExisting(d.TransactionID, version))
	}
	coord := service.NewCoordinator(client, st, Logger, opts...)
	return submitForm(ctx, cfg, coord, st, d.Fields, d.ID)
}

func init() { RegisterCmd(txRetryCmd{}) }
