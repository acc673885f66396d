package commands

import (
	"StroyTrack/internal/cli/service"
	"StroyTrack/internal/config"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
)

// Exit codes. Скрипты различают по ним, сохранена ли транзакция.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 2
	ExitInvalid     = 3 // поля не прошли проверку, сеть не вызывалась
	ExitNotSaved    = 4 // транзакция не сохранена, состояние в черновике
	ExitPartial     = 5 // транзакция сохранена, вложения не загружены
	ExitInterrupted = 130
)

// exitCode переводит ошибку команды в код выхода.
func exitCode(err error) int {
	var (
		ve *service.ValidationError
		pe *service.PersistError
		ue *service.UploadError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.As(err, &ve):
		return ExitInvalid
	case errors.As(err, &pe):
		return ExitNotSaved
	case errors.As(err, &ue):
		return ExitPartial
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitError
	}
}

// Dispatch is the single entry point to execute CLI commands.
// It prints help and usage messages and returns a process exit code.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	// If user passed global --help after flags parsing, show global usage
	for _, a := range os.Args[1:] {
		if a == "--help" || a == "-h" {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
	}

	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	name := strings.ToLower(args[0])
	if name == "help" { // stcli help [command]
		if len(args) == 1 {
			fmt.Fprint(Out, FormatGlobalUsage())
			return ExitOK
		}
		if c, ok := Get(args[1]); ok {
			fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
			return ExitOK
		}
		fmt.Fprintf(Out, "Unknown command: %s\n\n", args[1])
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	c, ok := Get(name)
	if !ok {
		fmt.Fprintf(Out, "Unknown command: %s\n\n", name)
		fmt.Fprint(Out, FormatGlobalUsage())
		return ExitUsage
	}

	err := c.Run(ctx, cfg, args[1:])
	code := exitCode(err)
	switch code {
	case ExitOK:
	case ExitUsage:
		fmt.Fprintf(Out, "Usage: %s\n", c.Usage())
	case ExitInterrupted:
		fmt.Fprintf(Out, "%s: прервано\n", name)
	default:
		fmt.Fprintf(Out, "%s error: %v\n", name, err)
	}
	if code != ExitOK {
		Logger.Debugw("command failed", "command", name, "exit_code", code, "error", err)
	}
	return code
}
