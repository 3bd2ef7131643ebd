// Package cli implements the sealbook command line surface: the thin driver
// over the sync orchestrator that replaces the out-of-scope table UI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"sealbook/internal/ledger"
	"sealbook/internal/share"
)

const helpFlag = "--help"

var (
	errFlagRequiresArg   = errors.New("flag requires an argument")
	errUnknownFlag       = errors.New("unknown flag")
	errLedgerDirRequired = errors.New("no ledger directory (use -d, ledger_dir in config, or .sealbook.json)")
	errUserRequired      = errors.New("no user name (use -u or user_name in config)")
)

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env map[string]string) int {
	ioCtx := NewIO(in, out, errOut)

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		ioCtx.ErrPrintln("error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			ioCtx.ErrPrintln("error: cannot get working directory:", err)

			return 1
		}
	}

	overrides := ledger.Config{LedgerDir: flags.ledgerDir, UserName: flags.userName}

	cfg, sources, err := ledger.LoadConfig(workDir, flags.configPath, overrides, env)
	if err != nil {
		ioCtx.ErrPrintln("error:", err)

		return 1
	}

	if cfg.UserName == "" {
		cfg.UserName = env["USER"]
	}

	if len(flags.remaining) == 0 || flags.remaining[0] == "-h" || flags.remaining[0] == helpFlag {
		a := &app{cfg: cfg, sources: sources, errOut: errOut}
		printUsage(ioCtx, a.commands())

		return 0
	}

	a := &app{cfg: cfg, sources: sources, errOut: errOut}
	commands := a.commands()

	name := flags.remaining[0]
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd.Run(context.Background(), ioCtx, flags.remaining[1:])
		}
	}

	ioCtx.ErrPrintln("error: unknown command:", name)
	printUsage(ioCtx, commands)

	return 1
}

// app carries the resolved configuration into command closures. All ledger
// state still travels through explicit parameters; app holds only names.
type app struct {
	cfg     ledger.Config
	sources ledger.ConfigSources
	errOut  io.Writer
}

func (a *app) commands() []*Command {
	return []*Command{
		a.connectCmd(),
		a.saveCmd(),
		a.forceUnlockCmd(),
		a.statusCmd(),
		a.sessionsCmd(),
		a.exportCmd(),
		a.passwdCmd(),
		a.printConfigCmd(),
	}
}

// grant opens the capability handle on the configured shared folder.
func (a *app) grant() (*share.Dir, error) {
	if a.cfg.LedgerDir == "" {
		return nil, errLedgerDirRequired
	}

	return share.Grant(a.cfg.LedgerDir)
}

func (a *app) user() (string, error) {
	if a.cfg.UserName == "" {
		return "", errUserRequired
	}

	return a.cfg.UserName, nil
}

func (a *app) orchestrator() *ledger.Orchestrator {
	logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: slog.LevelWarn}))

	return ledger.NewOrchestrator(a.cfg, logger)
}

type globalFlags struct {
	workDir    string
	configPath string
	ledgerDir  string
	userName   string
	remaining  []string
}

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	idx := 0
	for idx < len(args) {
		consumed, err := parseFlag(args, idx, &flags)
		if err != nil {
			return globalFlags{}, err
		}

		if consumed == 0 {
			// Not a flag, this is the command
			flags.remaining = args[idx:]

			break
		}

		idx += consumed
	}

	return flags, nil
}

// parseFlag tries to parse a flag at args[idx]. Returns number of args consumed (0 if not a flag).
func parseFlag(args []string, idx int, flags *globalFlags) (int, error) {
	arg := args[idx]

	set := func(target *string, long string) (int, error) {
		if after, ok := strings.CutPrefix(arg, long+"="); ok {
			*target = after

			return 1, nil
		}

		if idx+1 >= len(args) {
			return 0, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
		}

		*target = args[idx+1]

		return 2, nil
	}

	switch {
	case arg == "-C" || arg == "--cwd" || strings.HasPrefix(arg, "--cwd="):
		return set(&flags.workDir, "--cwd")
	case arg == "-c" || arg == "--config" || strings.HasPrefix(arg, "--config="):
		return set(&flags.configPath, "--config")
	case arg == "-d" || arg == "--dir" || strings.HasPrefix(arg, "--dir="):
		return set(&flags.ledgerDir, "--dir")
	case arg == "-u" || arg == "--user" || strings.HasPrefix(arg, "--user="):
		return set(&flags.userName, "--user")
	case arg == "-h" || arg == helpFlag:
		flags.remaining = []string{helpFlag}

		return len(args) - idx, nil
	case strings.HasPrefix(arg, "-") && arg != "-":
		return 0, fmt.Errorf("%w: %s", errUnknownFlag, arg)
	default:
		return 0, nil
	}
}

func printUsage(o *IO, commands []*Command) {
	o.Println(`sealbook - shared-folder seal-usage ledger

Usage: sealbook [options] <command> [args]

Options:
  -C, --cwd <dir>     Run as if started in <dir>
  -c, --config <file> Use specified config file
  -d, --dir <dir>     Shared ledger folder
  -u, --user <name>   User identity for lock and audit log

Commands:`)

	for _, cmd := range commands {
		o.Println(cmd.HelpLine())
	}
}
