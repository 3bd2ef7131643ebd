package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"sealbook/internal/ledger"
)

func (a *app) passwdCmd() *Command {
	flags := flag.NewFlagSet("passwd", flag.ContinueOnError)
	oldPass := flags.String("old", "", "current access password (prompted when omitted)")
	newPass := flags.String("new", "", "new access password (prompted when omitted)")

	return &Command{
		Flags: flags,
		Usage: "passwd [flags]",
		Short: "Change the ledger access password",
		Long: `Rewrites the document with a new access password. Requires the lock
taken by a prior 'connect'. The password is a deterrent for casual
access, not a security boundary.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			folder, grantErr := a.grant()
			if grantErr != nil {
				return grantErr
			}

			user, userErr := a.user()
			if userErr != nil {
				return userErr
			}

			current, cancelled, promptErr := promptPassword(*oldPass, "current password: ")
			if promptErr != nil || cancelled {
				return promptErr
			}

			next, cancelled, promptErr := promptPassword(*newPass, "new password: ")
			if promptErr != nil || cancelled {
				return promptErr
			}

			changeErr := a.orchestrator().ChangePassword(folder, user, current, next)
			if changeErr != nil {
				return changeErr
			}

			o.Println("password changed")

			return nil
		},
	}
}

func (a *app) printConfigCmd() *Command {
	flags := flag.NewFlagSet("print-config", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "print-config",
		Short: "Show resolved configuration",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			formatted, err := ledger.FormatConfig(a.cfg)
			if err != nil {
				return err
			}

			o.Println(formatted)
			o.Println()
			o.Println("# Sources:")

			if a.sources.Global != "" {
				o.Println("#   global:", a.sources.Global)
			}

			if a.sources.Project != "" {
				o.Println("#   project:", a.sources.Project)
			}

			if a.sources.Global == "" && a.sources.Project == "" {
				o.Println("#   (using defaults only)")
			}

			return nil
		},
	}
}
