package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

func (a *app) forceUnlockCmd() *Command {
	flags := flag.NewFlagSet("force-unlock", flag.ContinueOnError)
	yes := flags.Bool("yes", false, "skip the confirmation prompt")

	return &Command{
		Flags: flags,
		Usage: "force-unlock [flags]",
		Short: "Discard the current holder's claim and connect",
		Long: `Unconditionally releases the ledger lock and immediately reconnects as
you. Any unsaved work by the previous holder is lost. This is the
recovery path for crashed or abandoned sessions.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			folder, grantErr := a.grant()
			if grantErr != nil {
				return grantErr
			}

			user, userErr := a.user()
			if userErr != nil {
				return userErr
			}

			if !*yes {
				confirmed, confirmErr := promptConfirm("discard the current holder's claim? [y/N] ")
				if confirmErr != nil {
					return confirmErr
				}

				if !confirmed {
					return nil // backed out, not an error
				}
			}

			records, err := a.orchestrator().ForceUnlockAndRetry(ctx, folder, user)
			if err != nil {
				return err
			}

			o.Println("lock taken over by", user)
			printRecords(o, records)

			return nil
		},
	}
}
