package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"sealbook/internal/ledger"
)

func (a *app) connectCmd() *Command {
	flags := flag.NewFlagSet("connect", flag.ContinueOnError)
	password := flags.String("password", "", "access password (prompted when omitted)")

	return &Command{
		Flags: flags,
		Usage: "connect [flags]",
		Short: "Claim the ledger and list its records",
		Long: `Claims the single-writer lock on the shared ledger and prints the
record set. The claim holds until 'save' releases it. If another
user already holds the lock, connect fails and names the holder.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			folder, grantErr := a.grant()
			if grantErr != nil {
				return grantErr
			}

			user, userErr := a.user()
			if userErr != nil {
				return userErr
			}

			pass, cancelled, promptErr := promptPassword(*password, "access password: ")
			if promptErr != nil {
				return promptErr
			}

			if cancelled {
				return nil // user backed out, not an error
			}

			orch := a.orchestrator()

			if verifyErr := orch.VerifyPassword(folder, pass); verifyErr != nil {
				return verifyErr
			}

			records, connectErr := orch.Connect(ctx, folder, user)
			if connectErr != nil {
				if cerr, ok := ledger.IsContention(connectErr); ok {
					return fmt.Errorf("%w (held for %s; 'sealbook force-unlock' takes over)",
						connectErr, ledger.HolderSince(cerr))
				}

				return connectErr
			}

			o.Println("connected as", user)
			printRecords(o, records)

			return nil
		},
	}
}

func printRecords(o *IO, records []ledger.Record) {
	if len(records) == 0 {
		o.Println("no records")

		return
	}

	for _, rec := range records {
		attach := "-"
		if rec.FileName != "" {
			attach = rec.FileName
		}

		o.Printf("%4d  %s  %-12s  %s / %s / %s  %s\n",
			rec.Seq, rec.Date, rec.DocNumber, rec.Content, rec.Recipient, rec.Author, attach)
	}
}
