package cli

import (
	"context"
	"time"

	flag "github.com/spf13/pflag"

	"sealbook/internal/ledger"
)

func (a *app) statusCmd() *Command {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "status",
		Short: "Show lock state and record count (read-only)",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			folder, grantErr := a.grant()
			if grantErr != nil {
				return grantErr
			}

			doc := a.orchestrator().Inspect(folder)

			switch doc.Lock.Status {
			case ledger.LockStatusLocked:
				since := ""
				if doc.Lock.StartTime != nil {
					since = " since " + doc.Lock.StartTime.Local().Format(time.DateTime)
				}

				o.Println("lock:    LOCKED by", doc.Lock.ActiveUser+since)
			default:
				o.Println("lock:    UNLOCKED")
			}

			o.Println("records:", len(doc.Entries))
			o.Println("log:    ", len(doc.Logs), "entries")

			return nil
		},
	}
}

func (a *app) sessionsCmd() *Command {
	flags := flag.NewFlagSet("sessions", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "sessions",
		Short: "Show session history derived from the audit log",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			folder, grantErr := a.grant()
			if grantErr != nil {
				return grantErr
			}

			sessions := a.orchestrator().Sessions(folder)
			if len(sessions) == 0 {
				o.Println("no sessions")

				return nil
			}

			for _, s := range sessions {
				end := "-"
				if s.EndTime != nil {
					end = s.EndTime.Local().Format(time.DateTime)
				}

				o.Printf("%-14s %-12s %s .. %s\n",
					s.Status, s.UserName, s.StartTime.Local().Format(time.DateTime), end)
			}

			return nil
		},
	}
}
