package cli

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"sealbook/internal/backup"
)

func (a *app) exportCmd() *Command {
	flags := flag.NewFlagSet("export", flag.ContinueOnError)
	output := flags.StringP("output", "o", "sealbook-backup.zip", "output archive path")

	return &Command{
		Flags: flags,
		Usage: "export [flags]",
		Short: "Write a backup archive (xlsx snapshot + attachments)",
		Long: `Exports the current record set as a zip archive holding an xlsx
snapshot (without attachment payloads) and every referenced attachment
file. One-way: the archive is not part of the sync protocol.`,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			folder, grantErr := a.grant()
			if grantErr != nil {
				return grantErr
			}

			doc := a.orchestrator().Inspect(folder)

			out, createErr := os.Create(*output) //nolint:gosec // user-supplied output path
			if createErr != nil {
				return fmt.Errorf("creating archive: %w", createErr)
			}

			exportErr := backup.Export(folder, a.cfg.AttachDir, doc.Entries, out)
			if exportErr != nil {
				_ = out.Close()

				return exportErr
			}

			if closeErr := out.Close(); closeErr != nil {
				return fmt.Errorf("closing archive: %w", closeErr)
			}

			o.Println("exported", len(doc.Entries), "records to", *output)

			return nil
		},
	}
}
