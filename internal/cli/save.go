package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"sealbook/internal/backup"
	"sealbook/internal/ledger"
)

var (
	errBadAttachSpec = errors.New("attach spec must be <seq>=<pdf path>")
	errNoSuchRecord  = errors.New("no record with that sequence number")
)

func (a *app) saveCmd() *Command {
	flags := flag.NewFlagSet("save", flag.ContinueOnError)
	importPath := flags.String("import", "", "replace records from an xlsx spreadsheet")
	attachSpecs := flags.StringArray("attach", nil, "attach a PDF to a record, as <seq>=<path> (repeatable)")

	return &Command{
		Flags: flags,
		Usage: "save [flags]",
		Short: "Persist records, release the lock, and exit",
		Long: `Writes the record set back to the shared ledger as one transaction:
attachments first, then the document with the lock released, then the
orphan sweep. Requires the lock taken by a prior 'connect'.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			folder, grantErr := a.grant()
			if grantErr != nil {
				return grantErr
			}

			user, userErr := a.user()
			if userErr != nil {
				return userErr
			}

			orch := a.orchestrator()

			records := orch.Inspect(folder).Entries

			if *importPath != "" {
				data, readErr := os.ReadFile(*importPath) //nolint:gosec // user-supplied import file
				if readErr != nil {
					return fmt.Errorf("reading import file: %w", readErr)
				}

				imported, importErr := backup.ImportRecords(data)
				if importErr != nil {
					return importErr
				}

				records = imported
			}

			for _, spec := range *attachSpecs {
				attachErr := applyAttachSpec(records, spec)
				if attachErr != nil {
					return attachErr
				}
			}

			saveErr := orch.SaveAndExit(ctx, folder, records, user)
			if saveErr != nil {
				return saveErr
			}

			o.Println("saved", len(records), "records and released the lock")

			return nil
		},
	}
}

// applyAttachSpec parses "<seq>=<path>", validates the file as PDF, and
// stages its bytes onto the matching record.
func applyAttachSpec(records []ledger.Record, spec string) error {
	seqStr, path, ok := strings.Cut(spec, "=")
	if !ok {
		return fmt.Errorf("%w: %q", errBadAttachSpec, spec)
	}

	seq, seqErr := strconv.Atoi(strings.TrimSpace(seqStr))
	if seqErr != nil {
		return fmt.Errorf("%w: %q", errBadAttachSpec, spec)
	}

	data, readErr := os.ReadFile(path) //nolint:gosec // user-supplied attachment
	if readErr != nil {
		return fmt.Errorf("reading attachment: %w", readErr)
	}

	if pdfErr := ledger.ValidatePDF(data); pdfErr != nil {
		return pdfErr
	}

	for i := range records {
		if records[i].Seq == seq {
			records[i].Attachment = data

			return nil
		}
	}

	return fmt.Errorf("%w: %d", errNoSuchRecord, seq)
}
