// Package backup implements the one-way export archive and the best-effort
// spreadsheet import. Both are I/O utilities kept apart from the lock
// protocol and the document codec: nothing parsed here can touch lock
// state.
package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"path"

	"github.com/xuri/excelize/v2"

	"sealbook/internal/ledger"
)

// SheetName is the worksheet holding the record snapshot.
const SheetName = "Ledger"

// archiveAttachDir is the fixed attachment folder name inside the export
// archive, independent of the configured subfolder in the shared folder.
const archiveAttachDir = "attachments"

// snapshotName is the spreadsheet entry name inside the export archive.
const snapshotName = "ledger.xlsx"

// exportHeaders are the snapshot column headers. The importer recognizes
// these (and their English aliases) on the way back in.
var exportHeaders = []string{"순번", "일자", "문서번호", "내용", "수신처", "작성자", "첨부파일"}

// Export writes a zip archive to w containing an xlsx snapshot of records
// (without attachment payloads) and every attachment file referenced by
// them under a fixed attachments/ prefix. It is a one-way export, not part
// of the sync protocol.
func Export(folder ledger.Folder, attachDir string, records []ledger.Record, w io.Writer) error {
	archive := zip.NewWriter(w)

	entry, createErr := archive.Create(snapshotName)
	if createErr != nil {
		return fmt.Errorf("creating snapshot entry: %w", createErr)
	}

	snapshotErr := writeSnapshot(entry, records)
	if snapshotErr != nil {
		return snapshotErr
	}

	store := ledger.NewStore(folder, attachDir)

	for _, rec := range records {
		if rec.FileName == "" {
			continue
		}

		data, getErr := store.Get(rec.FileName)
		if getErr != nil {
			return getErr
		}

		if data == nil {
			continue // referenced but missing on disk, skip
		}

		fileEntry, entryErr := archive.Create(path.Join(archiveAttachDir, rec.FileName))
		if entryErr != nil {
			return fmt.Errorf("creating attachment entry: %w", entryErr)
		}

		if _, writeErr := fileEntry.Write(data); writeErr != nil {
			return fmt.Errorf("writing attachment %s: %w", rec.FileName, writeErr)
		}
	}

	closeErr := archive.Close()
	if closeErr != nil {
		return fmt.Errorf("finalizing archive: %w", closeErr)
	}

	return nil
}

// writeSnapshot renders records as a single-sheet workbook.
func writeSnapshot(w io.Writer, records []ledger.Record) error {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	index, sheetErr := book.NewSheet(SheetName)
	if sheetErr != nil {
		return fmt.Errorf("creating sheet: %w", sheetErr)
	}

	book.SetActiveSheet(index)

	deleteErr := book.DeleteSheet("Sheet1")
	if deleteErr != nil {
		return fmt.Errorf("removing default sheet: %w", deleteErr)
	}

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)

		if err := book.SetCellValue(SheetName, cell, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for row, rec := range records {
		values := []any{rec.Seq, rec.Date, rec.DocNumber, rec.Content, rec.Recipient, rec.Author, rec.FileName}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)

			if err := book.SetCellValue(SheetName, cell, value); err != nil {
				return fmt.Errorf("writing row %d: %w", row+1, err)
			}
		}
	}

	if _, err := book.WriteTo(w); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	return nil
}
