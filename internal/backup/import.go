package backup

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"sealbook/internal/ledger"
)

var errEmptyWorkbook = errors.New("workbook has no sheets")

// Record field keys used for column mapping.
const (
	colSeq       = "seq"
	colDate      = "date"
	colDocNum    = "docNum"
	colContent   = "content"
	colRecipient = "recipient"
	colAuthor    = "author"
	colFileName  = "fileName"
)

// headerAliases maps normalized header cells to record fields. Matching is
// exact after whitespace trimming and ASCII case folding; both Korean and
// English headers are recognized.
var headerAliases = buildAliases()

func buildAliases() map[string]string {
	aliases := make(map[string]string)

	add := func(field string, names ...string) {
		for _, name := range names {
			aliases[name] = field
		}
	}

	add(colSeq, "순번", "번호", "no", "no.")
	add(colDate, "일자", "날짜", "사용일자", "date")
	add(colDocNum, "문서번호", "doc no", "doc no.", "document no.")
	add(colContent, "내용", "사용내용", "content")
	add(colRecipient, "수신처", "제출처", "recipient")
	add(colAuthor, "작성자", "담당자", "author")
	add(colFileName, "첨부", "첨부파일", "attachment", "file")

	return aliases
}

// positionalFields is the column order assumed when no header row is
// recognized: the shape of the export snapshot minus nothing.
var positionalFields = []string{colSeq, colDate, colDocNum, colContent, colRecipient, colAuthor, colFileName}

// ImportRecords parses an xlsx workbook into records, best effort. The
// first sheet is read; a header row is detected by alias matching and
// skipped, and unrecognized or missing headers fall back to positional
// column defaults instead of failing the import. Sequence numbers are not
// taken from the sheet — callers renumber on save.
func ImportRecords(data []byte) ([]ledger.Record, error) {
	book, openErr := excelize.OpenReader(bytes.NewReader(data))
	if openErr != nil {
		return nil, fmt.Errorf("opening workbook: %w", openErr)
	}

	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, errEmptyWorkbook
	}

	rows, rowsErr := book.GetRows(sheets[0])
	if rowsErr != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], rowsErr)
	}

	if len(rows) == 0 {
		return []ledger.Record{}, nil
	}

	columns, hasHeader := mapColumns(rows[0])
	if hasHeader {
		rows = rows[1:]
	}

	records := make([]ledger.Record, 0, len(rows))

	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}

		records = append(records, recordFromRow(row, columns))
	}

	return records, nil
}

// mapColumns inspects a candidate header row. It returns a column-index to
// field mapping and whether the row actually was a header. A single alias
// match is enough; columns without a recognized header keep their
// positional default.
func mapColumns(header []string) (map[int]string, bool) {
	columns := make(map[int]string, len(positionalFields))
	for i, field := range positionalFields {
		columns[i] = field
	}

	matched := false

	for i, cell := range header {
		field, ok := headerAliases[strings.ToLower(strings.TrimSpace(cell))]
		if !ok {
			continue
		}

		columns[i] = field
		matched = true
	}

	return columns, matched
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

func recordFromRow(row []string, columns map[int]string) ledger.Record {
	var rec ledger.Record

	for i, cell := range row {
		value := strings.TrimSpace(cell)

		switch columns[i] {
		case colDate:
			rec.Date = value
		case colDocNum:
			rec.DocNumber = value
		case colContent:
			rec.Content = value
		case colRecipient:
			rec.Recipient = value
		case colAuthor:
			rec.Author = value
		case colFileName:
			rec.FileName = value
		}
	}

	return rec
}
