// Package ledger implements the shared-folder coordination core: the
// database document codec, the advisory single-writer lock protocol, the
// content-addressed attachment store, session derivation from the audit
// log, and the sync orchestrator that ties them together.
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-date form used in the document and in
// attachment names.
const DateLayout = "2006-01-02"

// Record is one seal-usage entry. Seq is NOT a stable identity: it is
// recomputed from ascending date order after every mutation that changes
// the sort order. Attachment holds the PDF payload in memory only and is
// never serialized into the document.
type Record struct {
	Seq        int    `json:"id"`
	Date       string `json:"date"`
	DocNumber  string `json:"docNum"`
	Content    string `json:"content"`
	Recipient  string `json:"recipient"`
	Author     string `json:"author"`
	FileName   string `json:"fileName,omitempty"`
	Attachment []byte `json:"-"`
}

// ParseDate parses a record date in the canonical YYYY-MM-DD form.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}

	return t, nil
}

// Renumber returns a copy of records sorted by ascending date with dense
// sequence numbers 1..N assigned. Records with equal or unparseable dates
// keep their relative order; unparseable dates sort as the zero time.
func Renumber(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := ParseDate(out[i].Date)
		tj, _ := ParseDate(out[j].Date)

		return ti.Before(tj)
	})

	for i := range out {
		out[i].Seq = i + 1
	}

	return out
}
