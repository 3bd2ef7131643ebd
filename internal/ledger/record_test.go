package ledger

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRenumber_DenseAscendingByDate(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Seq: 9, Date: "2024-05-01", Content: "c"},
		{Seq: 1, Date: "2024-01-15", Content: "a"},
		{Seq: 4, Date: "2024-03-05", Content: "b"},
	}

	got := Renumber(records)

	want := []Record{
		{Seq: 1, Date: "2024-01-15", Content: "a"},
		{Seq: 2, Date: "2024-03-05", Content: "b"},
		{Seq: 3, Date: "2024-05-01", Content: "c"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Renumber mismatch (-want +got):\n%s", diff)
	}
}

func TestRenumber_StableForEqualDates(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Date: "2024-03-05", Content: "first"},
		{Date: "2024-03-05", Content: "second"},
		{Date: "2024-01-01", Content: "earlier"},
	}

	got := Renumber(records)

	if got[0].Content != "earlier" || got[1].Content != "first" || got[2].Content != "second" {
		t.Errorf("equal dates lost their relative order: %+v", got)
	}
}

func TestRenumber_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Seq: 7, Date: "2024-05-01"},
		{Seq: 8, Date: "2024-01-01"},
	}

	_ = Renumber(records)

	if records[0].Seq != 7 || records[0].Date != "2024-05-01" {
		t.Errorf("input slice was mutated: %+v", records)
	}
}

func TestRenumber_AfterMutations(t *testing.T) {
	t.Parallel()

	// Insert, delete, and date-edit; the sequence must stay dense 1..N
	// in ascending date order after each round.
	records := Renumber([]Record{
		{Date: "2024-02-01"},
		{Date: "2024-01-01"},
	})

	// insert
	records = Renumber(append(records, Record{Date: "2024-01-15"}))

	// delete the middle one
	records = Renumber(append(records[:1], records[2:]...))

	// date edit pushes the first record last
	records[0].Date = "2025-01-01"
	records = Renumber(records)

	for i, rec := range records {
		if rec.Seq != i+1 {
			t.Errorf("sequence not dense at index %d: %+v", i, records)
		}

		if i > 0 {
			prev, _ := ParseDate(records[i-1].Date)
			cur, _ := ParseDate(rec.Date)

			if cur.Before(prev) {
				t.Errorf("sequence out of date order at index %d: %+v", i, records)
			}
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "2024/03/05", "03-05-2024", "not a date"} {
		_, err := ParseDate(input)
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q): expected ErrInvalidDate, got %v", input, err)
		}
	}
}
