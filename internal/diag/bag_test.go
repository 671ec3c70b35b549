package diag_test

import (
	"testing"

	"keb/internal/diag"
	"keb/internal/source"
)

func TestBagLimitAndSort(t *testing.T) {
	bag := diag.NewBag(2)
	r := diag.BagReporter{Bag: bag}
	diag.ReportError(r, diag.SemaTypeMismatch, source.Span{Start: 9, End: 10}, "b").Emit()
	diag.ReportError(r, diag.SemaNotCallable, source.Span{Start: 1, End: 2}, "a").Emit()
	diag.ReportError(r, diag.SemaFieldNotFound, source.Span{Start: 5, End: 6}, "dropped").Emit()

	if bag.Len() != 2 || bag.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d, want 2 and 1", bag.Len(), bag.Dropped())
	}
	bag.Sort()
	if got := bag.Items()[0].Message; got != "a" {
		t.Fatalf("first after sort = %q, want a", got)
	}
	if !bag.HasErrors() {
		t.Fatalf("HasErrors = false")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := diag.NewBag(10)
	r := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	sp := source.Span{Start: 3, End: 4}
	for range 3 {
		diag.ReportError(r, diag.SemaTypeMismatch, sp, "same").Emit()
	}
	diag.ReportError(r, diag.SemaTypeMismatch, sp, "different").Emit()
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2", bag.Len())
	}
}

func TestBuilderEmitsOnce(t *testing.T) {
	counter := &diag.CountingReporter{}
	b := diag.ReportError(counter, diag.SemaMalformed, source.Span{}, "x").
		WithNote(source.Span{Start: 1, End: 2}, "note")
	b.Emit()
	b.Emit()
	if counter.Errors != 1 {
		t.Fatalf("errors = %d, want 1", counter.Errors)
	}
	if got := b.Diagnostic().Notes; len(got) != 1 || got[0].Msg != "note" {
		t.Fatalf("notes = %+v", got)
	}
}

func TestCodeID(t *testing.T) {
	if got := diag.SemaTypeMismatch.ID(); got != "KEB3001" {
		t.Fatalf("ID = %q", got)
	}
	if got := diag.Code(9999).Title(); got != "Unknown error" {
		t.Fatalf("Title = %q", got)
	}
}
