package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"keb/internal/pipeline"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan pipeline.Event)
	m := NewProgressModel("checking", []string{"a.keb", "b.keb", "c.keb"}, events).(*progressModel)

	m.applyEvent(pipeline.Event{File: "a.keb", Stage: pipeline.StageInfer, Status: pipeline.StatusWorking})
	if got := m.items[0].label(); got != "inferring" {
		t.Fatalf("label = %q", got)
	}
	m.applyEvent(pipeline.Event{File: "b.keb", Status: pipeline.StatusError, Errors: 2, Elapsed: 3 * time.Millisecond})
	m.applyEvent(pipeline.Event{File: "b.keb", Stage: pipeline.StageLower, Status: pipeline.StatusWorking})
	if m.items[1].status != pipeline.StatusError {
		t.Fatalf("finished file reopened: %q", m.items[1].status)
	}
	if got, want := m.percent(), (0.5+1.0+0)/3; got != want {
		t.Fatalf("percent = %v, want %v", got, want)
	}
	m.applyEvent(pipeline.Event{File: "unknown.keb", Status: pipeline.StatusDone})

	view := m.View()
	for _, want := range []string{"checking 1/3, 1 with errors", "a.keb", "inferring", "error", "2 errors", "3.0ms", "queued"} {
		if !strings.Contains(view, want) {
			t.Errorf("view misses %q:\n%s", want, view)
		}
	}
}

func TestItemDetail(t *testing.T) {
	tests := []struct {
		name string
		item fileItem
		want string
	}{
		{"working", fileItem{status: pipeline.StatusWorking}, ""},
		{"clean", fileItem{status: pipeline.StatusDone, elapsed: 1500 * time.Millisecond}, "  1.50s"},
		{"one error", fileItem{status: pipeline.StatusError, errors: 1}, "   0.0ms  1 error"},
		{"load error", fileItem{status: pipeline.StatusError, err: errors.New("open a.keb: no such file\nmore")}, "   0.0ms  open a.keb: no such file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := itemDetail(tt.item); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	got := truncate("a/very/long/path.keb", 10)
	if !strings.HasSuffix(got, "...") || runewidth.StringWidth(got) > 10 {
		t.Fatalf("got %q", got)
	}
}
