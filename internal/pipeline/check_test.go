package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"keb/internal/pipeline"
)

type recordingSink struct {
	mu     sync.Mutex
	events []pipeline.Event
}

func (s *recordingSink) OnEvent(ev pipeline.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) final(file string) pipeline.Event {
	var last pipeline.Event
	for _, ev := range s.events {
		if ev.File == file {
			last = ev
		}
	}
	return last
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.keb", "let main = () => print 1;")
	bad := writeFile(t, dir, "bad.keb", "let main = () => print missing;")
	gone := filepath.Join(dir, "gone.keb")

	sink := &recordingSink{}
	files := []string{good, bad, gone}
	results, err := pipeline.CheckFiles(context.Background(), files, pipeline.Request{Jobs: 2, Progress: sink})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.Path != files[i] {
			t.Fatalf("result %d is for %q", i, r.Path)
		}
	}
	if results[0].Failed() || !results[1].Failed() || !results[2].Failed() {
		t.Fatalf("failed = %v %v %v", results[0].Failed(), results[1].Failed(), results[2].Failed())
	}
	if results[2].Err == nil {
		t.Fatal("missing file must report a load error")
	}

	if sink.final(good).Status != pipeline.StatusDone || sink.final(bad).Status != pipeline.StatusError ||
		sink.final(gone).Status != pipeline.StatusError {
		t.Fatalf("events = %+v", sink.events)
	}
	if n := sink.final(bad).Errors; n != 1 {
		t.Fatalf("errors for bad.keb = %d, want 1", n)
	}
	if n := sink.final(good).Errors; n != 0 {
		t.Fatalf("errors for good.keb = %d, want 0", n)
	}
	var stages []pipeline.Stage
	for _, ev := range sink.events {
		if ev.File == good && ev.Status == pipeline.StatusWorking {
			stages = append(stages, ev.Stage)
		}
	}
	want := []pipeline.Stage{pipeline.StageParse, pipeline.StageBuild, pipeline.StageInfer,
		pipeline.StageLower, pipeline.StageValidate}
	if !slices.Equal(stages, want) {
		t.Fatalf("stages = %v", stages)
	}
}

func TestCheckFilesCanceled(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "a.keb", "let main = () => print 1;")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pipeline.CheckFiles(ctx, []string{file}, pipeline.Request{}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan pipeline.Event, 1)
	pipeline.ChannelSink{Ch: ch}.OnEvent(pipeline.Event{File: "x", Status: pipeline.StatusDone})
	if ev := <-ch; ev.File != "x" {
		t.Fatalf("event = %+v", ev)
	}
	pipeline.ChannelSink{}.OnEvent(pipeline.Event{})
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "src/a.keb", "")
	b := writeFile(t, dir, "src/nested/b.keb", "")
	writeFile(t, dir, "src/notes.txt", "")
	explicit := writeFile(t, dir, "script.txt", "")

	got, err := pipeline.CollectFiles([]string{filepath.Join(dir, "src"), explicit, a})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{a, b, explicit}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, err := pipeline.CollectFiles([]string{filepath.Join(dir, "none")}); err == nil {
		t.Fatal("expected error for a missing path")
	}
}
