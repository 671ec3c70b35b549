package pipeline

import "time"

// Stage describes a compiler pass as shown to the user.
type Stage string

const (
	StageParse    Stage = "parse"
	StageBuild    Stage = "build"
	StageInfer    Stage = "infer"
	StageLower    Stage = "lower"
	StageValidate Stage = "validate"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the file is inside Stage.
	StatusWorking Status = "working"
	// StatusDone indicates the file compiled without errors.
	StatusDone Status = "done"
	// StatusError indicates diagnostics with errors or a failure to load.
	StatusError Status = "error"
)

// Event reports progress for a file (or for the overall run when File is empty).
// Errors and Elapsed are filled on the final event of a file.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Errors  int
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) OnEvent(Event) {}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}
