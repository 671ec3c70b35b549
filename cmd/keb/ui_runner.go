package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"keb/internal/pipeline"
	"keb/internal/ui"
)

type checkOutcome struct {
	results []pipeline.FileResult
	err     error
}

func runCheckWithUI(ctx context.Context, title string, files []string, req pipeline.Request) ([]pipeline.FileResult, error) {
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		req.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.CheckFiles(ctx, files, req)
		outcomeCh <- checkOutcome{results: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// the model stops reading when it fails; keep the workers unblocked
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
