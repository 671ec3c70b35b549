package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"keb/internal/pipeline"
)

// stageSteps lists the passes of one file in order; a working file counts as
// half way through its current pass.
var stageSteps = []struct {
	stage pipeline.Stage
	label string
}{
	{pipeline.StageParse, "parsing"},
	{pipeline.StageBuild, "building"},
	{pipeline.StageInfer, "inferring"},
	{pipeline.StageLower, "lowering"},
	{pipeline.StageValidate, "validating"},
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	queuedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	workingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

const (
	statusColumn  = 12
	elapsedColumn = 10
)

type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	prog    progress.Model
	items   []fileItem
	index   map[string]int
	width   int
	done    bool
}

type fileItem struct {
	path    string
	status  pipeline.Status
	stage   pipeline.Stage
	errors  int
	elapsed time.Duration
	err     error
}

// finished reports whether no more events are expected for the file.
func (it fileItem) finished() bool {
	return it.status == pipeline.StatusDone || it.status == pipeline.StatusError
}

// label is the status column text.
func (it fileItem) label() string {
	switch it.status {
	case pipeline.StatusWorking:
		if l := stageLabel(it.stage); l != "" {
			return l
		}
		return "working"
	case "":
		return string(pipeline.StatusQueued)
	}
	return string(it.status)
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders the progress of
// pipeline.CheckFiles. The model quits when events is closed.
func NewProgressModel(title string, files []string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = workingStyle

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]fileItem, len(files))
	index := make(map[string]int, len(files))
	for i, file := range files {
		items[i] = fileItem{path: file, status: pipeline.StatusQueued}
		index[file] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(pipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	if len(m.items) == 0 {
		return ""
	}
	finished, failed := m.counts()
	header := fmt.Sprintf("%s %d/%d", m.title, finished, len(m.items))
	if failed > 0 {
		header += fmt.Sprintf(", %d with errors", failed)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	nameWidth := max(m.width-statusColumn-elapsedColumn-6, 20)
	for _, it := range m.items {
		status := statusStyle(it).Render(fmt.Sprintf("%*s", statusColumn, it.label()))
		fmt.Fprintf(&b, "  %s %s", status, padRight(truncate(it.path, nameWidth), nameWidth))
		if detail := itemDetail(it); detail != "" {
			b.WriteString(" ")
			b.WriteString(dimStyle.Render(detail))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) counts() (finished, failed int) {
	for _, it := range m.items {
		if it.finished() {
			finished++
		}
		if it.status == pipeline.StatusError {
			failed++
		}
	}
	return finished, failed
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	idx, ok := m.index[ev.File]
	if !ok {
		return nil
	}
	it := &m.items[idx]
	// a late working event must not reopen a finished file
	if it.finished() && ev.Status == pipeline.StatusWorking {
		return nil
	}
	it.status = ev.Status
	if ev.Stage != "" {
		it.stage = ev.Stage
	}
	if it.finished() {
		it.errors = ev.Errors
		it.elapsed = ev.Elapsed
		it.err = ev.Err
	}
	return m.prog.SetPercent(m.percent())
}

// percent counts finished files as whole and others by their stage.
func (m *progressModel) percent() float64 {
	if len(m.items) == 0 {
		return 0
	}
	total := 0.0
	for _, it := range m.items {
		total += itemProgress(it)
	}
	return total / float64(len(m.items))
}

func itemProgress(it fileItem) float64 {
	if it.finished() {
		return 1
	}
	if it.status != pipeline.StatusWorking {
		return 0
	}
	for i, step := range stageSteps {
		if step.stage == it.stage {
			return (float64(i) + 0.5) / float64(len(stageSteps))
		}
	}
	return 0
}

func stageLabel(stage pipeline.Stage) string {
	for _, step := range stageSteps {
		if step.stage == stage {
			return step.label
		}
	}
	return ""
}

func statusStyle(it fileItem) lipgloss.Style {
	switch it.status {
	case pipeline.StatusDone:
		return doneStyle
	case pipeline.StatusError:
		return errorStyle
	case pipeline.StatusWorking:
		return workingStyle
	}
	return queuedStyle
}

// itemDetail is the trailing column: time for finished files, then the load
// error or the number of errors.
func itemDetail(it fileItem) string {
	if !it.finished() {
		return ""
	}
	parts := []string{formatElapsed(it.elapsed)}
	switch {
	case it.err != nil:
		msg, _, _ := strings.Cut(it.err.Error(), "\n")
		parts = append(parts, msg)
	case it.errors == 1:
		parts = append(parts, "1 error")
	case it.errors > 1:
		parts = append(parts, fmt.Sprintf("%d errors", it.errors))
	}
	return strings.Join(parts, "  ")
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6.1fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%6.2fs", d.Seconds())
}

func padRight(value string, width int) string {
	if w := runewidth.StringWidth(value); w < width {
		return value + strings.Repeat(" ", width-w)
	}
	return value
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
