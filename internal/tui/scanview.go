package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	bprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/leadfindr/internal/progress"
	"github.com/user/leadfindr/internal/util"
)

// ScanView renders a running scan's progress live.
type ScanView struct {
	poller      *progress.Poller
	scanID      string
	initialStep int
}

// NewScanView wires the view over a poller that is not yet started;
// the view owns the poller's lifecycle.
func NewScanView(poller *progress.Poller, scanID string, initialStep int) *ScanView {
	return &ScanView{poller: poller, scanID: scanID, initialStep: initialStep}
}

// Run blocks until the scan completes or the user bails out.
func (v *ScanView) Run() error {
	util.SetOutput(io.Discard)
	defer util.SetOutput(nil)
	defer v.poller.Stop()

	p := tea.NewProgram(newScanModel(v))
	_, err := p.Run()
	return err
}

type snapshotMsg struct {
	snap progress.Snapshot
}

type scanDoneMsg struct {
	snap progress.Snapshot
}

type scanModel struct {
	view    *ScanView
	spinner spinner.Model
	bar     bprogress.Model
	updates chan progress.Snapshot
	done    chan progress.Snapshot
	current progress.Snapshot
	width   int
}

func newScanModel(v *ScanView) scanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := scanModel{
		view:    v,
		spinner: s,
		bar:     bprogress.New(bprogress.WithDefaultGradient()),
		updates: make(chan progress.Snapshot, 8),
		done:    make(chan progress.Snapshot, 1),
		current: progress.Snapshot{
			ScanID:  v.scanID,
			Step:    v.initialStep,
			Percent: progress.Percent(v.initialStep),
			Label:   progress.StepLabel(v.initialStep),
		},
	}
	v.poller.OnUpdate(func(snap progress.Snapshot) { m.updates <- snap })
	v.poller.OnDone(func(snap progress.Snapshot) { m.done <- snap })
	return m
}

func (m scanModel) Init() tea.Cmd {
	m.view.poller.Start(context.Background(), m.view.scanID, m.view.initialStep)
	return tea.Batch(m.spinner.Tick, listenSnapshots(m.updates), listenDone(m.done))
}

func listenSnapshots(ch chan progress.Snapshot) tea.Cmd {
	return func() tea.Msg { return snapshotMsg{snap: <-ch} }
}

func listenDone(ch chan progress.Snapshot) tea.Cmd {
	return func() tea.Msg { return scanDoneMsg{snap: <-ch} }
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// Leaving only stops watching; the scan keeps running
			// server-side.
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 12
		if barWidth > 60 {
			barWidth = 60
		}
		if barWidth > 0 {
			m.bar.Width = barWidth
		}

	case snapshotMsg:
		m.current = msg.snap
		return m, listenSnapshots(m.updates)

	case scanDoneMsg:
		m.current = msg.snap
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m scanModel) View() string {
	var sb strings.Builder

	sb.WriteString("\n")
	sb.WriteString(SectionTitleStyle.Render("  Scanning " + m.view.scanID))
	sb.WriteString("\n\n")

	if m.current.Done {
		sb.WriteString("  " + SuccessStyle.Render("✓ "+m.current.Label))
	} else {
		sb.WriteString("  " + m.spinner.View() + " " + m.current.Label)
	}
	sb.WriteString("\n\n")

	sb.WriteString("  " + m.bar.ViewAs(float64(m.current.Percent)/100))
	sb.WriteString("\n")
	sb.WriteString(DimStyle.Render(fmt.Sprintf("  step %d of %d", clampStep(m.current.Step), progress.FinalStep)))
	sb.WriteString("\n\n")
	sb.WriteString(HelpStyle.Render("  q detaches; the scan keeps running"))
	sb.WriteString("\n")
	return sb.String()
}

func clampStep(step int) int {
	if step < 1 {
		return 1
	}
	if step > progress.FinalStep {
		return progress.FinalStep
	}
	return step
}
