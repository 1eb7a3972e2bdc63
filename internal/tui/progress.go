package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/massflow/internal/grid"
	"github.com/san-kum/massflow/internal/metrics"
	"github.com/san-kum/massflow/internal/sim"
	"github.com/san-kum/massflow/internal/viz"
)

const (
	barWidth      = 40
	sparkWidth    = 40
	previewWidth  = 40
	previewHeight = 10
	// previewThreshold is the density above which a preview dot is lit.
	previewThreshold = 0.25
)

type frameMsg struct {
	ev      sim.FrameEvent
	preview string
}

type doneMsg struct {
	res *sim.Result
	err error
}

// Model is the progress view shown while frames are rendered.
type Model struct {
	frames     int
	done       int
	elapsed    time.Duration
	last       metrics.FrameStats
	masses     []float64
	preview    string
	cancel     context.CancelFunc
	cancelling bool
	finished   bool
	err        error
}

func NewModel(frames int, cancel context.CancelFunc) Model {
	return Model{
		frames: frames,
		cancel: cancel,
		masses: make([]float64, 0, sparkWidth),
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.cancelling && m.cancel != nil {
				m.cancel()
			}
			m.cancelling = true
		}
	case frameMsg:
		m.done = msg.ev.Frame + 1
		m.elapsed = msg.ev.Elapsed
		m.last = msg.ev.Stats
		m.masses = append(m.masses, msg.ev.Stats.TotalMass)
		if len(m.masses) > sparkWidth {
			m.masses = m.masses[1:]
		}
		if msg.preview != "" {
			m.preview = msg.preview
		}
	case doneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// ETA extrapolates the remaining time from the mean frame time so far.
func (m Model) ETA() time.Duration {
	if m.done == 0 || m.done >= m.frames {
		return 0
	}
	per := m.elapsed / time.Duration(m.done)
	return per * time.Duration(m.frames-m.done)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(viz.Title.Render("massflow") + viz.Subtle.Render("  rendering frames") + "\n\n")

	percent := 0.0
	if m.frames > 0 {
		percent = float64(m.done) / float64(m.frames)
	}
	fmt.Fprintf(&b, "%s %3.0f%%\n\n", viz.ProgressBar(percent, barWidth), percent*100)

	b.WriteString(viz.Row("frame", fmt.Sprintf("%d/%d", m.done, m.frames)) + "\n")
	b.WriteString(viz.Row("elapsed", m.elapsed.Round(time.Millisecond).String()) + "\n")
	b.WriteString(viz.Row("eta", m.ETA().Round(time.Second).String()) + "\n")
	if m.done > 0 {
		b.WriteString(viz.Row("mass", fmt.Sprintf("%.2f", m.last.TotalMass)) + "\n")
		b.WriteString(viz.Row("range", fmt.Sprintf("%.3f .. %.3f", m.last.Min, m.last.Max)) + "\n")
		b.WriteString(viz.Row("trend", viz.Sparkline(m.masses, sparkWidth)) + "\n")
	}

	if m.preview != "" {
		b.WriteString("\n" + viz.Panel.Render(strings.TrimSuffix(m.preview, "\n")) + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.finished && m.err != nil:
		b.WriteString(viz.Error(m.err) + "\n")
	case m.finished:
		b.WriteString(viz.Success("done") + "\n")
	case m.cancelling:
		b.WriteString(viz.Warn("stopping after the current frame") + "\n")
	default:
		b.WriteString(viz.KeyHint.Render("ctrl+c to stop") + "\n")
	}
	return b.String()
}

// Observer forwards frame events to a running program.
type Observer struct {
	send    func(tea.Msg)
	density func() grid.Scalar
	dims    grid.Dims
}

// NewObserver returns an observer that also sends a density preview taken
// from r after every frame.
func NewObserver(send func(tea.Msg), r *sim.Runner) *Observer {
	return &Observer{send: send, density: r.Density, dims: r.Dims()}
}

func (o *Observer) OnFrame(ev sim.FrameEvent) error {
	msg := frameMsg{ev: ev}
	if o.density != nil {
		msg.preview = viz.Preview(o.density(), o.dims, previewWidth, previewHeight, previewThreshold)
	}
	o.send(msg)
	return nil
}

// Run drives r while showing the progress view. Quitting the view cancels
// the run between frames.
func Run(ctx context.Context, r *sim.Runner) (*sim.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(r.Frames(), cancel))
	r.AddObserver(NewObserver(p.Send, r))

	done := make(chan doneMsg, 1)
	go func() {
		res, err := r.Run(ctx)
		msg := doneMsg{res: res, err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view: %w", err)
	}
	msg := <-done
	return msg.res, msg.err
}
