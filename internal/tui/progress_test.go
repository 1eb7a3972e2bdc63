package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/massflow/internal/grid"
	"github.com/san-kum/massflow/internal/metrics"
	"github.com/san-kum/massflow/internal/sim"
)

func frame(i, n int, elapsed time.Duration, mass float64) frameMsg {
	return frameMsg{ev: sim.FrameEvent{
		Frame:   i,
		Frames:  n,
		Elapsed: elapsed,
		Stats:   metrics.FrameStats{Frame: i, TotalMass: mass},
	}}
}

func TestModelFrames(t *testing.T) {
	m := NewModel(4, nil)

	next, cmd := m.Update(frame(0, 4, time.Second, 10))
	m = next.(Model)
	if cmd != nil {
		t.Error("frame message should not return a command")
	}
	next, _ = m.Update(frame(1, 4, 2*time.Second, 11))
	m = next.(Model)

	if m.done != 2 {
		t.Errorf("expected 2 frames done, got %d", m.done)
	}
	if eta := m.ETA(); eta != 2*time.Second {
		t.Errorf("expected eta 2s, got %v", eta)
	}
	if len(m.masses) != 2 || m.masses[1] != 11 {
		t.Errorf("unexpected mass history %v", m.masses)
	}

	view := m.View()
	for _, want := range []string{"2/4", "50%", "11.00", "ctrl+c"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
}

func TestModelETABounds(t *testing.T) {
	m := NewModel(3, nil)
	if m.ETA() != 0 {
		t.Error("eta should be zero before the first frame")
	}
	m.done, m.elapsed = 3, time.Second
	if m.ETA() != 0 {
		t.Error("eta should be zero when finished")
	}
}

func TestModelCancel(t *testing.T) {
	calls := 0
	m := NewModel(5, func() { calls++ })

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	if cmd != nil {
		t.Error("cancel should wait for the run to stop")
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = next.(Model)

	if calls != 1 {
		t.Errorf("expected cancel once, got %d", calls)
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Error("expected stopping notice")
	}
}

func TestModelDone(t *testing.T) {
	m := NewModel(1, nil)
	next, cmd := m.Update(doneMsg{err: errors.New("disk full")})
	m = next.(Model)

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "disk full") {
		t.Error("expected error in view")
	}
}

func TestModelMassHistoryBounded(t *testing.T) {
	m := NewModel(100, nil)
	for i := 0; i < sparkWidth+10; i++ {
		next, _ := m.Update(frame(i, 100, time.Duration(i+1)*time.Millisecond, float64(i)))
		m = next.(Model)
	}
	if len(m.masses) != sparkWidth {
		t.Errorf("expected %d masses, got %d", sparkWidth, len(m.masses))
	}
	if m.masses[len(m.masses)-1] != float64(sparkWidth+9) {
		t.Errorf("expected newest mass last, got %v", m.masses[len(m.masses)-1])
	}
}

func TestObserverSendsPreview(t *testing.T) {
	d := grid.Dims{W: 4, H: 4}
	density := grid.NewScalar(d)
	density.Fill(1)

	var got []tea.Msg
	o := &Observer{
		send:    func(msg tea.Msg) { got = append(got, msg) },
		density: func() grid.Scalar { return density },
		dims:    d,
	}
	if err := o.OnFrame(sim.FrameEvent{Frame: 0, Frames: 1}); err != nil {
		t.Fatal(err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 message, got %d", len(got))
	}
	fm, ok := got[0].(frameMsg)
	if !ok {
		t.Fatalf("expected frameMsg, got %T", got[0])
	}
	if !strings.ContainsRune(fm.preview, 0x28FF) {
		t.Error("expected a lit preview")
	}
}
