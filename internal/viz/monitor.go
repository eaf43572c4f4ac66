package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/mcerdsim/internal/sim"
)

type (
	EventMsg sim.Event
	TickMsg  time.Time
	doneMsg  struct{}
)

type row struct {
	label   string
	state   sim.State
	runID   string
	exit    int
	err     error
	started time.Time
	elapsed time.Duration
}

// Monitor shows the state of every job of a batch while it runs.
type Monitor struct {
	title     string
	rows      []row
	events    <-chan sim.Event
	cancel    func()
	now       func() time.Time
	frame     int
	done      bool
	cancelled bool
	hideDone  bool
	width     int
}

func NewMonitor(title string, jobs []sim.Job, events <-chan sim.Event, cancel func()) Monitor {
	rows := make([]row, len(jobs))
	for i, j := range jobs {
		rows[i] = row{label: j.Identity.String()}
	}
	return Monitor{
		title:  title,
		rows:   rows,
		events: events,
		cancel: cancel,
		now:    time.Now,
		width:  80,
	}
}

func (m Monitor) Init() tea.Cmd {
	return tea.Batch(waitEvent(m.events), tick())
}

func waitEvent(events <-chan sim.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return EventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.done && m.cancel != nil {
				m.cancel()
				m.cancelled = true
				return m, nil
			}
			return m, tea.Quit
		case "d":
			m.hideDone = !m.hideDone
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case EventMsg:
		m.apply(sim.Event(msg))
		return m, waitEvent(m.events)
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case TickMsg:
		m.frame++
		for i := range m.rows {
			if m.rows[i].state == sim.StateRunning {
				m.rows[i].elapsed = m.now().Sub(m.rows[i].started)
			}
		}
		if !m.done {
			return m, tick()
		}
	}
	return m, nil
}

func (m *Monitor) apply(ev sim.Event) {
	if ev.Index < 0 || ev.Index >= len(m.rows) {
		return
	}
	r := &m.rows[ev.Index]
	r.state = ev.State
	if ev.RunID != "" {
		r.runID = ev.RunID
	}
	if ev.State == sim.StateRunning {
		r.started = m.now()
	}
	if ev.Result != nil {
		r.exit = ev.Result.ExitCode
		r.elapsed = ev.Result.Duration()
	}
	r.err = ev.Err
}

// Counts returns how many jobs are in each state.
func (m Monitor) Counts() map[sim.State]int {
	counts := make(map[sim.State]int)
	for _, r := range m.rows {
		counts[r.state]++
	}
	return counts
}

func (m Monitor) View() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(m.title))
	b.WriteString("\n\n")

	for _, r := range m.rows {
		if m.hideDone && r.state.Final() {
			continue
		}
		mark := " "
		if r.state == sim.StateRunning {
			mark = Spinner(m.frame)
		}
		line := fmt.Sprintf("%s %-28s %s", mark, r.label, stateStyle(r.state).Render(fmt.Sprintf("%-9s", r.state)))
		if r.elapsed > 0 {
			line += " " + Subtle.Render(r.elapsed.Round(100*time.Millisecond).String())
		}
		if r.runID != "" && len(r.runID) >= 8 {
			line += " " + Subtle.Render(r.runID[:8])
		}
		if r.state == sim.StateFailed && r.exit != 0 {
			line += " " + StatusFailed.Render(fmt.Sprintf("exit %d", r.exit))
		}
		if r.state == sim.StateFailed && r.err != nil {
			line += " " + StatusFailed.Render(truncate(r.err.Error(), max(m.width-50, 20)))
		}
		b.WriteString(line + "\n")
	}

	counts := m.Counts()
	finished := counts[sim.StateCompleted] + counts[sim.StateFailed] + counts[sim.StateCancelled]
	total := len(m.rows)
	percent := 0.0
	if total > 0 {
		percent = float64(finished) / float64(total)
	}

	b.WriteString("\n")
	b.WriteString(ProgressBar(percent, 30))
	b.WriteString(fmt.Sprintf(" %d/%d  ", finished, total))
	b.WriteString(StatusCompleted.Render(fmt.Sprintf("%d ok", counts[sim.StateCompleted])))
	b.WriteString("  ")
	b.WriteString(StatusFailed.Render(fmt.Sprintf("%d failed", counts[sim.StateFailed])))
	b.WriteString("\n\n")

	switch {
	case m.done:
		b.WriteString(Subtle.Render("batch finished"))
	case m.cancelled:
		b.WriteString(StatusCancelled.Render("cancelling..."))
	default:
		b.WriteString(KeyHint.Render("q cancel • d toggle finished"))
	}
	b.WriteString("\n")
	return b.String()
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// RunMonitored runs the batch behind a Monitor and returns once both the
// batch and the terminal program have finished.
func RunMonitored(ctx context.Context, title string, b *sim.Batch) ([]sim.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// three events per job at most, so sends never block
	events := make(chan sim.Event, 3*len(b.Jobs()))
	b.OnEvent(func(ev sim.Event) { events <- ev })

	type outcome struct {
		results []sim.BatchResult
		err     error
	}
	finished := make(chan outcome, 1)
	go func() {
		results, err := b.Run(ctx)
		close(events)
		finished <- outcome{results, err}
	}()

	p := tea.NewProgram(NewMonitor(title, b.Jobs(), events, cancel))
	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return nil, fmt.Errorf("monitor: %w", err)
	}
	out := <-finished
	return out.results, out.err
}
