package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rxnet/internal/sim"
)

const (
	historyCapacity = 600
	maxSparklines   = 16
)

// StepMsg carries one accepted state. State comes from the stream's pool
// and is returned to it once recorded.
type StepMsg struct {
	State sim.State
	Time  float64
}

// DoneMsg ends a stream. Err is the simulator error, if any.
type DoneMsg struct {
	Err error
}

// Stream runs the simulation in a goroutine and forwards the initial state,
// every n-th accepted step and the final step. The channel is closed after
// the DoneMsg. Cancelling ctx stops the run.
func Stream(ctx context.Context, s *sim.Simulator, x0 sim.State, cfg sim.Config, every int, pool *sim.StatePool) <-chan tea.Msg {
	ch := make(chan tea.Msg, 64)
	every = max(every, 1)

	send := func(msg tea.Msg) bool {
		select {
		case ch <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(ch)
		if !send(StepMsg{State: pool.GetAndCopy(x0), Time: 0}) {
			return
		}

		n := 0
		var last sim.State
		var lastT float64
		err := s.RunWithCallback(ctx, x0, cfg, func(x sim.State, t float64) bool {
			n++
			last, lastT = x, t
			if n%every != 0 {
				return true
			}
			return send(StepMsg{State: pool.GetAndCopy(x), Time: t})
		})
		if err == nil && last != nil && n%every != 0 {
			if !send(StepMsg{State: pool.GetAndCopy(last), Time: lastT}) {
				return
			}
		}
		send(DoneMsg{Err: err})
	}()
	return ch
}

// Live follows a Stream. Only one copy of the model is active at a time,
// as Bubble Tea requires.
type Live struct {
	title    string
	names    []string
	duration float64
	updates  <-chan tea.Msg
	pool     *sim.StatePool
	cancel   context.CancelFunc
	theme    Theme

	times    []float64
	history  [][]float64
	current  []float64
	t        float64
	received int
	selected int
	paused   bool
	waiting  bool
	done     bool
	err      error
	showHelp bool
}

func NewLive(title string, names []string, duration float64, updates <-chan tea.Msg, pool *sim.StatePool, cancel context.CancelFunc) Live {
	history := make([][]float64, len(names))
	for i := range history {
		history[i] = make([]float64, 0, historyCapacity)
	}
	return Live{
		title:    title,
		names:    names,
		duration: duration,
		updates:  updates,
		pool:     pool,
		cancel:   cancel,
		theme:    ThemeCyberpunk,
		times:    make([]float64, 0, historyCapacity),
		history:  history,
		current:  make([]float64, len(names)),
	}
}

// Err returns the simulator error once the stream has finished.
func (m Live) Err() error { return m.err }

func (m Live) wait() tea.Msg {
	msg, ok := <-m.updates
	if !ok {
		return DoneMsg{}
	}
	return msg
}

func (m Live) Init() tea.Cmd {
	return m.wait
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case " ", "space":
			m.paused = !m.paused
			if !m.paused && !m.waiting && !m.done {
				m.waiting = true
				return m, m.wait
			}
		case "tab", "down", "j":
			if len(m.names) > 0 {
				m.selected = (m.selected + 1) % len(m.names)
			}
		case "shift+tab", "up", "k":
			if len(m.names) > 0 {
				m.selected = (m.selected - 1 + len(m.names)) % len(m.names)
			}
		case "t":
			m.theme = NextTheme(m.theme.Name)
		case "?":
			m.showHelp = !m.showHelp
		}
	case StepMsg:
		m.record(msg)
		m.waiting = false
		if !m.paused {
			m.waiting = true
			return m, m.wait
		}
	case DoneMsg:
		m.done = true
		m.waiting = false
		m.err = msg.Err
	}
	return m, nil
}

func (m *Live) record(msg StepMsg) {
	m.received++
	m.t = msg.Time
	m.times = appendBounded(m.times, msg.Time)
	for i := range m.history {
		if i < len(msg.State) {
			m.history[i] = appendBounded(m.history[i], msg.State[i])
			m.current[i] = msg.State[i]
		}
	}
	if m.pool != nil {
		m.pool.Put(msg.State)
	}
}

func appendBounded(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

func (m Live) status() string {
	switch {
	case m.done && m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.done:
		return StatusRunning.Render("DONE")
	case m.paused:
		return StatusPaused.Render("PAUSED")
	default:
		return StatusRunning.Render("RUNNING")
	}
}

func (m Live) View() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "  " + m.status() + "\n\n")

	progress := 0.0
	if m.duration > 0 {
		progress = m.t / m.duration
	}
	s.WriteString(MetricLabel.Render("Time") + ProgressBar(progress, 30) + " " + MetricValue.Render(fmt.Sprintf("%.4g / %.4g", m.t, m.duration)) + "\n")
	s.WriteString(MetricLabel.Render("Samples") + MetricValue.Render(fmt.Sprintf("%d", m.received)) + "\n")
	if m.err != nil {
		s.WriteString(StatusFailed.Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n")

	if len(m.names) > 0 && len(m.history[m.selected]) > 1 {
		name := m.names[m.selected]
		chart := Plot(m.history[m.selected], PlotOptions{Width: 50, Height: 10, Precision: 4, Caption: name, Theme: m.theme})

		canvas := NewCanvas(24, 10)
		other := (m.selected + 1) % len(m.names)
		canvas.Polyline(m.history[m.selected], m.history[other])
		phase := Panel.BorderForeground(m.theme.Muted).Render(
			canvas.String() + Subtle.Render(fmt.Sprintf("%s vs %s", m.names[other], name)))

		s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, chart, "  ", phase) + "\n\n")
	}

	selected := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Primary)
	for i, name := range m.names {
		if i >= maxSparklines {
			s.WriteString(Subtle.Render(fmt.Sprintf("  … %d more", len(m.names)-maxSparklines)) + "\n")
			break
		}
		label := fmt.Sprintf("  %-12s", name)
		if i == m.selected {
			label = selected.Render(fmt.Sprintf("> %-12s", name))
		}
		s.WriteString(label + " " + SparklineChart(m.history[i], 30) + " " + MetricValue.Render(formatValue(m.current[i])) + "\n")
	}

	s.WriteString("\n" + KeyHint.Render("SP:Pause  Tab/J/K:Select  T:Theme  ?:Help  Q:Quit"))
	if m.showHelp {
		help := Panel.Render(strings.Join([]string{
			"Space    Pause/Resume the integration",
			"Tab J K  Select the plotted compound",
			"T        Cycle colour themes (" + m.theme.Name + ")",
			"?        Toggle this help",
			"Q        Quit and cancel the run",
		}, "\n"))
		return help + "\n\n" + s.String()
	}
	return s.String()
}
