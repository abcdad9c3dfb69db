// Package ui renders a live terminal meter for the speech queue: a volume
// bar driven by the smoothed envelope plus a speaking/idle badge driven by
// the activity callbacks. It stands in for the avatar a real frontend
// would animate.
package ui

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/avatarsync/speech"
)

const meterRefresh = 50 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	speakingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("42")).
			Padding(0, 1)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

// activityMsg carries an observer event into the bubbletea loop.
type activityMsg int

const (
	msgStart activityMsg = iota
	msgActive
	msgSilent
	msgEnd
)

// tickMsg drives the volume poll.
type tickMsg time.Time

// Model is the meter's bubbletea model.
type Model struct {
	queue    *speech.Queue
	bar      progress.Model
	volume   float64
	speaking bool
	playing  bool
	played   int
	quitting bool
}

// NewModel creates a meter for the given queue.
func NewModel(q *speech.Queue) Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40
	bar.ShowPercentage = false
	return Model{queue: q, bar: bar}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(meterRefresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "s":
			m.queue.Stop()
			return m, nil
		}

	case tickMsg:
		m.volume = m.queue.CurrentVolume()
		return m, tick()

	case activityMsg:
		switch msg {
		case msgStart:
			m.playing = true
		case msgActive:
			m.speaking = true
		case msgSilent:
			m.speaking = false
		case msgEnd:
			m.playing = false
			m.speaking = false
			m.played++
		}
		return m, nil

	case tea.WindowSizeMsg:
		w := msg.Width - 10
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.bar.Width = w
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	badge := idleStyle.Render("IDLE")
	if m.speaking {
		badge = speakingStyle.Render("SPEAKING")
	}

	status := "waiting"
	if m.playing {
		status = "playing"
	}

	return fmt.Sprintf("%s\n\n%s  %s\n%s\n\n%s\n",
		titleStyle.Render("avatarsync"),
		badge,
		statusStyle.Render(fmt.Sprintf("%s, %d done", status, m.played)),
		m.bar.ViewAs(m.volume),
		helpStyle.Render("s: stop current  q: quit"),
	)
}

// Observer forwards queue events into the bubbletea program. It is created
// before the program exists (the queue needs it at construction) and bound
// once the program is built; events arriving before Bind are dropped.
// Program.Send does not block, so the 100Hz monitor loop is never stalled
// by rendering.
type Observer struct {
	p atomic.Pointer[tea.Program]
}

// NewObserver creates an unbound meter observer.
func NewObserver() *Observer {
	return &Observer{}
}

// Bind attaches the observer to a running program.
func (o *Observer) Bind(p *tea.Program) {
	o.p.Store(p)
}

func (o *Observer) send(msg activityMsg) {
	if p := o.p.Load(); p != nil {
		p.Send(msg)
	}
}

// OnStart implements speech.Observer.
func (o *Observer) OnStart() { o.send(msgStart) }

// OnActive implements speech.Observer.
func (o *Observer) OnActive() { o.send(msgActive) }

// OnSilent implements speech.Observer.
func (o *Observer) OnSilent() { o.send(msgSilent) }

// OnEnd implements speech.Observer.
func (o *Observer) OnEnd() { o.send(msgEnd) }

// NewProgram builds the meter program for a queue.
func NewProgram(q *speech.Queue) *tea.Program {
	return tea.NewProgram(NewModel(q))
}
