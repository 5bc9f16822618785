package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultInterval is how often /get_counts is polled.
const DefaultInterval = 500 * time.Millisecond

const maxLog = 6

// Source is the server API used by the monitor. *Client satisfies it.
type Source interface {
	Counts(ctx context.Context) (Snapshot, error)
	Stop(ctx context.Context) error
}

type snapshotMsg struct {
	Snap Snapshot
	Err  error
	loop bool // reschedules the next tick
}

type tickMsg time.Time

type stopDoneMsg struct{ Err error }

// Model is the Bubble Tea model of the monitor.
type Model struct {
	source   Source
	feed     *EventFeed
	interval time.Duration
	keys     KeyMap
	bar      progress.Model

	snap    Snapshot
	err     error
	updated time.Time
	live    bool
	log     []string
	width   int
}

// New creates a monitor polling source. feed may be nil to disable live events.
func New(source Source, feed *EventFeed, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Model{
		source:   source,
		feed:     feed,
		interval: interval,
		keys:     DefaultKeyMap(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.poll(true)}
	if m.feed != nil {
		cmds = append(cmds, m.feed.Connect())
	}
	return tea.Batch(cmds...)
}

func (m Model) poll(loop bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		snap, err := m.source.Counts(ctx)
		return snapshotMsg{Snap: snap, Err: err, loop: loop}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) stop() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return stopDoneMsg{Err: m.source.Stop(ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Stop):
			return m, m.stop()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.poll(false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, min(60, msg.Width-20))

	case snapshotMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.snap = msg.Snap
			m.updated = time.Now()
		}
		if !msg.loop {
			return m, nil
		}
		return m, m.tick()

	case tickMsg:
		return m, m.poll(true)

	case stopDoneMsg:
		if msg.Err != nil {
			m.appendLog(wrongStyle.Render("stop failed: " + msg.Err.Error()))
		} else {
			m.appendLog("stop requested")
		}
		return m, m.poll(false)

	case eventsConnectedMsg:
		m.live = true
		return m, m.feed.Next(msg.conn)

	case eventsDisconnectedMsg:
		m.live = false
		if m.feed != nil {
			return m, m.feed.Reconnect()
		}

	case eventMsg:
		m.appendLog(describeEvent(msg.Event))
		if m.feed == nil || msg.conn == nil {
			return m, m.poll(false)
		}
		return m, tea.Batch(m.poll(false), m.feed.Next(msg.conn))
	}
	return m, nil
}

func (m *Model) appendLog(line string) {
	stamp := time.Now().Format("15:04:05")
	m.log = append(m.log, dimStyle.Render(stamp)+" "+line)
	if len(m.log) > maxLog {
		m.log = m.log[len(m.log)-maxLog:]
	}
}

func describeEvent(ev Event) string {
	var p eventPayload
	_ = json.Unmarshal(ev.Payload, &p)
	switch ev.Type {
	case "count_changed":
		return correctStyle.Render(fmt.Sprintf("+1 %s (%d/%d)", p.Task, p.Count, p.MaxCount))
	case "session_ended":
		line := fmt.Sprintf("%s ended: %s at %d/%d", p.Task, p.Reason, p.Count, p.MaxCount)
		if p.Error != "" {
			return wrongStyle.Render(line + " (" + p.Error + ")")
		}
		if p.Reason == "completed" {
			return doneStyle.Render(line)
		}
		return line
	case "session_started":
		return "started " + p.Task
	default:
		return ev.Type
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("formcheck monitor"))
	if m.live {
		b.WriteString(" " + correctStyle.Render("● live"))
	}
	b.WriteString("\n\n")

	b.WriteString(panelStyle.Render(m.sessionView()))
	b.WriteString("\n")
	if !m.updated.IsZero() {
		b.WriteString(dimStyle.Render("updated "+m.updated.Format("15:04:05")) + "\n")
	}

	if len(m.log) > 0 {
		b.WriteString("\n" + strings.Join(m.log, "\n") + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + wrongStyle.Render("server unreachable: "+m.err.Error()) + "\n")
	}

	help := []string{}
	for _, k := range []key.Binding{m.keys.Stop, m.keys.Refresh, m.keys.Quit} {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString("\n" + dimStyle.Render(strings.Join(help, " · ")))
	return b.String()
}

func (m Model) sessionView() string {
	if !m.snap.Success {
		msg := m.snap.Message
		if msg == "" {
			msg = "No active session"
		}
		return dimStyle.Render(msg)
	}

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	percent := 0.0
	if m.snap.MaxCount > 0 {
		percent = float64(m.snap.Count) / float64(m.snap.MaxCount)
	}

	form := wrongStyle.Render("adjust")
	if m.snap.Correct {
		form = correctStyle.Render("correct")
	}
	state := m.snap.State
	if state == "completed" {
		state = doneStyle.Render(state)
	}

	lines := []string{
		row("Task", m.snap.Task),
		row("State", state),
		row("Count", fmt.Sprintf("%d / %d", m.snap.Count, m.snap.MaxCount)),
		row("", m.bar.ViewAs(percent)),
		row("Angle", fmt.Sprintf("%.1f°", m.snap.Angle)),
		row("Form", form),
	}

	if others := otherTasks(m.snap.Counts, m.snap.Task); others != "" {
		lines = append(lines, row("Other", others))
	}
	return strings.Join(lines, "\n")
}

// otherTasks lists the counts of tasks other than current, keyed "email:game:task".
func otherTasks(counts map[string]int, current string) string {
	var parts []string
	for k, n := range counts {
		task := k
		if i := strings.LastIndex(k, ":"); i >= 0 {
			task = k[i+1:]
		}
		if task == current {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", task, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
