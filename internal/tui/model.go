package tui

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Seintian/postoffice/internal/event"
	"github.com/Seintian/postoffice/internal/shm"
)

// maxEventLines bounds the event pane's scrollback.
const maxEventLines = 8

// Source is what the dashboard reads from. The Director implements it.
type Source interface {
	// Snapshot copies the shared block's observable state.
	Snapshot() shm.Snapshot

	// Bus is the event bus the simulation publishes on.
	Bus() *event.Bus
}

// tickMsg drives the periodic snapshot refresh.
type tickMsg time.Time

// eventMsg carries one formatted simulation event into the model.
type eventMsg struct {
	line  string
	crash bool
}

// Model is the Bubbletea model for the dashboard.
type Model struct {
	src     Source
	refresh time.Duration

	snap   shm.Snapshot
	events []eventMsg

	queues table.Model
	seats  table.Model

	width  int
	height int
}

// NewModel builds the dashboard model with empty tables.
func NewModel(src Source, refresh time.Duration) Model {
	queueCols := []table.Column{
		{Title: "Service", Width: 18},
		{Title: "Waiting", Width: 8},
		{Title: "Served", Width: 8},
		{Title: "Last", Width: 8},
	}
	seatCols := []table.Column{
		{Title: "Seat", Width: 5},
		{Title: "State", Width: 8},
		{Title: "Service", Width: 18},
		{Title: "Ticket", Width: 8},
		{Title: "PID", Width: 8},
	}

	ts := table.DefaultStyles()
	ts.Header = ts.Header.Bold(true).Foreground(primaryColor).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(borderColor)
	ts.Selected = lipgloss.NewStyle()

	queues := table.New(table.WithColumns(queueCols), table.WithHeight(shm.NumServices))
	queues.SetStyles(ts)
	seats := table.New(table.WithColumns(seatCols), table.WithHeight(10))
	seats.SetStyles(ts)

	return Model{
		src:     src,
		refresh: refresh,
		queues:  queues,
		seats:   seats,
	}
}

// Init starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles refresh ticks, bus events and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		m.snap = m.src.Snapshot()
		m.queues.SetRows(queueRows(m.snap))
		m.seats.SetRows(seatRows(m.snap))
		return m, m.tick()

	case eventMsg:
		m.events = append(m.events, msg)
		if len(m.events) > maxEventLines {
			m.events = m.events[len(m.events)-maxEventLines:]
		}
		return m, nil
	}
	return m, nil
}

func queueRows(snap shm.Snapshot) []table.Row {
	rows := make([]table.Row, 0, shm.NumServices)
	for _, q := range snap.Queues {
		rows = append(rows, table.Row{
			q.Service.Label(),
			strconv.FormatUint(uint64(q.Waiting), 10),
			strconv.FormatUint(q.Served, 10),
			strconv.FormatUint(q.LastFinished, 10),
		})
	}
	return rows
}

func seatRows(snap shm.Snapshot) []table.Row {
	var rows []table.Row
	for _, s := range snap.Seats {
		if s.State == shm.WorkerOffline {
			continue
		}
		ticket := "-"
		if s.Ticket != 0 {
			ticket = strconv.FormatUint(s.Ticket, 10)
		}
		rows = append(rows, table.Row{
			strconv.Itoa(s.Seat),
			s.State.String(),
			s.Service.Label(),
			ticket,
			strconv.Itoa(s.Pid),
		})
	}
	return rows
}

// View renders the dashboard.
func (m Model) View() string {
	header := m.renderHeader()
	stats := m.renderStats()
	queues := paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		paneTitleStyle.Render("Queues"), m.queues.View()))
	seats := paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		paneTitleStyle.Render("Workers"), m.seats.View()))
	events := m.renderEvents()
	footer := footerStyle.Render("q: quit")

	body := lipgloss.JoinHorizontal(lipgloss.Top, queues, seats)
	return lipgloss.JoinVertical(lipgloss.Left, header, stats, body, events, footer)
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("Post Office")

	var state string
	switch {
	case m.snap.Clock.Day == 0:
		state = statsStyle.Render("starting")
	case !m.snap.ClockActive:
		state = stoppedStyle.Render("stopped")
	default:
		state = clockStyle.Render(m.snap.Clock.String())
	}
	return title + "  " + state
}

func (m Model) renderStats() string {
	s := m.snap.Stats
	return statsStyle.Render(fmt.Sprintf(
		"tickets %d  served %d  unserved %d  visits %d (vip %d)  reassigned %d",
		s.Issued, s.Served, s.Unserved, s.Visits, s.VIPVisits, s.Reassigned,
	))
}

func (m Model) renderEvents() string {
	lines := make([]string, 0, len(m.events)+1)
	lines = append(lines, paneTitleStyle.Render("Events"))
	for _, e := range m.events {
		if e.crash {
			lines = append(lines, crashStyle.Render(e.line))
		} else {
			lines = append(lines, eventStyle.Render(e.line))
		}
	}
	return paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// collector turns bus events into dashboard messages. Registered before
// the program starts so no event between construction and the first
// frame is lost.
type collector struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []eventMsg
}

func (c *collector) publish(e event.Event) {
	msg := formatEvent(e)
	if msg.line == "" {
		return
	}

	c.mu.Lock()
	send := c.send
	if send == nil {
		c.pending = append(c.pending, msg)
	}
	c.mu.Unlock()

	if send != nil {
		send(msg)
	}
}

// attach connects the collector to a running program and flushes
// everything buffered while the program was starting.
func (c *collector) attach(send func(tea.Msg)) {
	c.mu.Lock()
	c.send = send
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, msg := range pending {
		send(msg)
	}
}

func formatEvent(e event.Event) eventMsg {
	switch e := e.(type) {
	case event.DayStartedEvent:
		return eventMsg{line: fmt.Sprintf("day %d started", e.Day)}
	case event.DayEndedEvent:
		return eventMsg{line: fmt.Sprintf("day %d ended: issued %d served %d unserved %d", e.Day, e.Issued, e.Served, e.Unserved)}
	case event.OfficeOpenedEvent:
		return eventMsg{line: fmt.Sprintf("day %d: office opened", e.Day)}
	case event.OfficeClosedEvent:
		return eventMsg{line: fmt.Sprintf("day %d: office closed", e.Day)}
	case event.WorkerReassignedEvent:
		return eventMsg{line: fmt.Sprintf("seat %d reassigned %s -> %s", e.Seat, e.From, e.To)}
	case event.QueueExplodedEvent:
		return eventMsg{line: fmt.Sprintf("queues exploded: %d waiting (threshold %d)", e.TotalWaiting, e.Threshold), crash: true}
	case event.ChildExitedEvent:
		if e.Crashed() {
			return eventMsg{line: fmt.Sprintf("%s (pid %d) crashed: %s %s", e.Role, e.Pid, e.Class, e.Signal), crash: true}
		}
		return eventMsg{line: fmt.Sprintf("%s (pid %d) exited", e.Role, e.Pid)}
	case event.ConfigReloadedEvent:
		return eventMsg{line: "configuration reloaded"}
	case event.SimulationStoppedEvent:
		return eventMsg{line: "simulation stopped: " + e.Reason}
	default:
		return eventMsg{}
	}
}
