package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// defaultRefresh is the snapshot refresh interval when none is
// configured.
const defaultRefresh = 100 * time.Millisecond

// Option adjusts App construction.
type Option func(*App)

// WithRefresh sets the snapshot refresh interval.
func WithRefresh(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.refresh = d
		}
	}
}

// App wraps the Bubbletea program around the dashboard model.
type App struct {
	src     Source
	refresh time.Duration

	mu      sync.Mutex
	program *tea.Program
	done    bool
}

// New creates the dashboard over a snapshot source.
func New(src Source, opts ...Option) *App {
	a := &App{src: src, refresh: defaultRefresh}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run subscribes to the simulation's events and blocks in the terminal
// until the user quits or Quit is called.
func (a *App) Run() error {
	c := &collector{}
	sub := a.src.Bus().SubscribeAll(c.publish)
	defer a.src.Bus().Unsubscribe(sub)

	program := tea.NewProgram(NewModel(a.src, a.refresh), tea.WithAltScreen())

	a.mu.Lock()
	if a.done {
		// Quit already requested; never enter the alt screen.
		a.mu.Unlock()
		return nil
	}
	a.program = program
	a.mu.Unlock()

	c.attach(program.Send)

	_, err := program.Run()
	return err
}

// Quit asks a running dashboard to exit. Safe to call at any time, from
// any goroutine.
func (a *App) Quit() {
	a.mu.Lock()
	program := a.program
	a.done = true
	a.mu.Unlock()

	if program != nil {
		program.Quit()
	}
}
