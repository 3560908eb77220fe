// Package tui provides the terminal interface: the business browser
// with its list and map views, and the live scan progress screen.
package tui

import (
	"context"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/leadfindr/internal/fetch"
	"github.com/user/leadfindr/internal/filter"
	"github.com/user/leadfindr/internal/present"
	"github.com/user/leadfindr/internal/util"
)

// App is the business browser application. The filter store rides the
// app context, so every layer resolves the same store and a miswired
// caller fails loudly at startup.
type App struct {
	client     fetch.API
	config     *util.Config
	ctx        context.Context
	dispatcher *fetch.Dispatcher
}

// NewApp wires the browser over an authenticated API client. The
// filter store starts from the given criteria, so commands can open
// the browser pre-scoped to a scan or a city.
func NewApp(client fetch.API, cfg *util.Config, initial filter.Criteria) *App {
	store := filter.NewStore()
	store.Set(initial)
	return &App{
		client:     client,
		config:     cfg,
		ctx:        filter.WithStore(context.Background(), store),
		dispatcher: fetch.NewDispatcher(client),
	}
}

// Run starts the browser. Logging is silenced for the duration so the
// alt screen stays clean.
func (a *App) Run() error {
	util.SetOutput(io.Discard)

	store := filter.FromContext(a.ctx)
	var changes int
	unsub := store.Subscribe(func(filter.Criteria) { changes++ })

	p := tea.NewProgram(newBrowserModel(a), tea.WithAltScreen())
	_, err := p.Run()

	unsub()
	util.SetOutput(nil)
	util.Debug("browser session closed after %d filter changes", changes)
	return err
}

// Messages
type resultsMsg struct {
	env fetch.Envelope
}

type fetchErrMsg struct {
	err error
}

type browserModel struct {
	app       *Browser
	spinner   spinner.Model
	loading   bool
	ready     bool
	width     int
	height    int
	statusErr error
	cursor    int
}

// Browser bundles the moving parts the model needs. Results arrive
// through channels because the dispatcher applies them from its own
// goroutine; the model re-arms a listener command after every message.
type Browser struct {
	ctx        context.Context
	store      *filter.Store
	dispatcher *fetch.Dispatcher
	presenter  *present.Presenter
	results    chan fetch.Envelope
	errs       chan error
}

func newBrowserModel(a *App) browserModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	b := &Browser{
		ctx:        a.ctx,
		store:      filter.FromContext(a.ctx),
		dispatcher: a.dispatcher,
		presenter:  present.NewPresenter(a.config.PageSize),
		results:    make(chan fetch.Envelope, 1),
		errs:       make(chan error, 1),
	}
	b.dispatcher.OnResults(func(env fetch.Envelope) { b.results <- env })
	b.dispatcher.OnError(func(err error) {
		select {
		case b.errs <- err:
		default:
		}
	})

	return browserModel{app: b, spinner: s, loading: true}
}

func (m browserModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.dispatch(),
		listenResults(m.app.results),
		listenErrs(m.app.errs),
	)
}

// dispatch issues a fetch for the current criteria and page.
func (m browserModel) dispatch() tea.Cmd {
	criteria := m.app.store.Get()
	req := fetch.Request{
		Mode:     fetch.ModeFor(criteria),
		Criteria: criteria,
		Page:     m.app.presenter.Page(),
		PageSize: m.app.presenter.PageSize(),
	}
	d := m.app.dispatcher
	ctx := m.app.ctx
	return func() tea.Msg {
		if err := d.Dispatch(ctx, req); err != nil {
			return fetchErrMsg{err}
		}
		return nil
	}
}

func listenResults(ch chan fetch.Envelope) tea.Cmd {
	return func() tea.Msg {
		return resultsMsg{env: <-ch}
	}
}

func listenErrs(ch chan error) tea.Cmd {
	return func() tea.Msg {
		return fetchErrMsg{err: <-ch}
	}
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case resultsMsg:
		m.ready = true
		m.loading = false
		m.statusErr = nil
		m.app.presenter.Apply(msg.env)
		m.clampCursor()
		return m, listenResults(m.app.results)

	case fetchErrMsg:
		m.loading = false
		if msg.err != nil {
			m.statusErr = msg.err
		}
		return m, listenErrs(m.app.errs)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m browserModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit

	case "r":
		m.loading = true
		return m, m.dispatch()

	case "v":
		m.app.store.Update(func(c *filter.Criteria) {
			if c.ViewMode == filter.ViewMap {
				c.ViewMode = filter.ViewList
			} else {
				c.ViewMode = filter.ViewMap
			}
		})
		return m, nil

	case "w":
		return m.mutateAndRefetch(func(c *filter.Criteria) {
			c.HasWebsite = c.HasWebsite.Cycle()
		})

	case "s":
		return m.mutateAndRefetch(func(c *filter.Criteria) {
			c.IsSecure = c.IsSecure.Cycle()
		})

	case "c":
		m.app.store.ClearSelection()
		m.app.presenter.Reset()
		m.cursor = 0
		m.loading = true
		return m, m.dispatch()

	case "n", "right":
		if m.app.presenter.Next() {
			m.cursor = 0
			m.loading = true
			return m, m.dispatch()
		}
		return m, nil

	case "p", "left":
		if m.app.presenter.Prev() {
			m.cursor = 0
			m.loading = true
			return m, m.dispatch()
		}
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		m.cursor++
		m.clampCursor()
		return m, nil
	}

	return m, nil
}

// mutateAndRefetch applies a criteria change, rewinds to page 1 and
// issues a fresh dispatch. The staleness guard makes rapid key presses
// safe: only the newest fetch lands.
func (m browserModel) mutateAndRefetch(mutate func(*filter.Criteria)) (tea.Model, tea.Cmd) {
	m.app.store.Update(mutate)
	m.app.presenter.Reset()
	m.cursor = 0
	m.loading = true
	return m, m.dispatch()
}

func (m *browserModel) clampCursor() {
	rows := len(m.app.presenter.ListRows())
	if rows == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= rows {
		m.cursor = rows - 1
	}
}

func (m browserModel) View() string {
	if !m.ready {
		if m.statusErr != nil {
			return ErrorStyle.Render("Error: " + m.statusErr.Error())
		}
		return LoadingStyle.Render(m.spinner.View() + " Loading businesses...")
	}

	criteria := m.app.store.Get()
	if criteria.ViewMode == filter.ViewMap {
		return renderMapView(m, criteria)
	}
	return renderListView(m, criteria)
}
