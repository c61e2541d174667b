package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cadence/internal/app"
	"github.com/tessro/cadence/internal/tui/components"
	"github.com/tessro/cadence/internal/tui/styles"
)

const (
	// commandTimeout covers engine activation and one restart.
	commandTimeout = 30 * time.Second
	seekStep       = 10 * time.Second
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelQueue
	PanelDevices
	panelCount
)

// Controller is what the UI drives.
type Controller interface {
	View() app.View
	IsLiked(uri string) bool
	LocalDeviceName() string

	TogglePlayback(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, delta time.Duration) error
	VolumeUp(ctx context.Context) error
	VolumeDown(ctx context.Context) error
	ToggleShuffle(ctx context.Context) error
	CycleRepeat(ctx context.Context) error
	PlayContext(ctx context.Context, uri, offsetURI string) error
	SelectDevice(ctx context.Context, id string) error
	ToggleLiked(ctx context.Context, uri string) error
	RemoveFromQueue(uri string)
	RefreshQueue()
	SetQueueVisible(visible bool)
	RefreshDevices()
	DismissError()
}

// Model is the main TUI model
type Model struct {
	ctl     Controller
	refresh time.Duration
	keys    keyMap
	help    help.Model

	width        int
	height       int
	focusedPanel Panel

	view  app.View
	local string

	nowPlaying  *components.NowPlaying
	queueView   *components.Queue
	devicesView *components.Devices

	showHelp  bool
	prompting bool
	prompt    textinput.Model

	quitting bool
}

// NewModel creates a new TUI model that redraws every refresh.
func NewModel(ctl Controller, refresh time.Duration) Model {
	if refresh <= 0 {
		refresh = 50 * time.Millisecond
	}
	ti := textinput.New()
	ti.Placeholder = "spotify:album:... or spotify:track:..."
	ti.CharLimit = 200
	ti.Width = 50

	return Model{
		ctl:         ctl,
		refresh:     refresh,
		keys:        defaultKeys(),
		help:        help.New(),
		view:        ctl.View(),
		local:       ctl.LocalDeviceName(),
		nowPlaying:  components.NewNowPlaying(),
		queueView:   components.NewQueue(),
		devicesView: components.NewDevices(),
		prompt:      ti,
	}
}

type tickMsg time.Time

// actionDoneMsg redraws right after a command instead of waiting a tick.
type actionDoneMsg struct{}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// run executes fn off the UI goroutine. Failures are raised into the
// controller's error slot, which the status bar shows.
func (m Model) run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		_ = fn(ctx)
		return actionDoneMsg{}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.refreshView()
		return m, m.tick()

	case actionDoneMsg:
		m.refreshView()
		return m, nil
	}

	if m.prompting {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) refreshView() {
	m.view = m.ctl.View()
	if m.local == "" {
		m.local = m.ctl.LocalDeviceName()
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
			m.ctl.SetQueueVisible(true)
		}
		return m, nil
	}

	if m.prompting {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.ctl.SetQueueVisible(false)
		return m, nil
	case key.Matches(msg, m.keys.NextPanel):
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil
	case key.Matches(msg, m.keys.PrevPanel):
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil
	case key.Matches(msg, m.keys.Dismiss):
		m.ctl.DismissError()
		m.refreshView()
		return m, nil
	case key.Matches(msg, m.keys.Open):
		m.prompting = true
		m.ctl.SetQueueVisible(false)
		m.prompt.SetValue("")
		m.prompt.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Toggle):
		return m, m.run(m.ctl.TogglePlayback)
	case key.Matches(msg, m.keys.Next):
		return m, m.run(m.ctl.Next)
	case key.Matches(msg, m.keys.Prev):
		return m, m.run(m.ctl.Previous)
	case key.Matches(msg, m.keys.SeekBack):
		return m, m.run(func(ctx context.Context) error { return m.ctl.Seek(ctx, -seekStep) })
	case key.Matches(msg, m.keys.SeekForward):
		return m, m.run(func(ctx context.Context) error { return m.ctl.Seek(ctx, seekStep) })
	case key.Matches(msg, m.keys.VolumeUp):
		return m, m.run(m.ctl.VolumeUp)
	case key.Matches(msg, m.keys.VolumeDown):
		return m, m.run(m.ctl.VolumeDown)
	case key.Matches(msg, m.keys.Shuffle):
		return m, m.run(m.ctl.ToggleShuffle)
	case key.Matches(msg, m.keys.Repeat):
		return m, m.run(m.ctl.CycleRepeat)
	case key.Matches(msg, m.keys.Like):
		if t := m.view.Track; t != nil {
			uri := t.URI
			return m, m.run(func(ctx context.Context) error { return m.ctl.ToggleLiked(ctx, uri) })
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.ctl.RefreshQueue()
		m.ctl.RefreshDevices()
		return m, nil
	}

	switch m.focusedPanel {
	case PanelQueue:
		switch {
		case key.Matches(msg, m.keys.Down):
			m.queueView.SelectNext()
		case key.Matches(msg, m.keys.Up):
			m.queueView.SelectPrev()
		case key.Matches(msg, m.keys.Remove):
			if t := m.queueView.SelectedTrack(m.view.Queue); t != nil {
				m.ctl.RemoveFromQueue(t.URI)
				m.refreshView()
			}
		case key.Matches(msg, m.keys.Select):
			if t := m.queueView.SelectedTrack(m.view.Queue); t != nil {
				uri := t.URI
				return m, m.run(func(ctx context.Context) error { return m.ctl.PlayContext(ctx, uri, "") })
			}
		}
	case PanelDevices:
		switch {
		case key.Matches(msg, m.keys.Down):
			m.devicesView.SelectNext()
		case key.Matches(msg, m.keys.Up):
			m.devicesView.SelectPrev()
		case key.Matches(msg, m.keys.Select):
			if d := m.devicesView.SelectedDevice(m.view.Devices); d != nil {
				id := d.ID
				return m, m.run(func(ctx context.Context) error { return m.ctl.SelectDevice(ctx, id) })
			}
		}
	}
	return m, nil
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompting = false
		m.prompt.Blur()
		m.ctl.SetQueueVisible(true)
		return m, nil
	case "enter":
		uri := strings.TrimSpace(m.prompt.Value())
		m.prompting = false
		m.prompt.Blur()
		m.ctl.SetQueueVisible(true)
		if uri == "" {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) error { return m.ctl.PlayContext(ctx, uri, "") })
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.prompting {
		return m.renderPrompt()
	}

	// Left: now playing over the queue. Right: devices.
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 45 / 100
	bottomHeight := m.height - topHeight - 3

	var liked bool
	if m.view.Track != nil {
		liked = m.ctl.IsLiked(m.view.Track.URI)
	}
	nowPlaying := m.nowPlaying.Render(components.NowPlayingState{
		Snapshot: m.view.Snapshot,
		Liked:    liked,
		Local:    m.view.LocalActive,
	}, leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	queueView := m.queueView.Render(m.view.Queue, m.ctl.IsLiked, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelQueue)
	devicesView := m.devicesView.Render(m.view.Devices, m.local, rightWidth-2, topHeight+bottomHeight-2, m.focusedPanel == PanelDevices)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, queueView)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, devicesView)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.View(m.keys)
	if m.view.Error != "" {
		status = styles.ErrorText.Render(m.view.Error)
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.Highlight.Render("Keyboard shortcuts"),
		"",
		h.View(m.keys),
		"",
		styles.Dim.Render("Press ? or Esc to close"),
	)
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Padding(1, 2).Render(content))
}

func (m Model) renderPrompt() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.Highlight.Render("Play URI"),
		"",
		m.prompt.View(),
		"",
		styles.Dim.Render("Enter:play  Esc:cancel"),
	)
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Padding(1, 2).Width(60).Render(content))
}

// Options configures Run.
type Options struct {
	// Refresh is the redraw interval.
	Refresh time.Duration
	Theme   string
}

// Run starts the TUI and blocks until the user quits.
func Run(ctl Controller, opts Options) error {
	if opts.Theme != "" {
		styles.ApplyTheme(opts.Theme)
	}
	p := tea.NewProgram(NewModel(ctl, opts.Refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
