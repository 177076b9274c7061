package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dzx-app/dzx/internal/auth"
	"github.com/dzx-app/dzx/internal/services"
	"github.com/dzx-app/dzx/internal/shared"
	"github.com/dzx-app/dzx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MenuView ViewState = iota
	PlaylistListView
	InputView
	ConvertView
	ResultView
	MessageView
)

// ActionID enumerates the main menu actions.
type ActionID int

const (
	ActionListPlaylists ActionID = iota
	ActionConvertPlaylist
	ActionConvertURL
	ActionSetDeezerToken
	ActionAuthDeezer
	ActionShowAuthURL
	ActionQuit
)

func menuItems() []list.Item {
	return []list.Item{
		menuItem{ActionListPlaylists, "List Spotify playlists", "browse your playlists"},
		menuItem{ActionConvertPlaylist, "Convert a playlist", "pick a Spotify playlist and convert it to Deezer"},
		menuItem{ActionConvertURL, "Convert from URL", "paste a Spotify playlist link"},
		menuItem{ActionSetDeezerToken, "Set Deezer token", "paste an access token obtained manually"},
		menuItem{ActionAuthDeezer, "Authorize Deezer", "run the browser authorization flow"},
		menuItem{ActionShowAuthURL, "Show Deezer auth URL", "print the consent URL without opening a browser"},
		menuItem{ActionQuit, "Quit", ""},
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	spotify services.Service
	store   *auth.Store
	refs    *services.RefParser

	// converters maps a source platform to the engine converting away from
	// it, so a pasted Deezer link runs Deezer to Spotify rather than being
	// fed to the Spotify client.
	converters map[services.Platform]*tasks.Converter

	view   ViewState
	width  int
	height int

	menu         list.Model
	playlistList list.Model
	input        textinput.Model
	inputAction  ActionID

	// convertOnSelect switches the playlist list from browsing to picking a
	// conversion source.
	convertOnSelect bool

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.ConversionResult
	message      string
	err          error

	help help.Model
	keys keyMap
}

type playlistsFetchedMsg struct {
	playlists []services.Playlist
	err       error
}

type progressUpdateMsg tasks.ProgressUpdate

type convertDoneMsg struct {
	result *tasks.ConversionResult
	err    error
}

type actionDoneMsg struct {
	message string
	err     error
}

// NewModel creates a new TUI model with the provided dependencies. The
// converters map is keyed by the source platform of each engine.
func NewModel(ctx context.Context, spotify services.Service, converters map[services.Platform]*tasks.Converter, store *auth.Store, refs *services.RefParser) *Model {
	menu := list.New(menuItems(), list.NewDefaultDelegate(), 0, 0)
	menu.Title = "dzx"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)

	input := textinput.New()
	input.CharLimit = 512

	return &Model{
		ctx:        ctx,
		spotify:    spotify,
		converters: converters,
		store:      store,
		refs:       refs,
		view:       MenuView,
		menu:       menu,
		input:      input,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(msg.Width-4, msg.Height-4)
		m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MenuView:
			return m.handleMenuKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case InputView:
			return m.handleInputKeys(msg)
		case ResultView, MessageView:
			return m.handleTerminalKeys(msg)
		case ConvertView:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			return m.showError(msg.err)
		}
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.playlistList.Title = "Spotify Playlists"
		m.view = PlaylistListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case convertDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil

	case actionDoneMsg:
		m.message = msg.message
		m.err = msg.err
		m.view = MessageView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MenuView:
		return m.menu.View()
	case PlaylistListView:
		return m.renderPlaylistList()
	case InputView:
		return m.renderInput()
	case ConvertView:
		return m.renderConvert()
	case ResultView:
		return m.renderResult()
	case MessageView:
		return m.renderMessage()
	default:
		return ""
	}
}

func (m *Model) handleMenuKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		item, ok := m.menu.SelectedItem().(menuItem)
		if !ok {
			return m, nil
		}
		return m.dispatch(item.id)
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// dispatch starts the selected menu action.
func (m *Model) dispatch(id ActionID) (tea.Model, tea.Cmd) {
	switch id {
	case ActionListPlaylists:
		m.convertOnSelect = false
		return m, m.fetchPlaylists()
	case ActionConvertPlaylist:
		m.convertOnSelect = true
		return m, m.fetchPlaylists()
	case ActionConvertURL:
		return m.openInput(ActionConvertURL, "Playlist URL", "https://open.spotify.com/playlist/...")
	case ActionSetDeezerToken:
		return m.openInput(ActionSetDeezerToken, "Deezer access token", "")
	case ActionAuthDeezer:
		m.message = "Waiting for browser authorization..."
		m.view = MessageView
		return m, m.authorizeDeezer()
	case ActionShowAuthURL:
		return m, m.showAuthURL()
	case ActionQuit:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) openInput(action ActionID, title, placeholder string) (tea.Model, tea.Cmd) {
	m.inputAction = action
	m.input.Placeholder = placeholder
	m.input.SetValue("")
	m.input.Prompt = title + ": "
	m.view = InputView
	return m, m.input.Focus()
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = MenuView
		return m, nil
	case "enter":
		if !m.convertOnSelect {
			return m, nil
		}
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			ref, err := services.NewRef(services.PlatformSpotify, pl.playlist.ID)
			if err != nil {
				return m.showError(err)
			}
			return m.startConversion(*ref)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = MenuView
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		if value == "" {
			return m, nil
		}
		switch m.inputAction {
		case ActionConvertURL:
			ref, err := m.refs.Parse(m.ctx, value)
			if err != nil {
				return m.showError(err)
			}
			return m.startConversion(*ref)
		case ActionSetDeezerToken:
			return m, m.saveDeezerToken(value)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTerminalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.view = MenuView
		m.result = nil
		m.message = ""
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MenuView:
		m.menu, cmd = m.menu.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case InputView:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) showError(err error) (tea.Model, tea.Cmd) {
	m.err = err
	m.message = ""
	m.view = MessageView
	return m, nil
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.spotify.GetPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) startConversion(ref services.Ref) (tea.Model, tea.Cmd) {
	converter := m.converters[ref.Platform]
	if converter == nil {
		return m.showError(fmt.Errorf("%w: no converter for %s playlists",
			shared.ErrInvalidArgument, ref.Platform))
	}

	m.view = ConvertView
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	ch := m.progressChan
	go func() {
		result, err := converter.Run(m.ctx, ch, ref, "")
		m.result = result
		m.err = err
		close(ch)
	}()

	return m, m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return convertDoneMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return convertDoneMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) authorizeDeezer() tea.Cmd {
	return func() tea.Msg {
		_, err := m.store.Authorize(m.ctx, services.PlatformDeezer)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{message: "Deezer authorization complete."}
	}
}

func (m *Model) showAuthURL() tea.Cmd {
	return func() tea.Msg {
		url, err := m.store.AuthURL(services.PlatformDeezer)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{message: "Open this URL to authorize Deezer:\n\n" + url}
	}
}

func (m *Model) saveDeezerToken(token string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.SetToken(services.PlatformDeezer, token, 0); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{message: "Deezer token saved."}
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	if !m.convertOnSelect {
		helpKeys = []key.Binding{m.keys.back, m.keys.quit}
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderInput() string {
	title := styles.title.Render("dzx")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderConvert() string {
	title := styles.title.Render("Converting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.PhaseFetching:
		phase = "Fetching source playlist..."
	case tasks.PhaseMatching:
		phase = fmt.Sprintf("Matching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.PhaseCreating:
		phase = "Creating playlist on Deezer..."
	case tasks.PhaseAdding:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})

	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s",
			styles.err.Render(fmt.Sprintf("Conversion failed: %v", m.err)), helpView)
	}
	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	title := styles.ok.Render("✓ Conversion Complete")
	info := fmt.Sprintf(
		"\nSource: %s (%d tracks)\nDestination: %s\nAdded: %d/%d",
		m.result.SourceName, m.result.TotalTracks,
		m.result.DestName, m.result.AddedCount, m.result.TotalTracks,
	)

	var failed string
	if len(m.result.Unmatched) > 0 {
		failed = "\n\n" + styles.warn.Render(fmt.Sprintf("No match for %d tracks:", len(m.result.Unmatched)))
		for _, t := range m.result.Unmatched {
			failed += fmt.Sprintf("\n  • %s - %s", t.Artist, t.Title)
		}
	}

	return fmt.Sprintf("%s%s%s\n\n%s", title, info, failed, helpView)
}

func (m *Model) renderMessage() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	if m.err != nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), helpView)
	}
	return fmt.Sprintf("%s\n\n%s", m.message, helpView)
}
