// internal/tui/app.go
//
// This is the terminal UI for hrdesk. It uses bubbletea, which follows The
// Elm Architecture:
//
// 1. Model: the application state (App and its views)
// 2. Update: a function that updates state based on messages
// 3. View: a function that renders state to a string
//
// Network calls never run inside Update. They are returned as tea.Cmd
// functions, run on their own goroutine, and report back with a message.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/kingrea/hrdesk/internal/config"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/journal"
	"github.com/kingrea/hrdesk/internal/refdata"
	"github.com/kingrea/hrdesk/internal/report"
	"github.com/kingrea/hrdesk/internal/viewer"
)

// appState represents which "screen" we're on
type appState int

const (
	stateMainMenu  appState = iota // Main menu
	stateEmployees                 // Employee list with search and paging
	stateWizard                    // Add / edit employee wizard
	stateReference                 // Reference data administration
)

const logPanelLines = 6

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithOpener overrides how files and URLs are shown to the user.
func WithOpener(opener viewer.Opener) AppOption {
	return func(a *App) {
		if opener != nil {
			a.opener = opener
		}
	}
}

// WithLogger routes diagnostic logs (client requests, refdata loads).
func WithLogger(logger zerolog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithClock overrides the clock used for file names and token checks.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	client  *hrapi.Client
	refdata *refdata.Service
	journal *journal.Journal
	logger  zerolog.Logger
	opener  viewer.Opener
	now     func() time.Time

	catalog refdata.Catalog

	// Views
	mainMenu  list.Model
	employees *employeesView
	wizard    *wizardView
	reference *referenceView

	statusMsg   string
	statusLevel journal.Level
	lastNotice  string

	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

const (
	menuEmployees   = "Employees"
	menuAddEmployee = "Add Employee"
	menuReference   = "Reference Data"
	menuExport      = "Export Employees"
	menuExit        = "Exit"
)

// refdataLoadedMsg carries the catalog after a (possibly partial) load.
type refdataLoadedMsg struct {
	catalog refdata.Catalog
	err     error
}

// noticeMsg reports the result of a background action that has no view
// state of its own, such as an export.
type noticeMsg struct {
	level journal.Level
	text  string
	err   error
}

// NewApp creates a new App instance
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	app := &App{
		state:  stateMainMenu,
		config: cfg,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if app.opener == nil {
		app.opener = viewer.SystemOpener{Command: cfg.Opener()}
	}

	client, err := hrapi.New(cfg.APIBaseURL(),
		hrapi.WithToken(cfg.Token()),
		hrapi.WithUploadsURL(cfg.UploadsURL()),
		hrapi.WithLogger(app.logger.With().Str("component", "hrapi").Logger()),
	)
	if err != nil {
		return nil, err
	}
	app.client = client

	refOpts := []refdata.Option{refdata.WithLogger(app.logger.With().Str("component", "refdata").Logger())}
	if path := cfg.SnapshotPath(); path != "" {
		refOpts = append(refOpts, refdata.WithSnapshot(path))
	}
	service, err := refdata.New(client, refOpts...)
	if err != nil {
		// A broken snapshot only costs us the warm start.
		app.logger.Warn().Err(err).Msg("reference snapshot ignored")
		service, err = refdata.New(client, refOpts[:1]...)
		if err != nil {
			return nil, err
		}
	}
	app.refdata = service
	app.catalog = service.Catalog()

	if jr, err := journal.New(cfg.JournalPath()); err == nil {
		app.journal = jr
		jr.Info("Session opened · API %s", cfg.APIBaseURL())
	}

	menu := list.New(buildMainMenu(), list.NewDefaultDelegate(), 0, 0)
	menu.Title = "◆ HR DESK"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	app.mainMenu = menu
	app.employees = newEmployeesView(app)
	app.reference = newReferenceView(app)

	app.checkToken()
	return app, nil
}

// buildMainMenu creates the main menu items
func buildMainMenu() []list.Item {
	return []list.Item{
		menuItem{title: menuEmployees, desc: "Browse, search and edit employee records"},
		menuItem{title: menuAddEmployee, desc: "Start the onboarding wizard for a new employee"},
		menuItem{title: menuReference, desc: "Manage titles, countries, departments and other lookups"},
		menuItem{title: menuExport, desc: "Write the employee list to an XLSX workbook"},
		menuItem{title: menuExit, desc: "Quit hrdesk"},
	}
}

func (a *App) checkToken() {
	expiry, ok, err := a.config.TokenExpiry()
	switch {
	case err != nil:
		a.notify(journal.LevelWarn, "API token is not a readable JWT: %v", err)
	case ok && !expiry.After(a.now()):
		a.notify(journal.LevelWarn, "API token expired at %s", expiry.Local().Format(time.RFC822))
	}
}

// notify shows a status line and records it in the journal.
func (a *App) notify(level journal.Level, format string, args ...any) {
	text := strings.TrimSpace(fmt.Sprintf(format, args...))
	if text == "" {
		return
	}
	a.statusMsg = text
	a.statusLevel = level
	a.lastNotice = text
	if a.journal == nil {
		return
	}
	if a.wizard != nil {
		c := a.wizard.session.Controller
		a.journal.For(c.EmployeeID(), c.Stage().String()).Append(level, text)
		return
	}
	a.journal.Append(level, text)
}

func (a *App) notifyError(err error, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	a.logger.Error().Err(err).Msg(text)
	if msg := hrapi.ServerMessage(err); msg != "" {
		text = msg
	}
	a.notify(journal.LevelError, "%s", text)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// loadReference asks the reference service for every collection it does
// not hold yet.
func (a *App) loadReference() tea.Cmd {
	service := a.refdata
	return func() tea.Msg {
		catalog, err := service.Load(context.Background())
		return refdataLoadedMsg{catalog: catalog, err: err}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		a.employees.resize(msg.Width, msg.Height)
		a.reference.resize(msg.Width, msg.Height)
		return a, nil

	case refdataLoadedMsg:
		a.catalog = msg.catalog
		if msg.err != nil {
			a.notifyError(msg.err, "Some reference lists could not be loaded")
		}
		a.reference.refreshTable()
		return a, nil

	case noticeMsg:
		if msg.err != nil {
			a.notifyError(msg.err, "%s", msg.text)
		} else {
			a.notify(msg.level, "%s", msg.text)
		}
		return a, nil

	case employeesLoadedMsg, employeeDeletedMsg:
		return a, a.employees.Update(msg)

	case lookupsChangedMsg:
		return a, a.reference.Update(msg)

	case wizardLoadedMsg, wizardSubmittedMsg, documentActionMsg, spinner.TickMsg:
		// Late results for a wizard that has been closed are dropped.
		if a.wizard == nil {
			return a, nil
		}
		return a, a.wizard.Update(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.closeWizard()
			return a, tea.Quit
		}
		if a.state == stateMainMenu {
			switch msg.String() {
			case "q":
				return a, tea.Quit
			case "enter":
				return a.handleMainMenuSelection()
			}
		}
	}

	switch a.state {
	case stateMainMenu:
		var cmd tea.Cmd
		a.mainMenu, cmd = a.mainMenu.Update(msg)
		return a, cmd
	case stateEmployees:
		return a, a.employees.Update(msg)
	case stateWizard:
		if a.wizard != nil {
			return a, a.wizard.Update(msg)
		}
	case stateReference:
		return a, a.reference.Update(msg)
	}
	return a, nil
}

// handleMainMenuSelection processes menu item selection
func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	switch item.title {
	case menuEmployees:
		return a, a.showEmployees()
	case menuAddEmployee:
		return a, a.startWizard("")
	case menuReference:
		return a, a.showReference()
	case menuExport:
		return a, a.exportEmployees()
	case menuExit:
		return a, tea.Quit
	}
	return a, nil
}

// showEmployees mounts the employee list, which loads the list and the
// reference data it needs for the wizard.
func (a *App) showEmployees() tea.Cmd {
	a.state = stateEmployees
	return tea.Batch(a.employees.reload(), a.loadReference())
}

func (a *App) showReference() tea.Cmd {
	a.state = stateReference
	return a.loadReference()
}

// startWizard opens the onboarding wizard; an empty id adds a new employee.
func (a *App) startWizard(employeeID string) tea.Cmd {
	a.closeWizard()
	a.wizard = newWizardView(a, employeeID)
	a.state = stateWizard
	if employeeID == "" {
		a.notify(journal.LevelInfo, "Adding a new employee")
	} else {
		a.notify(journal.LevelInfo, "Editing employee %s", employeeID)
	}
	return tea.Batch(a.wizard.Init(), a.loadReference())
}

// finishWizard is called when the last stage saved; the list is reloaded.
func (a *App) finishWizard() tea.Cmd {
	a.notify(journal.LevelInfo, "Employee saved")
	a.closeWizard()
	return a.showEmployees()
}

// cancelWizard closes the wizard without finishing it.
func (a *App) cancelWizard() tea.Cmd {
	a.notify(journal.LevelInfo, "Wizard closed")
	a.closeWizard()
	return a.showEmployees()
}

func (a *App) closeWizard() {
	if a.wizard == nil {
		return
	}
	if err := a.wizard.close(); err != nil {
		a.logger.Warn().Err(err).Msg("wizard cleanup")
	}
	a.wizard = nil
}

// returnToMainMenu transitions back to the main menu
func (a *App) returnToMainMenu() tea.Cmd {
	a.state = stateMainMenu
	return nil
}

func (a *App) exportEmployees() tea.Cmd {
	client := a.client
	path := filepath.Join(a.config.DownloadsDir(), report.ExportFileName(a.now()))
	a.notify(journal.LevelInfo, "Exporting employees…")
	return func() tea.Msg {
		n, err := report.ExportEmployeesFile(context.Background(), client, path)
		if err != nil {
			return noticeMsg{text: "Error exporting employees", err: err}
		}
		return noticeMsg{level: journal.LevelInfo, text: fmt.Sprintf("Exported %d employee(s) to %s", n, path)}
	}
}

func (a *App) writeProfile(id string) tea.Cmd {
	client := a.client
	dir := a.config.DownloadsDir()
	logger := a.logger
	return func() tea.Msg {
		path := filepath.Join(dir, id+"-profile.pdf")
		emp, err := report.ProfileFile(context.Background(), client, id, path, logger)
		if err != nil {
			return noticeMsg{text: "Error writing profile sheet", err: err}
		}
		return noticeMsg{level: journal.LevelInfo, text: "Profile sheet for " + emp.FullName() + " written to " + path}
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateEmployees:
		content = a.employees.View()
	case stateWizard:
		if a.wizard != nil {
			content = a.wizard.View()
		}
	case stateReference:
		content = a.reference.View()
	}
	return a.renderFrame(content, width)
}

func (a *App) renderFrame(content string, width int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		Render("◆ HRDESK")
	api := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render("  " + a.client.BaseURL())
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, width-4)).
		Render(content)
	sections := []string{header + api, box}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderStatus())
	return strings.Join(sections, "\n")
}

func (a *App) renderStatus() string {
	color := lipgloss.Color("#888888")
	switch a.statusLevel {
	case journal.LevelWarn:
		color = lipgloss.Color("#F7B801")
	case journal.LevelError:
		color = lipgloss.Color("#FF6B6B")
	}
	return lipgloss.NewStyle().Foreground(color).MarginTop(1).Render(a.statusMsg)
}

// openEmployee is the id of the record the wizard is editing, if any.
func (a *App) openEmployee() string {
	if a.state != stateWizard || a.wizard == nil {
		return ""
	}
	return a.wizard.session.Controller.EmployeeID()
}

func (a *App) renderLogPanel() string {
	if a.journal == nil {
		return ""
	}
	var title string
	lines, total := a.journal.Tail(logPanelLines)
	if id := a.openEmployee(); id != "" {
		// While a record is open the panel follows that employee only.
		history := a.journal.History(id, logPanelLines)
		lines = nil
		for _, e := range history {
			lines = append(lines, fmt.Sprintf("%s %-5s %s: %s", e.Time.Local().Format("15:04:05"), e.Level, e.Stage, e.Message))
		}
		title = fmt.Sprintf("LOG · employee %s (%d)", id, len(lines))
	} else {
		fileName := filepath.Base(a.journal.Path())
		if fileName == "." || fileName == "" {
			fileName = "journal"
		}
		title = fmt.Sprintf("LOG · %s (%d/%d)", fileName, len(lines), total)
	}
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(title)
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

var hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)

func hint(text string) string {
	return hintStyle.Render(text)
}

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).MarginBottom(1)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5B8DEF")).
		Bold(false)
	return s
}
