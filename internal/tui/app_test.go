package tui

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/hrdesk/internal/config"
	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/hrapi/hrapitest"
	"github.com/kingrea/hrdesk/internal/journal"
	"github.com/kingrea/hrdesk/internal/wizard"
)

func TestAddEmployeeWizardRunsToCompletion(t *testing.T) {
	srv := newTestServer(t)
	app := newTestApp(t, srv)

	app.mainMenu.Select(1)
	model, cmd := app.handleMainMenuSelection()
	app = runCommands(t, model, cmd)
	if app.state != stateWizard || app.wizard == nil {
		t.Fatalf("expected wizard to be open, state=%d", app.state)
	}
	if len(app.catalog.All(hrapi.KindDepartments)) != 2 {
		t.Fatalf("expected reference data to load with the wizard")
	}

	// Title is the first input; tab moves to first name.
	app = press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Ada")})
	personal := &app.wizard.session.Personal().Draft.Personal
	if personal.FirstName != "Ada" {
		t.Fatalf("typed value not written to draft: %q", personal.FirstName)
	}
	personal.LastName = "Lovelace"
	personal.Email = "ada@example.com"
	personal.PhoneNumber = "+44 20 7946 0000"
	personal.DateOfBirth = "1990-12-10"
	personal.Gender = "Female"
	personal.Nationality = "British"

	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if got := srv.EmployeeCount(); got != 1 {
		t.Fatalf("expected one employee created, got %d", got)
	}
	if stage := app.wizard.session.Controller.Stage(); stage != wizard.StageEducation {
		t.Fatalf("expected education stage, got %s", stage)
	}
	id := app.wizard.session.Controller.EmployeeID()
	if id == "" {
		t.Fatalf("expected employee id after create")
	}

	// No education entries: the stage is skipped without a request.
	patches := srv.CountRequests("PATCH")
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if srv.CountRequests("PATCH") != patches {
		t.Fatalf("empty education stage should not send a request")
	}
	if stage := app.wizard.session.Controller.Stage(); stage != wizard.StageEmployment {
		t.Fatalf("expected employment stage, got %s", stage)
	}

	current := &app.wizard.session.Employment().Current
	current.Department = "Engineering"
	current.JobTitle = "Analyst"
	current.StartDate = "2024-01-15"
	current.Salary = "52000"
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if stage := app.wizard.session.Controller.Stage(); stage != wizard.StageDocuments {
		t.Fatalf("expected documents stage, got %s", stage)
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})

	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlA})
	kin := &app.wizard.session.NextOfKin().Drafts[0]
	kin.FullName = "William King"
	kin.Relationship = "Spouse"
	kin.PhoneNumber = "+44 20 7946 0001"
	kin.IsPrimary = true
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})

	if app.wizard != nil {
		t.Fatalf("wizard should close after the last stage")
	}
	if app.state != stateEmployees {
		t.Fatalf("expected employee list after finishing, state=%d", app.state)
	}
	if len(app.employees.all) != 1 {
		t.Fatalf("expected list to be reloaded with one employee, got %d", len(app.employees.all))
	}
	stored, ok := srv.Employee(id)
	if !ok {
		t.Fatalf("employee %s missing on server", id)
	}
	if stored.Department != "Engineering" || len(stored.NextOfKins) != 1 {
		t.Fatalf("unexpected stored record: %+v", stored)
	}
	if app.lastNotice != "Employee saved" {
		t.Fatalf("unexpected notice %q", app.lastNotice)
	}
}

func TestWizardBlocksSubmitUntilRequiredFieldsFilled(t *testing.T) {
	srv := newTestServer(t)
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.startWizard(""))

	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if srv.CountRequests("POST") != 0 {
		t.Fatalf("invalid form must not reach the server")
	}
	if len(app.wizard.issues) == 0 {
		t.Fatalf("expected validation issues to be shown")
	}
	if app.statusMsg != "Please fill in all required fields" {
		t.Fatalf("unexpected status %q", app.statusMsg)
	}
	if !strings.Contains(app.View(), "firstName") {
		t.Fatalf("expected issues in view:\n%s", app.View())
	}
}

func TestWizardServerRejectionKeepsDrafts(t *testing.T) {
	srv := newTestServer(t)
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.startWizard(""))
	fillPersonal(app)

	srv.Fail("POST", 409, "Email already exists")
	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlS})
	if app.wizard.session.Controller.Stage() != wizard.StagePersonalInfo {
		t.Fatalf("rejected submit must stay on the personal stage")
	}
	if app.statusMsg != "Email already exists" {
		t.Fatalf("expected server message, got %q", app.statusMsg)
	}
	if got := app.wizard.session.Personal().Draft.Personal.Email; got != "ada@example.com" {
		t.Fatalf("draft lost after rejection: %q", got)
	}
}

func TestLateSubmitAfterCloseIsIgnored(t *testing.T) {
	srv := newTestServer(t)
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.startWizard(""))
	fillPersonal(app)

	_, submit := app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if submit == nil {
		t.Fatalf("expected a submit command")
	}
	_, cancel := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if app.wizard != nil {
		t.Fatalf("esc should close the wizard")
	}
	app = runCommands(t, app, cancel)
	app = runCommands(t, app, submit)

	if app.wizard != nil || app.state != stateEmployees {
		t.Fatalf("late result must not reopen the wizard")
	}
	if app.lastNotice != "Wizard closed" {
		t.Fatalf("late result must not be reported, got %q", app.lastNotice)
	}
}

func TestWizardSaveReachesFormOnlyThroughUpdate(t *testing.T) {
	srv := newTestServer(t)
	id := srv.SeedEmployee(employee.Employee{Personal: employee.Personal{FirstName: "Grace"}})
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.startWizard(id))
	app.wizard.session.Controller.StepSucceeded(id)
	app = runCommands(t, app, app.wizard.loadStage())
	if stage := app.wizard.session.Controller.Stage(); stage != wizard.StageEducation {
		t.Fatalf("expected education stage, got %s", stage)
	}
	if !strings.Contains(app.View(), "ctrl+s continues") {
		t.Fatalf("empty list stage should say it can be skipped:\n%s", app.View())
	}

	app = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlA})
	edu := app.wizard.session.Education()
	edu.Drafts[0].Degree = "MSc"
	edu.Drafts[0].Institute = "KCL"
	edu.Drafts[0].PassingYear = "2012"

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatalf("expected a save command, status %q", app.statusMsg)
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected a batched save")
	}
	results := make(chan wizardSubmittedMsg, 1)
	go func() {
		for _, c := range batch {
			if c == nil {
				continue
			}
			if m, ok := c().(wizardSubmittedMsg); ok {
				results <- m
			}
		}
		close(results)
	}()
	// The request runs while the program keeps rendering.
	for i := 0; i < 20; i++ {
		_ = app.View()
	}
	msg, ok := <-results
	if !ok {
		t.Fatalf("save command produced no result")
	}

	stored, _ := srv.Employee(id)
	if len(stored.Educations) != 1 {
		t.Fatalf("server should hold the new entry, got %+v", stored.Educations)
	}
	if len(edu.Drafts) != 1 || len(edu.Existing) != 0 {
		t.Fatalf("form changed before Update: drafts=%d existing=%d", len(edu.Drafts), len(edu.Existing))
	}

	model, next := app.Update(msg)
	app = runCommands(t, model, next)
	if len(edu.Drafts) != 0 || len(edu.Existing) != 1 || edu.Busy() {
		t.Fatalf("form not updated: drafts=%d existing=%d busy=%v", len(edu.Drafts), len(edu.Existing), edu.Busy())
	}
	if stage := app.wizard.session.Controller.Stage(); stage != wizard.StageEmployment {
		t.Fatalf("expected employment stage, got %s", stage)
	}
}

func TestEditEmployeeLoadsRecord(t *testing.T) {
	srv := newTestServer(t)
	id := srv.SeedEmployee(employee.Employee{Personal: employee.Personal{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"}})
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.showEmployees())

	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if app.wizard == nil {
		t.Fatalf("enter should open the wizard for the selected employee")
	}
	if got := app.wizard.session.Controller.EmployeeID(); got != id {
		t.Fatalf("expected employee %s, got %s", id, got)
	}
	if got := app.wizard.session.Personal().Draft.Personal.FirstName; got != "Grace" {
		t.Fatalf("expected record to be loaded, got first name %q", got)
	}
	if got := app.wizard.inputs[1].Value(); got != "Grace" {
		t.Fatalf("expected input to show loaded value, got %q", got)
	}
}

func TestEmployeeListSearchAndPaging(t *testing.T) {
	srv := newTestServer(t)
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel", "India", "Juliet", "Kilo", "Zeta"}
	for _, name := range names {
		srv.SeedEmployee(employee.Employee{Personal: employee.Personal{FirstName: name, LastName: "Tester", Email: strings.ToLower(name) + "@example.com"}})
	}
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.showEmployees())

	v := app.employees
	if len(v.filtered) != len(names) {
		t.Fatalf("expected %d employees, got %d", len(names), len(v.filtered))
	}
	if v.pager.TotalPages != 2 || len(v.table.Rows()) != 10 {
		t.Fatalf("expected 2 pages of 10, got pages=%d rows=%d", v.pager.TotalPages, len(v.table.Rows()))
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	if len(v.table.Rows()) != 2 {
		t.Fatalf("expected 2 rows on page two, got %d", len(v.table.Rows()))
	}
	if emp, ok := v.selected(); !ok || emp.FirstName != v.filtered[10].FirstName {
		t.Fatalf("selection should account for the page offset, got %+v", emp)
	}

	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zeta")})
	if len(v.filtered) != 1 || v.filtered[0].FirstName != "Zeta" {
		t.Fatalf("search should narrow to Zeta, got %d rows", len(v.filtered))
	}
	if v.pager.Page != 0 {
		t.Fatalf("search should return to page one")
	}
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if v.searching {
		t.Fatalf("enter should leave the search box")
	}
}

func TestDeleteEmployeeNeedsConfirmation(t *testing.T) {
	srv := newTestServer(t)
	srv.SeedEmployee(employee.Employee{Personal: employee.Personal{FirstName: "Ada", LastName: "Lovelace"}})
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.showEmployees())

	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if srv.EmployeeCount() != 1 {
		t.Fatalf("declined delete must keep the employee")
	}

	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if srv.EmployeeCount() != 0 {
		t.Fatalf("confirmed delete should remove the employee")
	}
	if len(app.employees.all) != 0 {
		t.Fatalf("list should be reloaded after delete")
	}
}

func TestReferenceToggleReloadsCollection(t *testing.T) {
	srv := newTestServer(t)
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.showReference())
	selectKind(t, app, hrapi.KindDepartments)
	if len(app.reference.items) != 2 {
		t.Fatalf("expected two departments, got %d", len(app.reference.items))
	}

	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	if srv.Lookups(hrapi.KindDepartments)[0].IsActive {
		t.Fatalf("toggle should reach the server")
	}
	if app.catalog.All(hrapi.KindDepartments)[0].IsActive {
		t.Fatalf("catalog should hold the toggled item")
	}
	if names := app.catalog.Names(hrapi.KindDepartments); len(names) != 1 {
		t.Fatalf("inactive item should leave the picker, got %v", names)
	}
}

func TestReferenceCreateLookup(t *testing.T) {
	srv := newTestServer(t)
	app := newTestApp(t, srv)
	app = runCommands(t, app, app.showReference())
	selectKind(t, app, hrapi.KindDepartments)

	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if app.reference.editor == nil {
		t.Fatalf("n should open the editor")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	if srv.CountRequests("POST") != 0 {
		t.Fatalf("empty name must not be sent")
	}
	app = press(t, app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Legal")})
	app = press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	if got := len(srv.Lookups(hrapi.KindDepartments)); got != 3 {
		t.Fatalf("expected 3 departments on server, got %d", got)
	}
	if app.reference.editor != nil {
		t.Fatalf("editor should close after saving")
	}
	if len(app.reference.items) != 3 {
		t.Fatalf("table should show the new item, got %d", len(app.reference.items))
	}
}

func TestExportWritesWorkbook(t *testing.T) {
	srv := newTestServer(t)
	srv.SeedEmployee(employee.Employee{Personal: employee.Personal{FirstName: "Ada", LastName: "Lovelace"}})
	app := newTestApp(t, srv)

	app = runCommands(t, app, app.exportEmployees())
	if !strings.HasPrefix(app.lastNotice, "Exported 1 employee(s) to ") {
		t.Fatalf("unexpected notice %q", app.lastNotice)
	}
	matches, err := filepath.Glob(filepath.Join(app.config.DownloadsDir(), "employees-*.xlsx"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one workbook, got %v (%v)", matches, err)
	}
}

func TestNoticesAreJournaled(t *testing.T) {
	srv := newTestServer(t)
	app := newTestApp(t, srv)
	app.notify(journal.LevelInfo, "hello   journal")
	data, err := os.ReadFile(app.config.JournalPath())
	if err != nil {
		t.Fatalf("read journal: %v", err)
	}
	if !strings.Contains(string(data), "hello journal") {
		t.Fatalf("journal missing notice:\n%s", data)
	}
	if !strings.Contains(app.View(), "LOG · ") {
		t.Fatalf("expected log panel in view")
	}
}

func TestJournalFollowsOpenEmployee(t *testing.T) {
	srv := newTestServer(t)
	id := srv.SeedEmployee(employee.Employee{Personal: employee.Personal{FirstName: "Grace"}})
	app := newTestApp(t, srv)
	app.notify(journal.LevelInfo, "before the wizard")
	app = runCommands(t, app, app.startWizard(id))
	app.notify(journal.LevelWarn, "check the visa date")

	history := app.journal.History(id, 10)
	if len(history) != 2 {
		t.Fatalf("history = %+v", history)
	}
	if history[1].Stage != wizard.StagePersonalInfo.String() || history[1].Message != "check the visa date" {
		t.Fatalf("entry = %+v", history[1])
	}
	view := app.View()
	if !strings.Contains(view, "LOG · employee "+id) || !strings.Contains(view, "check the visa date") {
		t.Fatalf("log panel should follow the open employee:\n%s", view)
	}
	if strings.Contains(view, "before the wizard") {
		t.Fatalf("log panel shows entries about no one:\n%s", view)
	}

	app = press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	if got := app.journal.History(id, 10); len(got) != 3 || got[2].Message != "Wizard closed" {
		t.Fatalf("closing should be recorded against the employee: %+v", got)
	}
	if !strings.Contains(app.View(), "before the wizard") {
		t.Fatalf("closed wizard should bring back the full journal")
	}
}

type recordingOpener struct {
	mu      sync.Mutex
	targets []string
}

func (o *recordingOpener) Open(target string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.targets = append(o.targets, target)
	return nil
}

func newTestServer(t *testing.T) *hrapitest.Server {
	t.Helper()
	srv := hrapitest.NewServer()
	t.Cleanup(srv.Close)
	srv.SeedLookups(hrapi.KindDepartments,
		hrapi.Lookup{Name: "Engineering", IsActive: true},
		hrapi.Lookup{Name: "Finance", IsActive: true},
	)
	srv.SeedLookups(hrapi.KindNationalities, hrapi.Lookup{Name: "British", IsActive: true})
	return srv
}

func newTestApp(t *testing.T, srv *hrapitest.Server, opts ...AppOption) *App {
	t.Helper()
	projectDir := t.TempDir()
	t.Setenv(config.EnvBaseURL, srv.APIURL())
	t.Setenv(config.EnvToken, "")
	t.Setenv(config.EnvUploadsURL, "")
	if err := config.InitHRDeskDir(projectDir); err != nil {
		t.Fatalf("init hrdesk dir: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	opts = append([]AppOption{WithOpener(&recordingOpener{})}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(app.closeWizard)
	return app
}

func fillPersonal(app *App) {
	p := &app.wizard.session.Personal().Draft.Personal
	p.FirstName = "Ada"
	p.LastName = "Lovelace"
	p.Email = "ada@example.com"
	p.PhoneNumber = "+44 20 7946 0000"
	p.DateOfBirth = "1990-12-10"
	p.Gender = "Female"
	p.Nationality = "British"
}

func selectKind(t *testing.T, app *App, kind hrapi.Kind) {
	t.Helper()
	for i, k := range hrapi.AllKinds {
		if k == kind {
			app.reference.kind = i
			app.reference.refreshTable()
			return
		}
	}
	t.Fatalf("unknown kind %s", kind)
}

// press delivers one key and runs whatever it schedules.
func press(t *testing.T, app *App, key tea.KeyMsg) *App {
	t.Helper()
	model, cmd := app.Update(key)
	return runCommands(t, model, cmd)
}

// runCommands drains cmd and everything it schedules. Spinner ticks are
// dropped so the queue ends once the real work is done.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatalf("command queue did not drain")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, spinner.TickMsg, tea.QuitMsg:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			nextModel, nextCmd := app.Update(msg)
			if app, ok = nextModel.(*App); !ok {
				t.Fatalf("unexpected model type: %T", nextModel)
			}
			queue = append(queue, nextCmd)
		}
	}
	return app
}
