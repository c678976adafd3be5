package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/journal"
	"github.com/kingrea/hrdesk/internal/validation"
	"github.com/kingrea/hrdesk/internal/wizard"
)

const visibleFields = 12

var (
	stageDoneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	stageCurrentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	stagePendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	issueStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	focusLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
)

// Wizard results carry the form's Reply; it is applied in Update so the
// forms are only ever written on the program's goroutine.
type wizardLoadedMsg struct {
	session *wizard.Session
	stage   wizard.Stage
	reply   wizard.Reply
}

type wizardSubmittedMsg struct {
	session *wizard.Session
	stage   wizard.Stage
	reply   wizard.Reply
}

// documentActionMsg reports a download or delete of a stored document.
type documentActionMsg struct {
	session *wizard.Session
	action  string
	reply   wizard.Reply
	path    string
	err     error
}

// wizardView renders the session's current stage as a column of inputs.
// List stages edit one draft entry at a time.
type wizardView struct {
	app     *App
	session *wizard.Session
	spinner spinner.Model

	busy    bool
	loading bool

	entry  int
	fields []formField
	inputs []textinput.Model
	focus  int
	issues validation.Issues

	// browsing switches the documents stage to its stored list.
	browsing bool
	stored   int
}

func newWizardView(app *App, employeeID string) *wizardView {
	session := wizard.NewSession(employeeID, wizard.Deps{
		Records: app.client,
		Files:   app.client,
		Catalog: app.catalog,
		Opener:  app.opener,
	})
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &wizardView{app: app, session: session, spinner: sp}
}

// Init loads the first stage.
func (v *wizardView) Init() tea.Cmd {
	return v.loadStage()
}

func (v *wizardView) close() error {
	return v.session.Close()
}

func (v *wizardView) loadStage() tea.Cmd {
	session := v.session
	stage := session.Controller.Stage()
	v.entry = 0
	v.focus = 0
	v.issues = nil
	v.browsing = false
	v.stored = 0
	v.rebuild()
	if session.Controller.EmployeeID() == "" {
		return nil
	}
	v.loading = true
	load := session.PrepareLoad()
	return func() tea.Msg {
		return wizardLoadedMsg{session: session, stage: stage, reply: load(context.Background())}
	}
}

// rebuild re-creates the inputs from the current draft entry.
func (v *wizardView) rebuild() {
	v.fields = buildFields(v.session, v.app.catalog, v.entry)
	v.inputs = make([]textinput.Model, len(v.fields))
	for i, field := range v.fields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 40
		in.Cursor.SetMode(cursor.CursorStatic)
		in.SetValue(field.value())
		v.inputs[i] = in
	}
	if v.focus >= len(v.inputs) {
		v.focus = max(0, len(v.inputs)-1)
	}
	if len(v.inputs) > 0 {
		v.inputs[v.focus].Focus()
	}
}

func (v *wizardView) setFocus(idx int) {
	if len(v.inputs) == 0 {
		return
	}
	idx = (idx + len(v.inputs)) % len(v.inputs)
	v.inputs[v.focus].Blur()
	v.focus = idx
	v.inputs[v.focus].Focus()
}

func (v *wizardView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case spinner.TickMsg:
		if !v.busy && !v.loading {
			return nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(m)
		return cmd
	case wizardLoadedMsg:
		if m.session != v.session || m.stage != v.session.Controller.Stage() {
			return nil
		}
		v.loading = false
		if err := m.reply.Apply(); err != nil {
			v.app.notifyError(err, "%s", err.Error())
		}
		v.rebuild()
		return nil
	case wizardSubmittedMsg:
		if m.session != v.session || v.session.Controller.Closed() {
			return nil
		}
		return v.handleSubmitted(m)
	case documentActionMsg:
		if m.session != v.session || v.session.Controller.Closed() {
			return nil
		}
		v.busy = false
		err := m.err
		if m.action == "delete" {
			err = m.reply.Apply()
		}
		switch {
		case err != nil:
			v.app.notifyError(err, "%s", err.Error())
		case m.action == "download":
			v.app.notify(journal.LevelInfo, "Document saved to %s", m.path)
		default:
			v.app.notify(journal.LevelInfo, "%s", m.reply.Outcome.Message)
			v.stored = min(v.stored, max(0, len(v.session.Documents().Existing)-1))
		}
		return nil
	case tea.KeyMsg:
		return v.handleKey(m)
	}
	return nil
}

func (v *wizardView) handleSubmitted(m wizardSubmittedMsg) tea.Cmd {
	v.busy = false
	if err := m.reply.Apply(); err != nil {
		v.submitFailed(m.stage, err)
		return nil
	}
	out := m.reply.Outcome
	if out.Skipped {
		v.app.notify(journal.LevelInfo, "Nothing new to save for %s", m.stage.Subject())
	} else {
		v.app.notify(journal.LevelInfo, "%s", out.Message)
	}
	if v.session.Complete(out) {
		return v.app.finishWizard()
	}
	return v.loadStage()
}

// submitFailed reports a rejected save. Drafts are kept; rebuild picks up
// anything the form normalized.
func (v *wizardView) submitFailed(stage wizard.Stage, err error) {
	var invalid *wizard.ValidationError
	switch {
	case errors.As(err, &invalid):
		v.issues = invalid.Issues
		v.app.notify(journal.LevelWarn, "Please fill in all required fields")
	case errors.Is(err, wizard.ErrSubmitInProgress):
		v.app.notify(journal.LevelWarn, "Still saving %s", stage.Subject())
	default:
		v.app.notifyError(err, "%s", err.Error())
	}
	v.rebuild()
}

func (v *wizardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "esc" && !v.browsing {
		return v.app.cancelWizard()
	}
	if v.busy || v.loading {
		return nil
	}
	if v.browsing {
		return v.handleStoredKey(key)
	}
	switch key {
	case "ctrl+s":
		return v.submit()
	case "ctrl+b":
		if v.session.Controller.Stage() == wizard.StagePersonalInfo {
			return nil
		}
		v.session.Controller.Back()
		return v.loadStage()
	case "tab", "down":
		v.setFocus(v.focus + 1)
		return nil
	case "shift+tab", "up":
		v.setFocus(v.focus - 1)
		return nil
	case "pgdown":
		return v.selectEntry(v.entry + 1)
	case "pgup":
		return v.selectEntry(v.entry - 1)
	case "ctrl+a":
		return v.addEntry()
	case "ctrl+r":
		return v.removeEntry()
	case "ctrl+v":
		return v.preview()
	case "ctrl+e":
		if v.session.Controller.Stage() == wizard.StageDocuments {
			v.browsing = true
			v.stored = 0
		}
		return nil
	case "ctrl+right", "ctrl+left":
		v.cycle(key == "ctrl+right")
		return nil
	case "enter", " ":
		if len(v.fields) == 0 {
			return nil
		}
		field := v.fields[v.focus]
		if field.toggle != nil {
			field.toggle()
			v.rebuild()
			return nil
		}
		if key == "enter" {
			if field.attach != nil {
				v.attach(field)
				return nil
			}
			v.setFocus(v.focus + 1)
			return nil
		}
	}
	if len(v.inputs) == 0 {
		return nil
	}
	field := v.fields[v.focus]
	if field.toggle != nil {
		return nil
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	if field.set != nil {
		field.set(v.inputs[v.focus].Value())
	}
	return cmd
}

func (v *wizardView) cycle(forward bool) {
	if len(v.fields) == 0 {
		return
	}
	field := v.fields[v.focus]
	if field.options == nil || field.set == nil {
		return
	}
	step := -1
	if forward {
		step = 1
	}
	next := cycleOption(field.options(), field.value(), step)
	field.set(next)
	v.inputs[v.focus].SetValue(next)
}

func (v *wizardView) attach(field formField) {
	path := strings.TrimSpace(v.inputs[v.focus].Value())
	if path == "" {
		return
	}
	if err := field.attach(path); err != nil {
		v.app.notify(journal.LevelError, "%s", attachMessage(err))
		v.inputs[v.focus].SetValue(field.value())
		return
	}
	if v.session.Controller.Stage() == wizard.StagePersonalInfo {
		if info, ok := v.session.Personal().Picture(); ok {
			v.app.notify(journal.LevelInfo, "Picture attached (%s)", info)
			return
		}
	}
	v.app.notify(journal.LevelInfo, "Attached %s", path)
}

func attachMessage(err error) string {
	switch {
	case errors.Is(err, employee.ErrUnsupportedFileType):
		return "Invalid file type. Please upload a PDF, Word document or image."
	case errors.Is(err, employee.ErrFileTooLarge):
		return "File size exceeds 5MB limit"
	case errors.Is(err, employee.ErrNotAnImage):
		return "Please choose a JPEG, PNG or WebP image"
	}
	return err.Error()
}

func (v *wizardView) preview() tea.Cmd {
	var (
		path string
		err  error
	)
	switch v.session.Controller.Stage() {
	case wizard.StagePersonalInfo:
		if v.session.Personal().Draft.Picture == nil {
			return nil
		}
		path, err = v.session.Personal().PreviewPicture()
	case wizard.StageDocuments:
		docs := v.session.Documents()
		if v.entry >= len(docs.Drafts) || docs.Drafts[v.entry].File == nil {
			return nil
		}
		path, err = docs.PreviewDraft(v.entry)
	default:
		return nil
	}
	if err != nil {
		v.app.notifyError(err, "Preview unavailable")
		return nil
	}
	v.app.notify(journal.LevelInfo, "Previewing %s", path)
	return nil
}

// entries reports how many drafts the list stage holds.
func (v *wizardView) entries() int {
	switch v.session.Controller.Stage() {
	case wizard.StageEducation:
		return len(v.session.Education().Drafts)
	case wizard.StageEmployment:
		return len(v.session.Employment().Drafts)
	case wizard.StageDocuments:
		return len(v.session.Documents().Drafts)
	case wizard.StageNextOfKin:
		return len(v.session.NextOfKin().Drafts)
	}
	return 0
}

func (v *wizardView) selectEntry(idx int) tea.Cmd {
	n := v.entries()
	if n == 0 || idx < 0 || idx >= n {
		return nil
	}
	v.entry = idx
	v.rebuild()
	return nil
}

func (v *wizardView) addEntry() tea.Cmd {
	var idx int
	switch v.session.Controller.Stage() {
	case wizard.StageEducation:
		idx = v.session.Education().AddDraft()
	case wizard.StageEmployment:
		idx = v.session.Employment().AddDraft()
	case wizard.StageDocuments:
		idx = v.session.Documents().AddDraft()
	case wizard.StageNextOfKin:
		idx = v.session.NextOfKin().AddDraft()
	default:
		return nil
	}
	v.entry = idx
	v.rebuild()
	return nil
}

func (v *wizardView) removeEntry() tea.Cmd {
	var err error
	switch v.session.Controller.Stage() {
	case wizard.StageEducation:
		err = v.session.Education().RemoveDraft(v.entry)
	case wizard.StageEmployment:
		err = v.session.Employment().RemoveDraft(v.entry)
	case wizard.StageDocuments:
		err = v.session.Documents().RemoveDraft(v.entry)
	case wizard.StageNextOfKin:
		err = v.session.NextOfKin().RemoveDraft(v.entry)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	v.entry = max(0, min(v.entry, v.entries()-1))
	v.issues = nil
	v.rebuild()
	return nil
}

// submit validates in place and only goes to the network when the drafts
// are complete.
func (v *wizardView) submit() tea.Cmd {
	form := v.session.Form()
	if issues := form.Validate(); len(issues) > 0 {
		v.issues = issues
		v.app.notify(journal.LevelWarn, "Please fill in all required fields")
		return nil
	}
	v.issues = nil
	session := v.session
	stage := session.Controller.Stage()
	call, err := session.PrepareSubmit()
	if err != nil {
		v.submitFailed(stage, err)
		return nil
	}
	v.busy = true
	submit := func() tea.Msg {
		return wizardSubmittedMsg{session: session, stage: stage, reply: call(context.Background())}
	}
	return tea.Batch(v.spinner.Tick, submit)
}

func (v *wizardView) handleStoredKey(key string) tea.Cmd {
	docs := v.session.Documents()
	switch key {
	case "esc", "ctrl+e":
		v.browsing = false
		return nil
	case "up", "k":
		if v.stored > 0 {
			v.stored--
		}
		return nil
	case "down", "j":
		if v.stored < len(docs.Existing)-1 {
			v.stored++
		}
		return nil
	}
	if len(docs.Existing) == 0 {
		return nil
	}
	idx := v.stored
	session := v.session
	switch key {
	case "v", "enter":
		if err := docs.View(idx); err != nil {
			v.app.notifyError(err, "Error viewing document")
		}
		return nil
	case "g":
		download, err := docs.PrepareDownload(idx, v.app.config.DownloadsDir())
		if err != nil {
			v.app.notifyError(err, "Error downloading document")
			return nil
		}
		v.busy = true
		return tea.Batch(v.spinner.Tick, func() tea.Msg {
			path, err := download(context.Background())
			return documentActionMsg{session: session, action: "download", path: path, err: err}
		})
	case "x":
		call, err := docs.PrepareDelete(session.Controller.EmployeeID(), idx)
		if err != nil {
			v.app.notifyError(err, "Error deleting document")
			return nil
		}
		v.busy = true
		return tea.Batch(v.spinner.Tick, func() tea.Msg {
			return documentActionMsg{session: session, action: "delete", reply: call(context.Background())}
		})
	}
	return nil
}

func (v *wizardView) View() string {
	var b strings.Builder
	b.WriteString(v.renderProgress())
	b.WriteString("\n\n")
	stage := v.session.Controller.Stage()
	title := stage.String()
	if id := v.session.Controller.EmployeeID(); id != "" {
		title += detailTextStyle.Render("  · employee " + id)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if v.loading {
		b.WriteString(v.spinner.View() + " Loading " + stage.Subject() + "…")
		return b.String()
	}
	if v.busy {
		b.WriteString(v.spinner.View() + " Saving " + stage.Subject() + "…")
		return b.String()
	}
	if summary := v.renderExisting(); summary != "" {
		b.WriteString(summary)
		b.WriteString("\n")
	}
	if v.browsing {
		b.WriteString(hint("↑/↓=select  v=view  g=download  x=delete  esc=back to drafts"))
		return b.String()
	}
	if n := v.entries(); n > 0 {
		b.WriteString(detailTextStyle.Render(fmt.Sprintf("New entry %d of %d", v.entry+1, n)))
		b.WriteString("\n")
	} else if stage != wizard.StagePersonalInfo {
		b.WriteString(detailTextStyle.Render("No new entries. ctrl+a adds one; ctrl+s continues."))
		b.WriteString("\n")
	}
	b.WriteString(v.renderFields())
	if len(v.issues) > 0 {
		b.WriteString("\n")
		for _, issue := range v.issues {
			b.WriteString(issueStyle.Render("• " + issue.String()))
			b.WriteString("\n")
		}
	}
	b.WriteString(hint(v.hints()))
	return b.String()
}

func (v *wizardView) hints() string {
	parts := []string{"tab/↑↓=field", "ctrl+←/→=choose", "ctrl+s=save & continue"}
	stage := v.session.Controller.Stage()
	if stage != wizard.StagePersonalInfo {
		parts = append(parts, "ctrl+b=back", "ctrl+a=add", "ctrl+r=remove", "pgup/pgdn=entry")
	}
	switch stage {
	case wizard.StagePersonalInfo:
		parts = append(parts, "enter on picture=attach", "ctrl+v=preview")
	case wizard.StageEducation:
		parts = append(parts, "enter on certificate=attach")
	case wizard.StageDocuments:
		parts = append(parts, "enter on file=attach", "ctrl+v=preview", "ctrl+e=stored documents")
	case wizard.StageNextOfKin:
		parts = append(parts, "space on primary=toggle")
	}
	parts = append(parts, "esc=close")
	return strings.Join(parts, "  ")
}

func (v *wizardView) renderProgress() string {
	current := v.session.Controller.Stage()
	parts := make([]string, 0, len(wizard.Stages))
	for _, stage := range wizard.Stages {
		label := fmt.Sprintf("%d. %s", stage.Position(), stage)
		switch {
		case stage == current:
			parts = append(parts, stageCurrentStyle.Render(label))
		case stage.Position() < current.Position():
			parts = append(parts, stageDoneStyle.Render(label))
		default:
			parts = append(parts, stagePendingStyle.Render(label))
		}
	}
	return strings.Join(parts, " → ")
}

func (v *wizardView) renderFields() string {
	start := 0
	if v.focus >= visibleFields {
		start = v.focus - visibleFields + 1
	}
	end := min(len(v.fields), start+visibleFields)
	var lines []string
	for i := start; i < end; i++ {
		field := v.fields[i]
		label := fmt.Sprintf("%-22s", field.label)
		if i == v.focus {
			label = focusLabelStyle.Render(label)
		}
		value := v.inputs[i].View()
		if field.toggle != nil {
			value = "[ ]"
			if field.value() == "true" {
				value = "[x]"
			}
		}
		line := label + " " + value
		if v.issues.Has(field.key) {
			line += issueStyle.Render("  !")
		}
		if field.key == "email" {
			if msg := v.session.Personal().EmailError(); msg != "" {
				line += issueStyle.Render("  " + msg)
			}
		}
		if strings.HasSuffix(field.key, "endDate") && v.session.Controller.Stage() == wizard.StageEmployment {
			if d := v.session.Employment().DraftDuration(v.entry); d != "" {
				line += detailTextStyle.Render("  (" + d + ")")
			}
		}
		lines = append(lines, line)
	}
	if end < len(v.fields) {
		lines = append(lines, detailTextStyle.Render(fmt.Sprintf("… %d more", len(v.fields)-end)))
	}
	return strings.Join(lines, "\n")
}

// renderExisting summarizes the entries already stored for the stage.
func (v *wizardView) renderExisting() string {
	var lines []string
	switch v.session.Controller.Stage() {
	case wizard.StageEducation:
		for _, e := range v.session.Education().Existing {
			lines = append(lines, fmt.Sprintf("%s, %s (%s)", e.Degree, e.Institute, e.PassingYear))
		}
	case wizard.StageEmployment:
		for _, e := range v.session.Employment().Existing {
			lines = append(lines, fmt.Sprintf("%s at %s · %s", e.JobTitle, e.EmployerName, e.Duration))
		}
	case wizard.StageDocuments:
		for i, d := range v.session.Documents().Existing {
			line := fmt.Sprintf("%s: %s", d.DocumentType, d.DocumentTitle)
			if v.browsing && i == v.stored {
				line = "> " + line
			} else if v.browsing {
				line = "  " + line
			}
			lines = append(lines, line)
		}
	case wizard.StageNextOfKin:
		for _, k := range v.session.NextOfKin().Existing {
			line := fmt.Sprintf("%s (%s) %s", k.FullName, k.Relationship, k.PhoneNumber)
			if k.IsPrimary {
				line += " · primary"
			}
			lines = append(lines, line)
		}
	default:
		return ""
	}
	if len(lines) == 0 {
		if v.browsing {
			return detailTextStyle.Render("No stored documents.")
		}
		return ""
	}
	head := detailTextStyle.Render(fmt.Sprintf("Saved (%d):", len(lines)))
	return head + "\n" + detailTextStyle.Render(strings.Join(lines, "\n"))
}
