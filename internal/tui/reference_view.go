package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/journal"
	"github.com/kingrea/hrdesk/internal/refdata"
)

// lookupsChangedMsg reports a create, update, toggle or delete together
// with the reloaded catalog.
type lookupsChangedMsg struct {
	kind    hrapi.Kind
	action  string
	success bool
	message string
	err     error
	catalog refdata.Catalog
	loadErr error
}

type lookupEditor struct {
	id        string
	active    bool
	isDefault bool
	inputs    []textinput.Model
	labels    []string
	focus     int
}

// referenceView administers one lookup collection at a time.
type referenceView struct {
	app  *App
	kind int

	table         table.Model
	items         []hrapi.Lookup
	editor        *lookupEditor
	pendingDelete string
	busy          bool
}

func newReferenceView(app *App) *referenceView {
	t := table.New(
		table.WithColumns(lookupColumns(100)),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())
	return &referenceView{app: app, table: t}
}

func lookupColumns(width int) []table.Column {
	w := max(60, width-8)
	return []table.Column{
		{Title: "Name", Width: w * 28 / 100},
		{Title: "Code", Width: w * 10 / 100},
		{Title: "Country", Width: w * 16 / 100},
		{Title: "Active", Width: w * 8 / 100},
		{Title: "Default", Width: w * 8 / 100},
		{Title: "Description", Width: w * 26 / 100},
	}
}

func (v *referenceView) resize(width, height int) {
	v.table.SetColumns(lookupColumns(width))
	v.table.SetHeight(max(5, height-18))
}

func (v *referenceView) currentKind() hrapi.Kind {
	return hrapi.AllKinds[v.kind]
}

// refreshTable shows every item of the current kind, inactive ones too.
func (v *referenceView) refreshTable() {
	v.items = v.app.catalog.All(v.currentKind())
	rows := make([]table.Row, 0, len(v.items))
	for _, item := range v.items {
		rows = append(rows, table.Row{item.Name, item.Code, item.Country, yesNo(item.IsActive), yesNo(item.IsDefault), item.Description})
	}
	v.table.SetRows(rows)
	if v.table.Cursor() >= len(rows) {
		v.table.SetCursor(max(0, len(rows)-1))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (v *referenceView) selected() (hrapi.Lookup, bool) {
	idx := v.table.Cursor()
	if idx < 0 || idx >= len(v.items) {
		return hrapi.Lookup{}, false
	}
	return v.items[idx], true
}

func (v *referenceView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case lookupsChangedMsg:
		v.busy = false
		switch {
		case m.err != nil:
			v.app.notifyError(m.err, "Error %s %s", gerund(m.action), strings.ToLower(m.kind.Label()))
		case !m.success:
			v.app.notify(journal.LevelError, "%s", fallbackText(m.message, fmt.Sprintf("Error %s %s", gerund(m.action), strings.ToLower(m.kind.Label()))))
		default:
			v.app.notify(journal.LevelInfo, "%s", fallbackText(m.message, m.kind.Label()+" updated"))
			v.editor = nil
		}
		if m.catalog != nil {
			v.app.catalog = m.catalog
		}
		if m.loadErr != nil {
			v.app.notifyError(m.loadErr, "Error reloading %s", strings.ToLower(m.kind.Label()))
		}
		v.refreshTable()
		return nil
	case tea.KeyMsg:
		if v.busy {
			return nil
		}
		if v.editor != nil {
			return v.handleEditorKey(m)
		}
		return v.handleKey(m)
	}
	return nil
}

func (v *referenceView) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if v.pendingDelete != "" {
		id := v.pendingDelete
		v.pendingDelete = ""
		if key == "y" {
			return v.mutate("delete", func(ctx context.Context, c *hrapi.Client, kind hrapi.Kind) (bool, string, error) {
				res, err := c.DeleteLookup(ctx, kind, id)
				return res.Success, res.Message, err
			})
		}
		v.app.notify(journal.LevelInfo, "Delete cancelled")
		return nil
	}
	switch key {
	case "esc", "q":
		return v.app.returnToMainMenu()
	case "tab", "right", "l":
		v.kind = (v.kind + 1) % len(hrapi.AllKinds)
		v.table.SetCursor(0)
		v.refreshTable()
		return nil
	case "shift+tab", "left", "h":
		v.kind = (v.kind - 1 + len(hrapi.AllKinds)) % len(hrapi.AllKinds)
		v.table.SetCursor(0)
		v.refreshTable()
		return nil
	case "r":
		v.app.refdata.Invalidate(v.currentKind())
		return v.app.loadReference()
	case "n":
		v.editor = v.newEditor(hrapi.Lookup{IsActive: true})
		return nil
	case "e", "enter":
		if item, ok := v.selected(); ok {
			v.editor = v.newEditor(item)
		}
		return nil
	case "t":
		if item, ok := v.selected(); ok {
			id := item.ID
			return v.mutate("update", func(ctx context.Context, c *hrapi.Client, kind hrapi.Kind) (bool, string, error) {
				res, err := c.ToggleLookupStatus(ctx, kind, id)
				return res.Success, res.Message, err
			})
		}
		return nil
	case "d":
		if item, ok := v.selected(); ok {
			v.pendingDelete = item.ID
			v.app.notify(journal.LevelWarn, "Delete %q? Press y to confirm", item.Name)
		}
		return nil
	}
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return cmd
}

// mutate runs call against the current collection, then drops the cached
// collection and reloads it so every view sees the change.
func (v *referenceView) mutate(action string, call func(context.Context, *hrapi.Client, hrapi.Kind) (bool, string, error)) tea.Cmd {
	v.busy = true
	kind := v.currentKind()
	client := v.app.client
	service := v.app.refdata
	return func() tea.Msg {
		ctx := context.Background()
		ok, message, err := call(ctx, client, kind)
		msg := lookupsChangedMsg{kind: kind, action: action, success: ok, message: message, err: err}
		if err == nil && ok {
			service.Invalidate(kind)
		}
		msg.catalog, msg.loadErr = service.Load(ctx)
		return msg
	}
}

func (v *referenceView) newEditor(item hrapi.Lookup) *lookupEditor {
	labels := []string{"Name*", "Code", "Description"}
	values := []string{item.Name, item.Code, item.Description}
	if v.currentKind() == hrapi.KindCities {
		labels = append(labels, "Country")
		values = append(values, item.Country)
	}
	ed := &lookupEditor{id: item.ID, active: item.IsActive, isDefault: item.IsDefault, labels: labels}
	for _, value := range values {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 128
		in.Width = 40
		in.Cursor.SetMode(cursor.CursorStatic)
		in.SetValue(value)
		ed.inputs = append(ed.inputs, in)
	}
	ed.inputs[0].Focus()
	return ed
}

func (ed *lookupEditor) value() hrapi.Lookup {
	item := hrapi.Lookup{
		ID:          ed.id,
		Name:        strings.TrimSpace(ed.inputs[0].Value()),
		Code:        strings.TrimSpace(ed.inputs[1].Value()),
		Description: strings.TrimSpace(ed.inputs[2].Value()),
		IsActive:    ed.active,
		IsDefault:   ed.isDefault,
	}
	if len(ed.inputs) > 3 {
		item.Country = strings.TrimSpace(ed.inputs[3].Value())
	}
	return item
}

func (v *referenceView) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	ed := v.editor
	switch msg.String() {
	case "esc":
		v.editor = nil
		return nil
	case "tab", "down":
		ed.inputs[ed.focus].Blur()
		ed.focus = (ed.focus + 1) % len(ed.inputs)
		ed.inputs[ed.focus].Focus()
		return nil
	case "shift+tab", "up":
		ed.inputs[ed.focus].Blur()
		ed.focus = (ed.focus - 1 + len(ed.inputs)) % len(ed.inputs)
		ed.inputs[ed.focus].Focus()
		return nil
	case "ctrl+d":
		ed.isDefault = !ed.isDefault
		return nil
	case "enter", "ctrl+s":
		item := ed.value()
		if item.Name == "" {
			v.app.notify(journal.LevelWarn, "Name is required")
			return nil
		}
		if item.ID == "" {
			return v.mutate("create", func(ctx context.Context, c *hrapi.Client, kind hrapi.Kind) (bool, string, error) {
				res, err := c.CreateLookup(ctx, kind, item)
				return res.Success, res.Message, err
			})
		}
		return v.mutate("update", func(ctx context.Context, c *hrapi.Client, kind hrapi.Kind) (bool, string, error) {
			res, err := c.UpdateLookup(ctx, kind, item.ID, item)
			return res.Success, res.Message, err
		})
	}
	var cmd tea.Cmd
	ed.inputs[ed.focus], cmd = ed.inputs[ed.focus].Update(msg)
	return cmd
}

func (v *referenceView) View() string {
	var b strings.Builder
	var tabs []string
	for i, kind := range hrapi.AllKinds {
		if i == v.kind {
			tabs = append(tabs, stageCurrentStyle.Render(kind.Label()))
		} else {
			tabs = append(tabs, stagePendingStyle.Render(kind.Label()))
		}
	}
	b.WriteString(strings.Join(tabs, " · "))
	b.WriteString("\n\n")
	kind := v.currentKind()
	if v.editor != nil {
		verb := "Edit"
		if v.editor.id == "" {
			verb = "New"
		}
		b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", verb, strings.ToLower(kind.Label()))))
		b.WriteString("\n")
		for i, in := range v.editor.inputs {
			label := fmt.Sprintf("%-14s", v.editor.labels[i])
			if i == v.editor.focus {
				label = focusLabelStyle.Render(label)
			}
			b.WriteString(label + " " + in.View() + "\n")
		}
		b.WriteString(fmt.Sprintf("%-14s [%s]\n", "Default", map[bool]string{true: "x", false: " "}[v.editor.isDefault]))
		b.WriteString(hint("tab=field  ctrl+d=toggle default  enter=save  esc=cancel"))
		return b.String()
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d)", kind.Label(), len(v.items))))
	b.WriteString("\n")
	if !v.app.refdata.Loaded(kind) && len(v.items) == 0 {
		b.WriteString("Loading…")
	} else if len(v.items) == 0 {
		b.WriteString("No items yet. Press n to add one.")
	} else {
		b.WriteString(v.table.View())
	}
	b.WriteString(hint("tab/←→=collection  n=new  e=edit  t=toggle active  d=delete  r=refresh  esc=menu"))
	return b.String()
}

func gerund(action string) string {
	if strings.HasSuffix(action, "e") {
		return strings.TrimSuffix(action, "e") + "ing"
	}
	return action + "ing"
}
