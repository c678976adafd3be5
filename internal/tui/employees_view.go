package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/journal"
)

type employeesLoadedMsg struct {
	employees []employee.Employee
	message   string
	success   bool
	err       error
}

type employeeDeletedMsg struct {
	id      string
	message string
	success bool
	err     error
}

// employeesView is the employee table with a search box and pages.
type employeesView struct {
	app *App

	all      []employee.Employee
	filtered []employee.Employee

	table     table.Model
	search    textinput.Model
	searching bool
	pager     paginator.Model

	loading       bool
	loaded        bool
	pendingDelete string
}

func newEmployeesView(app *App) *employeesView {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "name, email, department…"
	search.Cursor.SetMode(cursor.CursorStatic)

	pager := paginator.New()
	pager.Type = paginator.Arabic
	pager.PerPage = app.config.PageSize()

	t := table.New(
		table.WithColumns(employeeColumns(100)),
		table.WithFocused(true),
		table.WithHeight(pager.PerPage+1),
	)
	t.SetStyles(tableStyles())

	return &employeesView{app: app, table: t, search: search, pager: pager}
}

func employeeColumns(width int) []table.Column {
	w := max(60, width-8)
	return []table.Column{
		{Title: "Name", Width: w * 24 / 100},
		{Title: "Email", Width: w * 26 / 100},
		{Title: "Department", Width: w * 16 / 100},
		{Title: "Job Title", Width: w * 18 / 100},
		{Title: "Status", Width: w * 12 / 100},
	}
}

func (v *employeesView) resize(width, height int) {
	v.table.SetColumns(employeeColumns(width))
	v.search.Width = max(20, width/2)
}

func (v *employeesView) reload() tea.Cmd {
	v.loading = true
	client := v.app.client
	return func() tea.Msg {
		res, err := client.GetAllEmployees(context.Background())
		return employeesLoadedMsg{employees: res.Data, message: res.Message, success: res.Success, err: err}
	}
}

func (v *employeesView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case employeesLoadedMsg:
		v.loading = false
		switch {
		case m.err != nil:
			v.app.notifyError(m.err, "Error fetching employees")
		case !m.success:
			v.app.notify(journal.LevelError, "%s", fallbackText(m.message, "Error fetching employees"))
		default:
			v.all = m.employees
			v.loaded = true
			v.applyFilter()
		}
		return nil
	case employeeDeletedMsg:
		switch {
		case m.err != nil:
			v.app.notifyError(m.err, "Error deleting employee")
			return nil
		case !m.success:
			v.app.notify(journal.LevelError, "%s", fallbackText(m.message, "Error deleting employee"))
			return nil
		}
		v.app.notify(journal.LevelInfo, "%s", fallbackText(m.message, "Employee deleted successfully"))
		return v.reload()
	case tea.KeyMsg:
		return v.handleKey(m)
	}
	return nil
}

func (v *employeesView) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if v.searching {
		switch key {
		case "enter", "esc":
			v.searching = false
			v.search.Blur()
			v.table.Focus()
			return nil
		}
		var cmd tea.Cmd
		v.search, cmd = v.search.Update(msg)
		v.applyFilter()
		return cmd
	}
	if v.pendingDelete != "" {
		id := v.pendingDelete
		v.pendingDelete = ""
		if key == "y" {
			return v.deleteEmployee(id)
		}
		v.app.notify(journal.LevelInfo, "Delete cancelled")
		return nil
	}
	switch key {
	case "esc", "q":
		return v.app.returnToMainMenu()
	case "/":
		v.searching = true
		v.table.Blur()
		return v.search.Focus()
	case "a":
		return v.app.startWizard("")
	case "enter", "e":
		if emp, ok := v.selected(); ok {
			return v.app.startWizard(emp.ID)
		}
		return nil
	case "d":
		if emp, ok := v.selected(); ok {
			v.pendingDelete = emp.ID
			v.app.notify(journal.LevelWarn, "Delete %s? Press y to confirm", emp.FullName())
		}
		return nil
	case "p":
		if emp, ok := v.selected(); ok {
			return v.app.writeProfile(emp.ID)
		}
		return nil
	case "x":
		return v.app.exportEmployees()
	case "r":
		return v.reload()
	case "right", "pgdown":
		v.pager.NextPage()
		v.refreshTable()
		return nil
	case "left", "pgup":
		v.pager.PrevPage()
		v.refreshTable()
		return nil
	}
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return cmd
}

func (v *employeesView) deleteEmployee(id string) tea.Cmd {
	client := v.app.client
	return func() tea.Msg {
		res, err := client.DeleteEmployee(context.Background(), id)
		return employeeDeletedMsg{id: id, message: res.Message, success: res.Success, err: err}
	}
}

// applyFilter narrows the list to the search query and returns to page one.
func (v *employeesView) applyFilter() {
	query := v.search.Value()
	v.filtered = v.filtered[:0]
	for _, emp := range v.all {
		if emp.Matches(query) {
			v.filtered = append(v.filtered, emp)
		}
	}
	v.pager.Page = 0
	v.table.SetCursor(0)
	v.refreshTable()
}

func (v *employeesView) refreshTable() {
	total := len(v.filtered)
	if total == 0 {
		v.pager.TotalPages = 1
	} else {
		v.pager.SetTotalPages(total)
	}
	start, end := v.pager.GetSliceBounds(total)
	rows := make([]table.Row, 0, end-start)
	for _, emp := range v.filtered[start:end] {
		rows = append(rows, table.Row{emp.FullName(), emp.Email, emp.Department, emp.JobTitle, emp.EmployeeStatus})
	}
	v.table.SetRows(rows)
	if v.table.Cursor() >= len(rows) {
		v.table.SetCursor(max(0, len(rows)-1))
	}
}

// selected returns the employee under the cursor on the current page.
func (v *employeesView) selected() (employee.Employee, bool) {
	idx := v.pager.Page*v.pager.PerPage + v.table.Cursor()
	if len(v.table.Rows()) == 0 || idx < 0 || idx >= len(v.filtered) {
		return employee.Employee{}, false
	}
	return v.filtered[idx], true
}

func (v *employeesView) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Employees (%d)", len(v.filtered))))
	b.WriteString("\n")
	b.WriteString(v.search.View())
	b.WriteString("\n\n")
	switch {
	case v.loading && !v.loaded:
		b.WriteString("Loading employees…")
	case len(v.filtered) == 0 && v.search.Value() != "":
		b.WriteString("No employees match the search.")
	case len(v.filtered) == 0:
		b.WriteString("No employees yet. Press a to add one.")
	default:
		b.WriteString(v.table.View())
		b.WriteString("\n")
		b.WriteString(v.pager.View())
	}
	b.WriteString(hint("enter/e=edit  a=add  d=delete  p=profile pdf  x=export  /=search  ←/→=page  r=reload  esc=menu"))
	return b.String()
}

func fallbackText(message, def string) string {
	if strings.TrimSpace(message) == "" {
		return def
	}
	return message
}
