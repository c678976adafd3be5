// Package report renders employee records into files HR staff share outside
// the console: a workbook of the employee list and a one-page profile sheet.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kingrea/hrdesk/internal/employee"
)

// EmployeesSheet is the worksheet name used by WriteEmployees.
const EmployeesSheet = "Employees"

// EmployeeColumns are the header cells of the employee workbook, in order.
var EmployeeColumns = []string{
	"ID", "Name", "Email", "Phone", "Department", "Job Title", "Start Date",
	"Salary", "Status", "Nationality", "Country", "City", "Visa Type",
	"Visa Expiry", "Educations", "Employments", "Documents", "Next of Kin",
}

func employeeRow(e employee.Employee) []any {
	var salary any
	if e.Salary != 0 {
		salary = float64(e.Salary)
	}
	return []any{
		e.ID, e.FullName(), e.Email, e.PhoneNumber, e.Department, e.JobTitle,
		e.StartDate, salary, e.EmployeeStatus, e.Nationality, e.Country, e.City,
		e.VisaType, e.VisaExpiryDate, len(e.Educations), len(e.Employments),
		len(e.Documents), primaryContact(e.NextOfKins),
	}
}

func primaryContact(list []employee.NextOfKin) string {
	for _, k := range list {
		if k.IsPrimary {
			return strings.TrimSpace(k.FullName + " (" + k.Relationship + ")")
		}
	}
	return ""
}

// WriteEmployees writes the employee list as an XLSX workbook to w.
func WriteEmployees(w io.Writer, employees []employee.Employee) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), EmployeesSheet); err != nil {
		return fmt.Errorf("report: rename sheet: %w", err)
	}
	header := make([]any, len(EmployeeColumns))
	for i, col := range EmployeeColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(EmployeesSheet, "A1", &header); err != nil {
		return fmt.Errorf("report: write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return fmt.Errorf("report: header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(EmployeeColumns), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(EmployeesSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("report: apply header style: %w", err)
	}

	for i, e := range employees {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := employeeRow(e)
		if err := f.SetSheetRow(EmployeesSheet, cell, &row); err != nil {
			return fmt.Errorf("report: write row %d: %w", i+2, err)
		}
	}

	if len(employees) > 0 {
		lastCell, err := excelize.CoordinatesToCellName(len(EmployeeColumns), len(employees)+1)
		if err != nil {
			return err
		}
		if err := f.AutoFilter(EmployeesSheet, "A1:"+lastCell, nil); err != nil {
			return fmt.Errorf("report: autofilter: %w", err)
		}
	}
	if err := f.SetPanes(EmployeesSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("report: freeze header: %w", err)
	}
	if err := f.SetColWidth(EmployeesSheet, "B", "C", 28); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: write workbook: %w", err)
	}
	return nil
}

// ReadEmployeeRows returns the data rows (header excluded) of a workbook
// produced by WriteEmployees.
func ReadEmployeeRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("report: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(EmployeesSheet)
	if err != nil {
		return nil, fmt.Errorf("report: read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("report: worksheet is empty")
	}
	return rows[1:], nil
}
