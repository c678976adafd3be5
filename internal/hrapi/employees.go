package hrapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kingrea/hrdesk/internal/employee"
)

func (c *Client) GetAllEmployees(ctx context.Context) (Result[[]employee.Employee], error) {
	return call[[]employee.Employee](ctx, c, http.MethodGet, "/employees", nil)
}

func (c *Client) GetEmployeeByID(ctx context.Context, id string) (Result[employee.Employee], error) {
	if err := requireID(id); err != nil {
		return Result[employee.Employee]{}, err
	}
	return call[employee.Employee](ctx, c, http.MethodGet, "/employees/"+url.PathEscape(id), nil)
}

// CreateEmployee posts the first slice of a new record; the response carries
// the id the backend assigned.
func (c *Client) CreateEmployee(ctx context.Context, payload Payload) (Result[employee.Employee], error) {
	return call[employee.Employee](ctx, c, http.MethodPost, "/employees", payload)
}

// UpdateEmployee patches part of the record. List fields in the payload
// replace the stored lists wholesale.
func (c *Client) UpdateEmployee(ctx context.Context, id string, payload Payload) (Result[employee.Employee], error) {
	if err := requireID(id); err != nil {
		return Result[employee.Employee]{}, err
	}
	return call[employee.Employee](ctx, c, http.MethodPatch, "/employees/"+url.PathEscape(id), payload)
}

func (c *Client) DeleteEmployee(ctx context.Context, id string) (Result[json.RawMessage], error) {
	if err := requireID(id); err != nil {
		return Result[json.RawMessage]{}, err
	}
	return call[json.RawMessage](ctx, c, http.MethodDelete, "/employees/"+url.PathEscape(id), nil)
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("hrapi: employee id is required")
	}
	return nil
}
