package hrapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Kind names a reference collection exposed by the API.
type Kind string

const (
	KindTitles           Kind = "titles"
	KindCountries        Kind = "countries"
	KindCities           Kind = "cities"
	KindVisaTypes        Kind = "visa-types"
	KindDepartments      Kind = "departments"
	KindDesignations     Kind = "designations"
	KindNationalities    Kind = "nationalities"
	KindQualifications   Kind = "qualifications"
	KindEmployeeStatuses Kind = "employee-status"
)

// AllKinds lists every reference collection in display order.
var AllKinds = []Kind{
	KindTitles,
	KindCountries,
	KindCities,
	KindVisaTypes,
	KindDepartments,
	KindDesignations,
	KindNationalities,
	KindQualifications,
	KindEmployeeStatuses,
}

// Label is the human name of the collection.
func (k Kind) Label() string {
	switch k {
	case KindTitles:
		return "Titles"
	case KindCountries:
		return "Countries"
	case KindCities:
		return "Cities"
	case KindVisaTypes:
		return "Visa Types"
	case KindDepartments:
		return "Departments"
	case KindDesignations:
		return "Designations"
	case KindNationalities:
		return "Nationalities"
	case KindQualifications:
		return "Qualifications"
	case KindEmployeeStatuses:
		return "Employee Statuses"
	default:
		return string(k)
	}
}

// Valid reports whether k is a known collection.
func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind accepts the path segment or the label, case-insensitively.
func ParseKind(raw string) (Kind, error) {
	raw = strings.TrimSpace(raw)
	for _, k := range AllKinds {
		if strings.EqualFold(raw, string(k)) || strings.EqualFold(raw, k.Label()) {
			return k, nil
		}
	}
	return "", fmt.Errorf("hrapi: unknown reference collection %q", raw)
}

// Lookup is one reference item.
type Lookup struct {
	ID          string `json:"_id,omitempty" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Country     string `json:"country,omitempty" yaml:"country,omitempty"`
	IsActive    bool   `json:"isActive" yaml:"active"`
	IsDefault   bool   `json:"isDefault" yaml:"default"`
}

// UnmarshalJSON tolerates collections that name their display field
// "title" or "label" instead of "name", and items without an isActive flag.
func (l *Lookup) UnmarshalJSON(data []byte) error {
	type plain Lookup
	aux := struct {
		plain
		Title    string `json:"title"`
		Label    string `json:"label"`
		IsActive *bool  `json:"isActive"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*l = Lookup(aux.plain)
	if l.Name == "" {
		l.Name = aux.Title
	}
	if l.Name == "" {
		l.Name = aux.Label
	}
	l.IsActive = aux.IsActive == nil || *aux.IsActive
	return nil
}

func (c *Client) ListLookups(ctx context.Context, kind Kind) (Result[[]Lookup], error) {
	if err := requireKind(kind); err != nil {
		return Result[[]Lookup]{}, err
	}
	return call[[]Lookup](ctx, c, http.MethodGet, "/"+string(kind), nil)
}

func (c *Client) CreateLookup(ctx context.Context, kind Kind, item Lookup) (Result[Lookup], error) {
	if err := requireKind(kind); err != nil {
		return Result[Lookup]{}, err
	}
	return call[Lookup](ctx, c, http.MethodPost, "/"+string(kind), JSON(lookupBody(item)))
}

func (c *Client) UpdateLookup(ctx context.Context, kind Kind, id string, item Lookup) (Result[Lookup], error) {
	path, err := lookupPath(kind, id)
	if err != nil {
		return Result[Lookup]{}, err
	}
	return call[Lookup](ctx, c, http.MethodPut, path, JSON(lookupBody(item)))
}

func (c *Client) DeleteLookup(ctx context.Context, kind Kind, id string) (Result[json.RawMessage], error) {
	path, err := lookupPath(kind, id)
	if err != nil {
		return Result[json.RawMessage]{}, err
	}
	return call[json.RawMessage](ctx, c, http.MethodDelete, path, nil)
}

// ToggleLookupStatus flips the item's isActive flag server side.
func (c *Client) ToggleLookupStatus(ctx context.Context, kind Kind, id string) (Result[Lookup], error) {
	path, err := lookupPath(kind, id)
	if err != nil {
		return Result[Lookup]{}, err
	}
	return call[Lookup](ctx, c, http.MethodPatch, path+"/toggle-status", nil)
}

func lookupBody(item Lookup) map[string]any {
	body := map[string]any{
		"name":      strings.TrimSpace(item.Name),
		"isActive":  item.IsActive,
		"isDefault": item.IsDefault,
	}
	if item.Code != "" {
		body["code"] = item.Code
	}
	if item.Description != "" {
		body["description"] = item.Description
	}
	if item.Country != "" {
		body["country"] = item.Country
	}
	return body
}

func requireKind(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("hrapi: unknown reference collection %q", kind)
	}
	return nil
}

func lookupPath(kind Kind, id string) (string, error) {
	if err := requireKind(kind); err != nil {
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("hrapi: %s id is required", kind)
	}
	return "/" + string(kind) + "/" + url.PathEscape(id), nil
}
