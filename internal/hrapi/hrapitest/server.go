// Package hrapitest runs an in-memory stand-in for the HR records API so
// client, wizard and UI tests can exercise real HTTP round trips.
package hrapitest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
)

// Fields sent as JSON strings inside multipart forms.
var listFields = map[string]bool{
	"educations":  true,
	"employments": true,
	"documents":   true,
	"nextOfKins":  true,
}

var indexedFile = regexp.MustCompile(`^(certificate|document)_(\d+)$`)

// Request is what the server saw for one call.
type Request struct {
	Method      string
	Path        string
	ContentType string
	Fields      map[string]any
	Files       map[string]string
	Header      http.Header
}

type fault struct {
	method  string
	status  int
	message string
}

// Server is a fake backend. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	order     []string
	employees map[string]map[string]any
	lookups   map[hrapi.Kind][]hrapi.Lookup
	files     map[string][]byte
	requests  []Request
	faults    []fault
}

// NewServer starts the fake; it is closed by t.Cleanup in callers.
func NewServer() *Server {
	s := &Server{
		employees: map[string]map[string]any{},
		lookups:   map[hrapi.Kind][]hrapi.Lookup{},
		files:     map[string][]byte{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// APIURL is the base URL to hand to hrapi.New.
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/employees", s.handleListEmployees)
		r.Post("/employees", s.handleCreateEmployee)
		r.Get("/employees/{id}", s.handleGetEmployee)
		r.Patch("/employees/{id}", s.handlePatchEmployee)
		r.Delete("/employees/{id}", s.handleDeleteEmployee)

		r.Get("/{kind}", s.handleListLookups)
		r.Post("/{kind}", s.handleCreateLookup)
		r.Put("/{kind}/{id}", s.handleUpdateLookup)
		r.Delete("/{kind}/{id}", s.handleDeleteLookup)
		r.Patch("/{kind}/{id}/toggle-status", s.handleToggleLookup)
	})
	r.Get("/uploads/{kind}/{name}", s.handleFile)
	return r
}

// Fail makes the next request with method answer with status and message.
// Status 200 produces a {success:false} body.
func (s *Server) Fail(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, status: status, message: message})
}

// SeedEmployee stores emp and returns its id.
func (s *Server) SeedEmployee(emp employee.Employee) string {
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	doc := toDocument(emp)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.employees[emp.ID]; !exists {
		s.order = append(s.order, emp.ID)
	}
	s.employees[emp.ID] = doc
	return emp.ID
}

// Employee returns the stored record.
func (s *Server) Employee(id string) (employee.Employee, bool) {
	s.mu.Lock()
	doc, ok := s.employees[id]
	s.mu.Unlock()
	if !ok {
		return employee.Employee{}, false
	}
	return fromDocument(doc), true
}

// EmployeeCount returns how many records are stored.
func (s *Server) EmployeeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.employees)
}

// SeedLookups replaces a reference collection, assigning ids where missing.
func (s *Server) SeedLookups(kind hrapi.Kind, items ...hrapi.Lookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]hrapi.Lookup, 0, len(items))
	for _, item := range items {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		out = append(out, item)
	}
	s.lookups[kind] = out
}

// Lookups returns the stored collection.
func (s *Server) Lookups(kind hrapi.Kind) []hrapi.Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hrapi.Lookup(nil), s.lookups[kind]...)
}

// PutFile makes data downloadable under /uploads/<kind>/<name>.
func (s *Server) PutFile(kind hrapi.UploadKind, name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[string(kind)+"/"+name] = data
}

// File returns an uploaded file's bytes.
func (s *Server) File(kind hrapi.UploadKind, name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[string(kind)+"/"+name]
	return data, ok
}

// Requests returns every call seen so far, oldest first.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent call with method.
func (s *Server) LastRequest(method string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Method == method {
			return s.requests[i], true
		}
	}
	return Request{}, false
}

// CountRequests counts calls with method.
func (s *Server) CountRequests(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.requests {
		if req.Method == method {
			n++
		}
	}
	return n
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r, nil, nil) {
		return
	}
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.employees[id])
	}
	s.mu.Unlock()
	writeOK(w, http.StatusOK, out, "")
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r, nil, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	doc, ok := s.employees[id]
	s.mu.Unlock()
	if !ok {
		writeFail(w, http.StatusNotFound, "Employee not found")
		return
	}
	writeOK(w, http.StatusOK, doc, "")
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	fields, files, err := s.readBody(r)
	if err != nil {
		s.begin(w, r, nil, nil)
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.begin(w, r, fields, fileNames(files)) {
		return
	}
	id := uuid.NewString()
	doc := map[string]any{}
	for k, v := range fields {
		doc[k] = v
	}
	doc["_id"] = id
	s.mu.Lock()
	s.attachFiles(doc, files)
	s.employees[id] = doc
	s.order = append(s.order, id)
	s.mu.Unlock()
	writeOK(w, http.StatusCreated, doc, "Employee created successfully")
}

func (s *Server) handlePatchEmployee(w http.ResponseWriter, r *http.Request) {
	fields, files, err := s.readBody(r)
	if err != nil {
		s.begin(w, r, nil, nil)
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.begin(w, r, fields, fileNames(files)) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	doc, ok := s.employees[id]
	if ok {
		for k, v := range fields {
			if k == "_id" {
				continue
			}
			doc[k] = v
		}
		s.attachFiles(doc, files)
	}
	s.mu.Unlock()
	if !ok {
		writeFail(w, http.StatusNotFound, "Employee not found")
		return
	}
	writeOK(w, http.StatusOK, doc, "Employee updated successfully")
}

func (s *Server) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r, nil, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	_, ok := s.employees[id]
	if ok {
		delete(s.employees, id)
		for i, candidate := range s.order {
			if candidate == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		writeFail(w, http.StatusNotFound, "Employee not found")
		return
	}
	writeOK(w, http.StatusOK, nil, "Employee deleted successfully")
}

func (s *Server) handleListLookups(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok || s.begin(w, r, nil, nil) {
		return
	}
	writeOK(w, http.StatusOK, s.Lookups(kind), "")
}

func (s *Server) handleCreateLookup(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}
	var item hrapi.Lookup
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.begin(w, r, nil, nil)
		writeFail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if s.begin(w, r, map[string]any{"name": item.Name}, nil) {
		return
	}
	if strings.TrimSpace(item.Name) == "" {
		writeOK(w, http.StatusOK, nil, "")
		return
	}
	item.ID = uuid.NewString()
	s.mu.Lock()
	s.lookups[kind] = append(s.lookups[kind], item)
	s.mu.Unlock()
	writeOK(w, http.StatusCreated, item, kind.Label()+" created")
}

func (s *Server) handleUpdateLookup(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok {
		return
	}
	var item hrapi.Lookup
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.begin(w, r, nil, nil)
		writeFail(w, http.StatusBadRequest, "invalid body")
		return
	}
	if s.begin(w, r, map[string]any{"name": item.Name}, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	updated, found := s.mutateLookup(kind, id, func(l *hrapi.Lookup) {
		item.ID = l.ID
		*l = item
	})
	if !found {
		writeFail(w, http.StatusNotFound, "Not found")
		return
	}
	writeOK(w, http.StatusOK, updated, kind.Label()+" updated")
}

func (s *Server) handleToggleLookup(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok || s.begin(w, r, nil, nil) {
		return
	}
	updated, found := s.mutateLookup(kind, chi.URLParam(r, "id"), func(l *hrapi.Lookup) {
		l.IsActive = !l.IsActive
	})
	if !found {
		writeFail(w, http.StatusNotFound, "Not found")
		return
	}
	writeOK(w, http.StatusOK, updated, "Status updated")
}

func (s *Server) handleDeleteLookup(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.kindParam(w, r)
	if !ok || s.begin(w, r, nil, nil) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	items := s.lookups[kind]
	found := false
	for i := range items {
		if items[i].ID == id {
			s.lookups[kind] = append(items[:i:i], items[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		writeFail(w, http.StatusNotFound, "Not found")
		return
	}
	writeOK(w, http.StatusOK, nil, kind.Label()+" deleted")
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	if s.begin(w, r, nil, nil) {
		return
	}
	data, ok := s.File(hrapi.UploadKind(chi.URLParam(r, "kind")), chi.URLParam(r, "name"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

func (s *Server) mutateLookup(kind hrapi.Kind, id string, fn func(*hrapi.Lookup)) (hrapi.Lookup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.lookups[kind]
	for i := range items {
		if items[i].ID == id {
			fn(&items[i])
			return items[i], true
		}
	}
	return hrapi.Lookup{}, false
}

func (s *Server) kindParam(w http.ResponseWriter, r *http.Request) (hrapi.Kind, bool) {
	kind := hrapi.Kind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeFail(w, http.StatusNotFound, "Route not found")
		return "", false
	}
	return kind, true
}

// begin records the request and applies a pending fault. It returns true
// when the fault already answered the request.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, fields map[string]any, files map[string]string) bool {
	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		Fields:      fields,
		Files:       files,
		Header:      r.Header.Clone(),
	})
	var pending *fault
	for i, f := range s.faults {
		if f.method == r.Method {
			pending = &s.faults[i]
			s.faults = append(s.faults[:i:i], s.faults[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	if pending == nil {
		return false
	}
	writeFail(w, pending.status, pending.message)
	return true
}

type upload struct {
	name string
	data []byte
}

func (s *Server) readBody(r *http.Request) (map[string]any, map[string]upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, nil, fmt.Errorf("parse form: %w", err)
		}
		fields := map[string]any{}
		for key, values := range r.MultipartForm.Value {
			if len(values) == 0 {
				continue
			}
			if listFields[key] {
				var decoded any
				if err := json.Unmarshal([]byte(values[0]), &decoded); err != nil {
					return nil, nil, fmt.Errorf("field %s: %w", key, err)
				}
				fields[key] = decoded
				continue
			}
			fields[key] = values[0]
		}
		files := map[string]upload{}
		for field, headers := range r.MultipartForm.File {
			if len(headers) == 0 {
				continue
			}
			f, err := headers[0].Open()
			if err != nil {
				return nil, nil, err
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, nil, err
			}
			files[field] = upload{name: headers[0].Filename, data: data}
		}
		return fields, files, nil
	default:
		fields := map[string]any{}
		if r.Body == nil {
			return fields, nil, nil
		}
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil && err != io.EOF {
			return nil, nil, fmt.Errorf("decode json: %w", err)
		}
		return fields, nil, nil
	}
}

// attachFiles stores uploads and points the record at them. Caller holds mu.
func (s *Server) attachFiles(doc map[string]any, files map[string]upload) {
	for field, up := range files {
		stored := uuid.NewString()[:8] + "-" + up.name
		switch {
		case field == "profilePicture":
			s.files[string(hrapi.UploadProfilePictures)+"/"+stored] = up.data
			doc["profilePicture"] = stored
		case indexedFile.MatchString(field):
			m := indexedFile.FindStringSubmatch(field)
			idx, _ := strconv.Atoi(m[2])
			list := "educations"
			if m[1] == "document" {
				list = "documents"
			}
			s.files[string(hrapi.UploadDocuments)+"/"+stored] = up.data
			if entries, ok := doc[list].([]any); ok && idx < len(entries) {
				if entry, ok := entries[idx].(map[string]any); ok {
					entry["documentPath"] = stored
				}
			}
		}
	}
}

func fileNames(files map[string]upload) map[string]string {
	if len(files) == 0 {
		return nil
	}
	out := make(map[string]string, len(files))
	for field, up := range files {
		out[field] = up.name
	}
	return out
}

func toDocument(emp employee.Employee) map[string]any {
	data, _ := json.Marshal(emp)
	doc := map[string]any{}
	_ = json.Unmarshal(data, &doc)
	return doc
}

func fromDocument(doc map[string]any) employee.Employee {
	data, _ := json.Marshal(doc)
	var emp employee.Employee
	_ = json.Unmarshal(data, &emp)
	return emp
}

func writeOK(w http.ResponseWriter, status int, data any, message string) {
	body := map[string]any{"success": true, "data": data}
	if message != "" {
		body["message"] = message
	}
	writeJSON(w, status, body)
}

func writeFail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
