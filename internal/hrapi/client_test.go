package hrapi_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/hrdesk/internal/employee"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/hrapi/hrapitest"
)

func newClient(t *testing.T) (*hrapi.Client, *hrapitest.Server) {
	t.Helper()
	srv := hrapitest.NewServer()
	t.Cleanup(srv.Close)
	client, err := hrapi.New(srv.APIURL(), hrapi.WithToken("secret"))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestNewRejectsBadScheme(t *testing.T) {
	if _, err := hrapi.New("ftp://example.com/api"); err == nil {
		t.Fatalf("expected error for ftp scheme")
	}
	client, err := hrapi.New("")
	if err != nil {
		t.Fatalf("default base url: %v", err)
	}
	if client.BaseURL() != hrapi.DefaultBaseURL {
		t.Fatalf("base url = %q", client.BaseURL())
	}
	if client.UploadsURL() != "http://localhost:5000/uploads" {
		t.Fatalf("uploads url = %q", client.UploadsURL())
	}
}

func TestCreateAndFetchEmployee(t *testing.T) {
	client, srv := newClient(t)
	ctx := context.Background()

	res, err := client.CreateEmployee(ctx, hrapi.JSON(map[string]any{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
	}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !res.Success || res.Data.ID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Message != "Employee created successfully" {
		t.Fatalf("message = %q", res.Message)
	}

	got, err := client.GetEmployeeByID(ctx, res.Data.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Data.FullName() != "Ada Lovelace" {
		t.Fatalf("full name = %q", got.Data.FullName())
	}

	req, ok := srv.LastRequest(http.MethodPost)
	if !ok {
		t.Fatalf("post not recorded")
	}
	if req.Header.Get("Authorization") != "Bearer secret" {
		t.Fatalf("authorization = %q", req.Header.Get("Authorization"))
	}
	if req.Header.Get(hrapi.RequestIDHeader) == "" {
		t.Fatalf("missing request id")
	}
}

func TestUpdateEmployeeMultipart(t *testing.T) {
	client, srv := newClient(t)
	id := srv.SeedEmployee(employee.Employee{Personal: employee.Personal{FirstName: "Grace"}})

	dir := t.TempDir()
	certPath := filepath.Join(dir, "degree.pdf")
	if err := os.WriteFile(certPath, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cert, err := employee.OpenAttachment(certPath)
	if err != nil {
		t.Fatalf("open attachment: %v", err)
	}

	form := hrapi.NewForm()
	if err := form.SetJSON("educations", []employee.Education{{Degree: "BSc", Institute: "Yale", PassingYear: "1928"}}); err != nil {
		t.Fatalf("set json: %v", err)
	}
	form.AddFile("certificate_0", cert)
	if form.FileCount() != 1 {
		t.Fatalf("file count = %d", form.FileCount())
	}

	res, err := client.UpdateEmployee(context.Background(), id, form)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(res.Data.Educations) != 1 {
		t.Fatalf("educations = %+v", res.Data.Educations)
	}
	stored := res.Data.Educations[0].DocumentPath
	if !strings.HasSuffix(stored, "degree.pdf") {
		t.Fatalf("document path = %q", stored)
	}
	if res.Data.FirstName != "Grace" {
		t.Fatalf("patch dropped first name: %+v", res.Data.Personal)
	}

	req, _ := srv.LastRequest(http.MethodPatch)
	if !strings.HasPrefix(req.ContentType, "multipart/form-data") {
		t.Fatalf("content type = %q", req.ContentType)
	}
	if req.Files["certificate_0"] != "degree.pdf" {
		t.Fatalf("files = %v", req.Files)
	}

	var buf bytes.Buffer
	if _, err := client.Download(context.Background(), client.FileURL(hrapi.UploadDocuments, stored), &buf); err != nil {
		t.Fatalf("download: %v", err)
	}
	if buf.String() != "%PDF-1.4" {
		t.Fatalf("downloaded %q", buf.String())
	}
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	client, srv := newClient(t)
	srv.Fail(http.MethodGet, http.StatusInternalServerError, "database offline")

	_, err := client.GetAllEmployees(context.Background())
	var statusErr *hrapi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", statusErr.StatusCode)
	}
	if hrapi.ServerMessage(err) != "database offline" {
		t.Fatalf("server message = %q", hrapi.ServerMessage(err))
	}
}

func TestSuccessFalseIsNotAnError(t *testing.T) {
	client, srv := newClient(t)
	id := srv.SeedEmployee(employee.Employee{})
	srv.Fail(http.MethodPatch, http.StatusOK, "Email already taken")

	res, err := client.UpdateEmployee(context.Background(), id, hrapi.JSON(map[string]string{"email": "x@y.z"}))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Success {
		t.Fatalf("expected success=false")
	}
	if res.Message != "Email already taken" {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestEnvelopeVariants(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		success bool
		message string
		count   int
	}{
		{name: "bare array", body: `[{"name":"Mr"},{"title":"Dr"}]`, success: true, count: 2},
		{name: "wrapped", body: `{"success":true,"data":[{"name":"Mr"}]}`, success: true, count: 1},
		{name: "error string", body: `{"success":false,"error":"nope"}`, success: false, message: "nope"},
		{name: "error object", body: `{"success":false,"error":{"code":"X","message":"bad"}}`, success: false, message: "bad"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			client, err := hrapi.New(srv.URL + "/api")
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			res, err := client.ListLookups(context.Background(), hrapi.KindTitles)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if res.Success != tc.success || res.Message != tc.message || len(res.Data) != tc.count {
				t.Fatalf("got %+v", res)
			}
			if tc.count == 2 && res.Data[1].Name != "Dr" {
				t.Fatalf("title fallback not applied: %+v", res.Data[1])
			}
		})
	}
}

func TestLookupLifecycle(t *testing.T) {
	client, srv := newClient(t)
	ctx := context.Background()

	created, err := client.CreateLookup(ctx, hrapi.KindDepartments, hrapi.Lookup{Name: " Finance ", IsActive: true})
	if err != nil || !created.Success {
		t.Fatalf("create: %v %+v", err, created)
	}
	if created.Data.Name != "Finance" {
		t.Fatalf("name not trimmed: %q", created.Data.Name)
	}

	toggled, err := client.ToggleLookupStatus(ctx, hrapi.KindDepartments, created.Data.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Data.IsActive {
		t.Fatalf("expected inactive after toggle")
	}

	updated, err := client.UpdateLookup(ctx, hrapi.KindDepartments, created.Data.ID, hrapi.Lookup{Name: "Finance & Ops", IsDefault: true})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Data.IsDefault || updated.Data.Name != "Finance & Ops" {
		t.Fatalf("update = %+v", updated.Data)
	}

	if _, err := client.DeleteLookup(ctx, hrapi.KindDepartments, created.Data.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := srv.Lookups(hrapi.KindDepartments); len(got) != 0 {
		t.Fatalf("lookups after delete = %+v", got)
	}

	if _, err := client.ListLookups(ctx, hrapi.Kind("planets")); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if _, err := client.DeleteLookup(ctx, hrapi.KindTitles, " "); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]hrapi.Kind{
		"visa-types":        hrapi.KindVisaTypes,
		"Employee Statuses": hrapi.KindEmployeeStatuses,
		" CITIES ":          hrapi.KindCities,
	} {
		got, err := hrapi.ParseKind(raw)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := hrapi.ParseKind("planets"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFileURL(t *testing.T) {
	client, err := hrapi.New("https://hr.example.com/api")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	cases := map[string]string{
		"cv.pdf":                         "https://hr.example.com/uploads/documents/cv.pdf",
		"uploads/documents/cv.pdf":       "https://hr.example.com/uploads/documents/cv.pdf",
		"/uploads/documents/my cv.pdf":   "https://hr.example.com/uploads/documents/my%20cv.pdf",
		"https://cdn.example.com/cv.pdf": "https://cdn.example.com/cv.pdf",
		"":                               "",
	}
	for ref, want := range cases {
		if got := client.FileURL(hrapi.UploadDocuments, ref); got != want {
			t.Fatalf("FileURL(%q) = %q, want %q", ref, got, want)
		}
	}
}

func TestDeleteEmployee(t *testing.T) {
	client, srv := newClient(t)
	id := srv.SeedEmployee(employee.Employee{})
	if _, err := client.DeleteEmployee(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if srv.EmployeeCount() != 0 {
		t.Fatalf("employee not removed")
	}
	_, err := client.GetEmployeeByID(context.Background(), id)
	var statusErr *hrapi.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}
