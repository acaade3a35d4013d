package trackerapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskgrid/internal/config"
	"taskgrid/internal/service"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewWithHTTPClient(srv.URL+"/", srv.Client())
}

func TestListTasks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/jira" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %q", got)
		}
		io.WriteString(w, `[{"ID_Jira":"J-1","Actividades":"write docs","Estado_Jira":"TO DO","Responsable":"deploy"},{"ID_Jira":"J-2"}]`)
	})

	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2", len(tasks))
	}
	want := service.Task{ID: "J-1", Description: "write docs", Stage: "TO DO", Owner: "deploy"}
	if tasks[0] != want {
		t.Errorf("task = %+v, want %+v", tasks[0], want)
	}
}

func TestListTasks_NotAnArray(t *testing.T) {
	for _, body := range []string{`{"error":"nope"}`, `null`, `not json`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, body)
		})
		_, err := c.ListTasks(context.Background())
		if !errors.Is(err, service.ErrMalformed) {
			t.Errorf("body %s: err = %v, want ErrMalformed", body, err)
		}
	}
}

func TestListTasks_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":"jira unavailable"}`)
	})

	_, err := c.ListTasks(context.Background())
	if !errors.Is(err, service.ErrStatus) {
		t.Fatalf("err = %v, want ErrStatus", err)
	}
	if !strings.Contains(err.Error(), "500 jira unavailable") {
		t.Errorf("err = %q, want code and backend message", err)
	}
}

func TestListTasks_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewWithHTTPClient(url, &http.Client{Timeout: time.Second})
	_, err := c.ListTasks(context.Background())
	if !errors.Is(err, service.ErrTransport) {
		t.Errorf("err = %v, want ErrTransport", err)
	}
}

func TestUpdateTasks(t *testing.T) {
	var got struct {
		Data []map[string]any `json:"data"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/update" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		io.WriteString(w, `{"message":"ok"}`)
	})

	err := c.UpdateTasks(context.Background(), []service.Task{
		{ID: "J-1", Owner: "deploy", State: service.Committed},
	})
	if err != nil {
		t.Fatalf("UpdateTasks: %v", err)
	}
	if len(got.Data) != 1 || got.Data[0]["ID_Jira"] != "J-1" {
		t.Fatalf("payload = %+v", got.Data)
	}
	if _, ok := got.Data[0]["State"]; ok {
		t.Error("local state sent to backend")
	}
	if _, ok := got.Data[0]["Liberacion"]; !ok {
		t.Error("empty fields omitted from payload")
	}
}

func TestCreateTasks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/create-tasks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Tasks []service.Task `json:"tasks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if len(req.Tasks) != 1 || req.Tasks[0].ID != "NEW-5" {
			t.Errorf("tasks = %+v", req.Tasks)
		}
		io.WriteString(w, `{"created_tasks":[{"temp_id":"NEW-5","jira_id":"J-2"}]}`)
	})

	created, err := c.CreateTasks(context.Background(), []service.Task{{ID: "NEW-5"}})
	if err != nil {
		t.Fatalf("CreateTasks: %v", err)
	}
	want := service.CreatedTask{TempID: "NEW-5", JiraID: "J-2"}
	if len(created) != 1 || created[0] != want {
		t.Errorf("created = %+v, want [%+v]", created, want)
	}
}

func TestCreateTasks_NoMapping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})
	created, err := c.CreateTasks(context.Background(), []service.Task{{ID: "NEW-5"}})
	if err != nil {
		t.Fatalf("CreateTasks: %v", err)
	}
	if len(created) != 0 {
		t.Errorf("created = %+v, want none", created)
	}
}

func TestImportSpreadsheet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/import-excel" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if header.Filename != "book.xlsx" || string(data) != "PK-sheet" {
			t.Errorf("upload = %s %q", header.Filename, data)
		}
		io.WriteString(w, `{"tasks":[{"Actividades":"row one"},{"ID_Jira":"J-3","Responsable":"bob"}]}`)
	})

	tasks, err := c.ImportSpreadsheet(context.Background(), "book.xlsx", strings.NewReader("PK-sheet"))
	if err != nil {
		t.Fatalf("ImportSpreadsheet: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Description != "row one" || tasks[1].ID != "J-3" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestImportSpreadsheet_MissingTasks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"rows":[]}`)
	})
	_, err := c.ImportSpreadsheet(context.Background(), "book.xlsx", strings.NewReader(""))
	if !errors.Is(err, service.ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestNew_BearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	token := `{"access_token":"s3cret","token_type":"Bearer"}`
	if err := os.WriteFile(filepath.Join(dir, config.TokenFile), []byte(token), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{Dir: dir, Settings: config.Settings{BackendURL: srv.URL, HTTPTimeout: 5 * time.Second}}
	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.ListTasks(context.Background()); err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", auth)
	}
}

func TestNew_InvalidToken(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.TokenFile), []byte(`{}`), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{Dir: dir}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for empty token")
	}
}
