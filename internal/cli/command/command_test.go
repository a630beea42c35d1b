package command

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yndnr/contacts-go/internal/cli/config"
)

// fakeAPI is a minimal stand-in for the contacts server.
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recorded
}

type recorded struct {
	method, path, query, auth, contentType, body string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	mux := http.NewServeMux()

	ok := func(w http.ResponseWriter, status int, data any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"code": "OK", "message": "Success", "data": data})
	}
	fail := func(w http.ResponseWriter, status int, code, msg string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{"code": code, "message": msg})
	}
	ann := map[string]any{"id": 7, "name": "Ann", "surname": "Lee", "email": "ann@example.com", "phone": "+15550100", "birthday": "1990-05-04", "note": "met at work"}
	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer access-1" && r.Header.Get("Authorization") != "Bearer access-2" {
				fail(w, http.StatusUnauthorized, "CT-AUTH-4011", "invalid token")
				return
			}
			h(w, r)
		}
	}

	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusCreated, map[string]any{"id": 1, "username": "ann", "email": "ann@example.com"})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("username") != "ann@example.com" || r.FormValue("password") != "secret123" {
			fail(w, http.StatusUnauthorized, "CT-AUTH-4010", "invalid credentials")
			return
		}
		ok(w, http.StatusOK, map[string]string{"access_token": "access-1", "refresh_token": "refresh-1", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /auth/refresh_token", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer refresh-1" {
			fail(w, http.StatusUnauthorized, "CT-AUTH-4016", "refresh token mismatch")
			return
		}
		ok(w, http.StatusOK, map[string]string{"access_token": "access-2", "refresh_token": "refresh-2", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /auth/confirmed_email/{token}", func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]string{"message": "Email confirmed"})
	})
	mux.HandleFunc("POST /auth/request_email", func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]string{"message": "Check your email for confirmation."})
	})
	mux.HandleFunc("GET /users/me", authed(func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]any{"id": 1, "username": "ann", "email": "ann@example.com", "confirmed": true})
	}))
	mux.HandleFunc("PATCH /users/avatar", authed(func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]any{"id": 1, "username": "ann", "avatar": "http://cdn/avatars/1.png"})
	}))
	mux.HandleFunc("GET /contacts", authed(func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]any{"items": []any{ann}, "total": 1, "page": 1, "page_size": 20})
	}))
	mux.HandleFunc("POST /contacts", authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 8
		ok(w, http.StatusCreated, body)
	}))
	mux.HandleFunc("GET /contacts/search", authed(func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, []any{ann})
	}))
	mux.HandleFunc("GET /contacts/birthdays", authed(func(w http.ResponseWriter, r *http.Request) {
		b := map[string]any{"next_birthday": "2026-05-04", "days_until": 3}
		for k, v := range ann {
			b[k] = v
		}
		ok(w, http.StatusOK, []any{b})
	}))
	mux.HandleFunc("GET /contacts/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "7" {
			fail(w, http.StatusNotFound, "CT-CONT-4040", "contact not found")
			return
		}
		ok(w, http.StatusOK, ann)
	}))
	mux.HandleFunc("PUT /contacts/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		body["id"] = 7
		ok(w, http.StatusOK, body)
	}))
	mux.HandleFunc("DELETE /contacts/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, ann)
	}))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK, map[string]string{"status": "healthy", "version": "dev", "time": "2026-01-01T00:00:00Z"})
	})

	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		api.mu.Lock()
		api.requests = append(api.requests, recorded{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization"), r.Header.Get("Content-Type"), string(body)})
		api.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) last() recorded {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		return recorded{}
	}
	return a.requests[len(a.requests)-1]
}

// runCLI runs the app against api with a config file in dir.
func runCLI(t *testing.T, api *fakeAPI, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := App()
	app.Writer = &out
	app.ErrWriter = io.Discard
	full := append([]string{"contacts-cli", "--config", cfgPath, "--server", api.URL}, args...)
	err := app.Run(full)
	return out.String(), err
}

func loggedIn(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.yaml")
	cfg := config.Default()
	cfg.SetTokens("access-1", "refresh-1")
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAuth_LoginRefreshLogout(t *testing.T) {
	api := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "cli.yaml")

	out, err := runCLI(t, api, path, "auth", "login", "--email", "ann@example.com", "--password", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in") {
		t.Errorf("login output = %q", out)
	}
	if ct := api.last().contentType; ct != "application/x-www-form-urlencoded" {
		t.Errorf("login content type = %q", ct)
	}
	cfg, _ := config.Load(path)
	if cfg.AccessToken != "access-1" || cfg.RefreshToken != "refresh-1" {
		t.Fatalf("stored tokens = %+v", cfg)
	}

	if _, err := runCLI(t, api, path, "auth", "refresh"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := api.last().auth; got != "Bearer refresh-1" {
		t.Errorf("refresh sent %q", got)
	}
	cfg, _ = config.Load(path)
	if cfg.AccessToken != "access-2" || cfg.RefreshToken != "refresh-2" {
		t.Fatalf("rotated tokens = %+v", cfg)
	}

	if _, err := runCLI(t, api, path, "auth", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	cfg, _ = config.Load(path)
	if cfg.AccessToken != "" || cfg.RefreshToken != "" {
		t.Errorf("tokens after logout = %+v", cfg)
	}

	if _, err := runCLI(t, api, path, "auth", "refresh"); err == nil {
		t.Error("refresh without stored token succeeded")
	}
}

func TestAuth_LoginFailure(t *testing.T) {
	api := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "cli.yaml")

	_, err := runCLI(t, api, path, "auth", "login", "--email", "ann@example.com", "--password", "wrong")
	if err == nil || !strings.Contains(err.Error(), "CT-AUTH-4010") {
		t.Fatalf("err = %v, want CT-AUTH-4010", err)
	}
	if _, statErr := os.Stat(path); statErr == nil {
		t.Error("config written after failed login")
	}
}

func TestAuth_OtherCommands(t *testing.T) {
	api := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "cli.yaml")

	tests := []struct {
		name     string
		args     []string
		wantOut  string
		wantPath string
	}{
		{"signup", []string{"auth", "signup", "-u", "ann", "-e", "ann@example.com", "-p", "secret123"}, "ann@example.com", "/auth/signup"},
		{"confirm", []string{"auth", "confirm", "tok.en"}, "Email confirmed", "/auth/confirmed_email/tok.en"},
		{"request email", []string{"auth", "request-email", "-e", "ann@example.com"}, "Check your email", "/auth/request_email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, api, path, tt.args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output = %q, want %q", out, tt.wantOut)
			}
			if got := api.last().path; got != tt.wantPath {
				t.Errorf("path = %q, want %q", got, tt.wantPath)
			}
		})
	}

	if _, err := runCLI(t, api, path, "auth", "signup", "-u", "ann"); err == nil {
		t.Error("signup without required flags succeeded")
	}
}

func TestUser(t *testing.T) {
	api := newFakeAPI(t)
	path := loggedIn(t)

	out, err := runCLI(t, api, path, "user", "me")
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if !strings.Contains(out, "ann@example.com") || !strings.Contains(out, "confirmed") {
		t.Errorf("me output = %q", out)
	}

	img := filepath.Join(t.TempDir(), "me.png")
	if err := os.WriteFile(img, []byte("\x89PNG"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err = runCLI(t, api, path, "user", "avatar", img)
	if err != nil {
		t.Fatalf("avatar: %v", err)
	}
	if !strings.Contains(out, "avatars/1.png") {
		t.Errorf("avatar output = %q", out)
	}
	last := api.last()
	if last.method != http.MethodPatch || !strings.HasPrefix(last.contentType, "multipart/form-data") {
		t.Errorf("avatar request = %s %s", last.method, last.contentType)
	}

	if _, err := runCLI(t, api, path, "user", "avatar", filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("avatar with missing file succeeded")
	}
}

func TestUser_Unauthenticated(t *testing.T) {
	api := newFakeAPI(t)
	path := filepath.Join(t.TempDir(), "cli.yaml")

	_, err := runCLI(t, api, path, "user", "me")
	if err == nil || !strings.Contains(err.Error(), "CT-AUTH-4011") {
		t.Fatalf("err = %v", err)
	}

	if _, err := runCLI(t, api, path, "--token", "access-2", "user", "me"); err != nil {
		t.Errorf("--token override: %v", err)
	}
}

func TestContact_Commands(t *testing.T) {
	api := newFakeAPI(t)
	path := loggedIn(t)

	tests := []struct {
		name      string
		args      []string
		wantOut   []string
		wantReq   string
		wantQuery string
	}{
		{"list", []string{"contact", "list", "--page", "2", "--page-size", "5"}, []string{"ID", "Ann", "1990-05-04"}, "GET /contacts", "page=2&page_size=5"},
		{"get", []string{"contact", "get", "7"}, []string{"surname", "Lee"}, "GET /contacts/7", ""},
		{"search", []string{"contacts", "search", "--name", "an"}, []string{"Ann"}, "GET /contacts/search", "name=an"},
		{"birthdays", []string{"c", "birthdays", "--days", "10"}, []string{"2026-05-04", "3"}, "GET /contacts/birthdays", "days=10"},
		{"delete", []string{"contact", "rm", "7"}, []string{"Deleted contact 7 (Ann Lee)"}, "DELETE /contacts/7", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, api, path, tt.args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out, want) {
					t.Errorf("output %q missing %q", out, want)
				}
			}
			last := api.last()
			if got := last.method + " " + last.path; got != tt.wantReq {
				t.Errorf("request = %q, want %q", got, tt.wantReq)
			}
			if last.query != tt.wantQuery {
				t.Errorf("query = %q, want %q", last.query, tt.wantQuery)
			}
			if last.auth != "Bearer access-1" {
				t.Errorf("auth = %q", last.auth)
			}
		})
	}
}

func TestContact_CreateAndUpdate(t *testing.T) {
	api := newFakeAPI(t)
	path := loggedIn(t)

	out, err := runCLI(t, api, path, "-o", "json", "contact", "create", "-n", "Bob", "--email", "bob@example.com", "-b", "1985-02-03")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	var sent map[string]any
	if err := json.Unmarshal([]byte(api.last().body), &sent); err != nil {
		t.Fatalf("create body: %v", err)
	}
	if sent["name"] != "Bob" || sent["birthday"] != "1985-02-03" || sent["surname"] != "" {
		t.Errorf("create body = %v", sent)
	}
	var created map[string]any
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("json output %q: %v", out, err)
	}
	if created["id"] != float64(8) {
		t.Errorf("created = %v", created)
	}

	// Unset flags keep the stored values; --birthday "" clears the date.
	if _, err := runCLI(t, api, path, "contact", "update", "--phone", "+15550199", "--birthday", "", "7"); err != nil {
		t.Fatalf("update: %v", err)
	}
	last := api.last()
	if last.method != http.MethodPut {
		t.Fatalf("update request = %s %s", last.method, last.path)
	}
	sent = nil
	json.Unmarshal([]byte(last.body), &sent)
	if sent["name"] != "Ann" || sent["note"] != "met at work" || sent["phone"] != "+15550199" || sent["birthday"] != nil {
		t.Errorf("update body = %v", sent)
	}
}

func TestContact_Errors(t *testing.T) {
	api := newFakeAPI(t)
	path := loggedIn(t)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad id", []string{"contact", "get", "abc"}, "positive integer"},
		{"zero id", []string{"contact", "delete", "0"}, "positive integer"},
		{"not found", []string{"contact", "get", "9"}, "CT-CONT-4040"},
		{"bad birthday", []string{"contact", "create", "-n", "X", "-b", "31-12-1990"}, "invalid --birthday"},
		{"missing name", []string{"contact", "create"}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, api, path, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestSystemHealth(t *testing.T) {
	api := newFakeAPI(t)
	path := loggedIn(t)

	out, err := runCLI(t, api, path, "-o", "yaml", "system", "health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.Contains(out, "status: healthy") {
		t.Errorf("output = %q", out)
	}
	if api.last().auth != "" {
		t.Error("health check sent credentials")
	}
}

func TestSetup_InvalidOutput(t *testing.T) {
	api := newFakeAPI(t)
	if _, err := runCLI(t, api, loggedIn(t), "-o", "xml", "system", "health"); err == nil {
		t.Error("accepted unknown output format")
	}
}
