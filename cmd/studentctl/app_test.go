package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-records/internal/client/api"
	"github.com/noah-isme/student-records/internal/client/effects"
	"github.com/noah-isme/student-records/internal/client/state"
)

type testApp struct {
	*app
	stdout    *bytes.Buffer
	stderr    *bytes.Buffer
	tokenFile string
}

func newTestApp(t *testing.T, handler http.HandlerFunc, token string, passwords ...string) *testApp {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokenFile := filepath.Join(t.TempDir(), "session")
	if token != "" {
		require.NoError(t, os.WriteFile(tokenFile, []byte(token), 0o600))
	}

	tokens := state.NewFileTokenStore(tokenFile)
	store := state.NewStore(tokens, nil)
	client := api.New(srv.URL+"/api", time.Second, store, nil)
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	queue := append([]string(nil), passwords...)

	return &testApp{
		app: &app{
			store:       store,
			coordinator: effects.New(client, store, nil, effects.Options{Timeout: 2 * time.Second}),
			out:         stdout,
			errOut:      stderr,
			passwords: func(string) (string, error) {
				require.NotEmpty(t, queue, "unexpected password prompt")
				p := queue[0]
				queue = queue[1:]
				return p, nil
			},
			sessionFile: tokens.Path(),
		},
		stdout:    stdout,
		stderr:    stderr,
		tokenFile: tokenFile,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func errorBody(code, message string, status int) map[string]any {
	return map[string]any{"error": map[string]any{"code": code, "message": message, "status": status}}
}

func TestLoginStoresToken(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
			"token": "jwt-token",
			"user":  map[string]any{"id": "u1", "name": "Ann Lee", "email": "ann@example.com"},
		}})
	}, "", "password1")

	code := a.run([]string{"login", "-email", "ann@example.com"})

	assert.Equal(t, 0, code, a.stderr.String())
	assert.Contains(t, a.stdout.String(), "Logged in as Ann Lee")
	raw, err := os.ReadFile(a.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", string(raw))
}

func TestLoginWrongPasswordClearsToken(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, errorBody("INVALID_CREDENTIALS", "Invalid credentials", 401))
	}, "old-token")

	code := a.run([]string{"login", "-email", "ann@example.com", "-password", "wrong"})

	assert.Equal(t, 1, code)
	assert.Contains(t, a.stderr.String(), "Invalid credentials")
	_, err := os.Stat(a.tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestStudentCommandsRequireLogin(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, "")

	assert.Equal(t, 1, a.run([]string{"list"}))
	assert.Contains(t, a.stderr.String(), "not logged in")
}

func TestListRendersTable(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"data": []map[string]any{
			{"id": "s1", "firstName": "Ann", "lastName": "Lee", "email": "ann@example.com", "department": "Physics", "gpa": "3.5", "year": "Junior"},
			{"id": "s2", "firstName": "Bo", "status": "graduated"},
		}})
	}, "tok")

	code := a.run([]string{"list"})

	require.Equal(t, 0, code, a.stderr.String())
	out := a.stdout.String()
	assert.Contains(t, out, "Ann Lee")
	assert.Contains(t, out, "Physics")
	assert.Contains(t, out, "3.50")
	assert.Contains(t, out, "Graduated")
}

func TestListUnauthorizedEndsSession(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, errorBody("UNAUTHORIZED", "token expired", 401))
	}, "expired")

	code := a.run([]string{"list"})

	assert.Equal(t, 1, code)
	assert.Contains(t, a.stderr.String(), "log in again")
	_, err := os.Stat(a.tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestUpdateMergesFlagsIntoCurrentRecord(t *testing.T) {
	current := map[string]any{
		"id": "s1", "firstName": "Ann", "lastName": "Lee", "email": "ann@example.com", "phone": "5551234567",
		"dateOfBirth": "2003-04-05T00:00:00Z", "enrollmentDate": "2021-09-01", "major": "Physics",
		"year": "Junior", "gpa": 3.1, "status": "Active",
		"address": map[string]any{"street": "1 Main", "city": "Springfield", "state": "IL", "zipCode": "62701"},
	}
	var sent map[string]any
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/student/s1", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"data": current})
		case http.MethodPut:
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			updated := map[string]any{}
			for k, v := range current {
				updated[k] = v
			}
			updated["gpa"] = sent["gpa"]
			delete(updated, "major")
			writeJSON(w, http.StatusOK, map[string]any{"data": updated})
		}
	}, "tok")

	code := a.run([]string{"update", "s1", "-gpa", "3.9", "-status", "inactive"})

	require.Equal(t, 0, code, a.stderr.String())
	assert.Equal(t, 3.9, sent["gpa"])
	assert.Equal(t, "Inactive", sent["status"])
	assert.Equal(t, "Physics", sent["department"])
	assert.Equal(t, "2003-04-05", sent["dateOfBirth"])
	assert.NotContains(t, sent, "password")
	assert.Contains(t, a.stdout.String(), "3.90")
	assert.Contains(t, a.stdout.String(), "Physics")
}

func TestDeleteNotFound(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("NOT_FOUND", "Student not found", 404))
	}, "tok")

	code := a.run([]string{"delete", "missing"})

	assert.Equal(t, 1, code)
	assert.Contains(t, a.stderr.String(), "Student not found")
}

func TestCreateRejectsInvalidFormLocally(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, "tok", "short", "short")

	code := a.run([]string{"create", "-first", "Ann"})

	assert.Equal(t, 1, code)
	stderr := a.stderr.String()
	assert.Contains(t, stderr, "password: Password must be at least 8 characters")
	assert.Contains(t, stderr, "email: Email is required")
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotContains(t, body, "confirmPassword")
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{"token": "t", "user": map[string]any{"id": "u1"}}})
	}, "", "password1", "password1")

	code := a.run([]string{"register", "-first", "Ann", "-last", "Lee", "-email", "ann@example.com"})

	require.Equal(t, 0, code, a.stderr.String())
	assert.True(t, strings.Contains(a.stdout.String(), "Account created"))
	assert.False(t, a.store.Session().IsAuthenticated)
	_, err := os.Stat(a.tokenFile)
	assert.True(t, os.IsNotExist(err))
}

func TestUnknownCommand(t *testing.T) {
	a := newTestApp(t, func(http.ResponseWriter, *http.Request) {}, "")
	assert.Equal(t, 2, a.run([]string{"frobnicate"}))
	assert.Contains(t, a.stderr.String(), "Usage: studentctl")
}

func TestWhoamiReportsSessionFile(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, "jwt-token")

	require.Equal(t, 0, a.run([]string{"whoami"}))
	assert.Equal(t, "Logged in (session stored in "+a.tokenFile+")\n", a.stdout.String())
}

func TestWhoamiSignedOut(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	}, "")

	require.Equal(t, 0, a.run([]string{"whoami"}))
	assert.Equal(t, "Not logged in\n", a.stdout.String())
}
