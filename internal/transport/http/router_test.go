package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
	"werkstatt-service/internal/infra/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	scoreRepo := memory.NewScoreRepository()
	questionRepo := memory.NewQuestionRepository()
	accountRepo := memory.NewAccountRepository()

	kv := memory.NewKVStore()

	scores := app.NewScoreService(scoreRepo, nil)
	questionCache := memory.NewQuestionCache(memory.NewRepositoryQuestionLoader(questionRepo), time.Minute)
	questions := app.NewQuestionService(questionRepo, questionCache)
	auth := app.NewAuthService(accountRepo, memory.NewSessionStore(time.Hour))
	admin := app.NewAdminService(scoreRepo, nil, accountRepo)
	settings := app.NewSettingsService(kv)

	handler := NewRouter(&Container{
		Auth:      auth,
		Scores:    scores,
		Questions: questions,
		Admin:     admin,
		Settings:  settings,
		KV:        kv,
		Round:     RoundOptions{Seconds: 20, ConfirmWindow: 2 * time.Second},
		AdminUser: "boss",
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func signUp(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	resp := doJSON(t, "POST", srv.URL+"/api/auth/signup", "", map[string]string{
		"username": username,
		"password": password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup %s: status %d", username, resp.StatusCode)
	}
	var session struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &session)
	return session.Token
}

func TestSubmitAndLeaderboardEndpoint(t *testing.T) {
	srv := newTestServer(t)

	submit := func(name string, value int) {
		resp := doJSON(t, "POST", srv.URL+"/api/scores", "", map[string]interface{}{
			"playerName": name,
			"game":       "TAP_FRENZY",
			"value":      value,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("submit %s/%d: status %d", name, value, resp.StatusCode)
		}
		resp.Body.Close()
	}
	submit("Alice", 10)
	submit("Alice", 4) // worse, skipped
	submit("Bob", 7)

	resp := doJSON(t, "GET", srv.URL+"/api/leaderboard/TAP_FRENZY", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard: status %d", resp.StatusCode)
	}
	var entries []domain.LeaderboardEntry
	decodeBody(t, resp, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 deduplicated entries, got %+v", entries)
	}
	if entries[0].PlayerName != "Alice" || entries[0].Value != 10 {
		t.Fatalf("unexpected top entry: %+v", entries[0])
	}

	// validation errors map to 400
	resp = doJSON(t, "POST", srv.URL+"/api/scores", "", map[string]interface{}{
		"playerName": "", "game": "TAP_FRENZY", "value": 1,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing name, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/api/leaderboard/PINBALL", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown game, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAuthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	token := signUp(t, srv, "alice", "s3cret")
	if token == "" {
		t.Fatalf("expected a session token")
	}

	resp := doJSON(t, "POST", srv.URL+"/api/auth/signup", "", map[string]string{
		"username": "alice", "password": "other",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/api/auth/signin", "", map[string]string{
		"username": "alice", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "POST", srv.URL+"/api/auth/signout", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("signout: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminEndpointsAreGated(t *testing.T) {
	srv := newTestServer(t)

	// no token
	resp := doJSON(t, "GET", srv.URL+"/api/admin/scores", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// signed in, but not the admin
	userToken := signUp(t, srv, "mallory", "pw")
	resp = doJSON(t, "GET", srv.URL+"/api/admin/scores", userToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	adminToken := signUp(t, srv, "boss", "pw")
	resp = doJSON(t, "GET", srv.URL+"/api/admin/scores", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminQuestionCRUDOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	adminToken := signUp(t, srv, "boss", "pw")

	resp := doJSON(t, "POST", srv.URL+"/api/admin/questions", adminToken, map[string]interface{}{
		"text":         "Which tool tightens a hex bolt?",
		"answers":      []string{"Wrench", "Hammer"},
		"correctIndex": 0,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create question: status %d", resp.StatusCode)
	}
	var q domain.Question
	decodeBody(t, resp, &q)
	if q.ID == "" || !q.Visible {
		t.Fatalf("unexpected created question: %+v", q)
	}

	// invalid patch is rejected with 400
	resp = doJSON(t, "PATCH", fmt.Sprintf("%s/api/admin/questions/%s", srv.URL, q.ID), adminToken,
		map[string]interface{}{"correctIndex": 5})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range index, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// hide it, then the public random endpoint runs dry
	resp = doJSON(t, "POST", fmt.Sprintf("%s/api/admin/questions/%s/visibility", srv.URL, q.ID), adminToken,
		map[string]bool{"visible": false})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set visibility: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "GET", srv.URL+"/api/questions/random", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 with no visible questions, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, "DELETE", fmt.Sprintf("%s/api/admin/questions/%s", srv.URL, q.ID), adminToken, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete question: status %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSettingsEndpointScopedByAccount(t *testing.T) {
	srv := newTestServer(t)
	token := signUp(t, srv, "alice", "pw")

	settings := domain.DefaultSettings()
	settings.SoundEnabled = false
	resp := doJSON(t, "PUT", srv.URL+"/api/settings", token, settings)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put settings: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	var got domain.Settings
	resp = doJSON(t, "GET", srv.URL+"/api/settings", token, nil)
	decodeBody(t, resp, &got)
	if got.SoundEnabled {
		t.Fatalf("saved settings not returned for the account")
	}

	// anonymous callers see the untouched defaults
	resp = doJSON(t, "GET", srv.URL+"/api/settings", "", nil)
	decodeBody(t, resp, &got)
	if !got.SoundEnabled {
		t.Fatalf("anonymous settings polluted by account write")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d", resp.StatusCode)
	}
}
