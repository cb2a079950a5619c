package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
	"werkstatt-service/internal/infra/memory"
)

type wsFixture struct {
	srv    *httptest.Server
	scores *app.ScoreService
	kv     *memory.KVStore
}

func newWSFixture(t *testing.T, opts RoundOptions) *wsFixture {
	t.Helper()
	scoreRepo := memory.NewScoreRepository()
	questionRepo := memory.NewQuestionRepository()
	kv := memory.NewKVStore()

	scores := app.NewScoreService(scoreRepo, nil)
	questionCache := memory.NewQuestionCache(memory.NewRepositoryQuestionLoader(questionRepo), time.Minute)
	questions := app.NewQuestionService(questionRepo, questionCache)
	auth := app.NewAuthService(memory.NewAccountRepository(), memory.NewSessionStore(time.Hour))
	settings := app.NewSettingsService(kv)

	if _, err := questions.Create(context.Background(), "Which tool tightens a hex bolt?", []string{"Wrench", "Hammer"}, 0, true); err != nil {
		t.Fatalf("seed question: %v", err)
	}

	handler := NewRoundWSHandler(auth, scores, questions, settings, kv, opts)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/round", handler.ServeWS)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &wsFixture{srv: srv, scores: scores, kv: kv}
}

func (f *wsFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws/round?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", query, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func sendWS(t *testing.T, conn *websocket.Conn, msgType string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(map[string]interface{}{"type": msgType, "payload": json.RawMessage(raw)}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readUntil drains state updates until a message of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) wsMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for time.Now().Before(deadline) {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if msg.Type == want {
			return msg
		}
		if msg.Type == "error" || msg.Type == "result" {
			t.Fatalf("waiting for %q, got %q: %s", want, msg.Type, msg.Payload)
		}
	}
	t.Fatalf("no %q message before deadline", want)
	return wsMessage{}
}

func TestRoundOverWebSocket(t *testing.T) {
	fixture := newWSFixture(t, RoundOptions{Seconds: 20, ConfirmWindow: 2 * time.Second})
	conn := fixture.dial(t, "game=TAP_FRENZY&name=Lena")

	first := readUntil(t, conn, "state")
	var state struct {
		Game     domain.GameID `json:"game"`
		TimeLeft int           `json:"timeLeft"`
		Earned   int           `json:"earned"`
	}
	if err := json.Unmarshal(first.Payload, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Game != domain.GameTapFrenzy || state.TimeLeft != 20 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	sendWS(t, conn, "score", map[string]int{"points": 3})
	sendWS(t, conn, "score", map[string]int{"points": 5})
	sendWS(t, conn, "score", map[string]int{"points": -1})

	// first end press only arms the confirm window
	sendWS(t, conn, "end", nil)
	readUntil(t, conn, "confirm")

	sendWS(t, conn, "end", nil)
	var msg wsMessage
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.SetReadDeadline(deadline)
	for {
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for result: %v", err)
		}
		if msg.Type == "result" {
			break
		}
	}
	var result struct {
		Game   domain.GameID `json:"game"`
		Earned int           `json:"earned"`
		Total  int           `json:"total"`
	}
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Game != domain.GameTapFrenzy || result.Earned != 7 || result.Total != 7 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// persistence is async; poll the leaderboard for the submitted best
	var entries []domain.LeaderboardEntry
	for i := 0; i < 50; i++ {
		var err error
		entries, err = fixture.scores.TopByGame(context.Background(), domain.GameTapFrenzy, 10, 0)
		if err != nil {
			t.Fatalf("top: %v", err)
		}
		if len(entries) > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if len(entries) != 1 || entries[0].PlayerName != "Lena" || entries[0].Value != 7 {
		t.Fatalf("round result not persisted: %+v", entries)
	}
}

func playRound(t *testing.T, fixture *wsFixture, points int) (earned, total, best int) {
	t.Helper()
	conn := fixture.dial(t, "game=TAP_FRENZY&name=Lena")
	readUntil(t, conn, "state")
	sendWS(t, conn, "score", map[string]int{"points": points})
	sendWS(t, conn, "end", nil)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for result: %v", err)
		}
		if msg.Type != "result" {
			continue
		}
		var result struct {
			Earned int `json:"earned"`
			Total  int `json:"total"`
			Best   int `json:"best"`
		}
		if err := json.Unmarshal(msg.Payload, &result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		return result.Earned, result.Total, result.Best
	}
}

func TestTotalsAccumulateAcrossRounds(t *testing.T) {
	fixture := newWSFixture(t, RoundOptions{Seconds: 20, ConfirmWindow: 0})

	earned, total, best := playRound(t, fixture, 7)
	if earned != 7 || total != 7 || best != 7 {
		t.Fatalf("first round: expected 7/7/7, got %d/%d/%d", earned, total, best)
	}

	earned, total, best = playRound(t, fixture, 3)
	if earned != 3 {
		t.Fatalf("second round earned: expected 3, got %d", earned)
	}
	if total != 10 || best != 10 {
		t.Fatalf("expected totals to accumulate to 10/10 across rounds, got %d/%d", total, best)
	}

	// the best total is persisted, not just held in the session
	raw, ok, err := fixture.kv.Get(context.Background(), "highscore:default")
	if err != nil || !ok {
		t.Fatalf("persisted best missing: ok=%v err=%v", ok, err)
	}
	if raw != "10" {
		t.Fatalf("expected persisted best 10, got %s", raw)
	}
}

func TestQuizRoundDeliversQuestion(t *testing.T) {
	fixture := newWSFixture(t, RoundOptions{Seconds: 20, ConfirmWindow: 0})
	conn := fixture.dial(t, "game=QUIZ&name=Lena")

	msg := readUntil(t, conn, "question")
	var q domain.Question
	if err := json.Unmarshal(msg.Payload, &q); err != nil {
		t.Fatalf("decode question: %v", err)
	}
	if q.Text == "" || len(q.Answers) < 2 {
		t.Fatalf("unexpected question: %+v", q)
	}
}

func TestRoundRejectsMissingName(t *testing.T) {
	fixture := newWSFixture(t, RoundOptions{Seconds: 20})
	url := "ws" + strings.TrimPrefix(fixture.srv.URL, "http") + "/ws/round?game=QUIZ"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure without a name")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func TestRoundRejectsUnknownGame(t *testing.T) {
	fixture := newWSFixture(t, RoundOptions{Seconds: 20})
	url := "ws" + strings.TrimPrefix(fixture.srv.URL, "http") + "/ws/round?game=PINBALL&name=Lena"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected handshake failure for unknown game")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}
