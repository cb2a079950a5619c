package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
)

// RoundOptions fixes round timing for WebSocket-driven rounds.
type RoundOptions struct {
	Seconds       int
	ConfirmWindow time.Duration
}

// RoundWSHandler runs one live round per connection: the server owns the
// countdown and score accumulation, the client sends score deltas and end
// requests, and the final result message is delivered exactly once.
type RoundWSHandler struct {
	auth      *app.AuthService
	scores    *app.ScoreService
	questions *app.QuestionService
	settings  *app.SettingsService
	kv        app.KVStore
	opts      RoundOptions
	upgrader  websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*app.PlayerSession
}

func NewRoundWSHandler(auth *app.AuthService, scores *app.ScoreService, questions *app.QuestionService, settings *app.SettingsService, kv app.KVStore, opts RoundOptions) *RoundWSHandler {
	return &RoundWSHandler{
		auth:      auth,
		scores:    scores,
		questions: questions,
		settings:  settings,
		kv:        kv,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: make(map[string]*app.PlayerSession),
	}
}

// sessionFor returns the owner's player session, so totals accumulate across
// rounds and the persisted best survives reconnects.
func (h *RoundWSHandler) sessionFor(ctx context.Context, owner string) *app.PlayerSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[owner]; ok {
		return s
	}
	s := app.NewPlayerSession(ctx, owner, h.kv)
	h.sessions[owner] = s
	return s
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type scorePayload struct {
	Points int `json:"points"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type resultPayload struct {
	Game   domain.GameID `json:"game"`
	Earned int           `json:"earned"`
	Total  int           `json:"total"`
	Best   int           `json:"best"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into a fresh round.
func (h *RoundWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	player := domain.PlayerIdentity{Name: name}
	owner := "default"
	if token := r.URL.Query().Get("token"); token != "" {
		if acc, err := h.auth.Resolve(ctx, token); err == nil {
			player.AccountID = acc.ID
			owner = acc.ID
		}
	}

	settings := h.settings.Load(ctx, owner)
	session := h.sessionFor(ctx, owner)

	var game domain.GameID
	if raw := r.URL.Query().Get("game"); raw != "" {
		parsed, err := domain.ParseGame(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		game = parsed
	} else {
		picked, err := session.PickGame(settings)
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		game = picked
	}

	seconds := h.opts.Seconds
	if seconds == 0 {
		seconds = settings.RoundSeconds
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})
	resultQueued := make(chan struct{})

	round := app.NewRoundController(
		app.RoundConfig{Game: game, Seconds: seconds, ConfirmWindow: h.opts.ConfirmWindow},
		player,
		h.scores,
		func(earned int) {
			total, best := session.ApplyRoundResult(ctx, earned)
			send <- outboundMessage{Type: "result", Payload: resultPayload{
				Game:   game,
				Earned: earned,
				Total:  total,
				Best:   best,
			}}
			close(resultQueued)
		},
	)

	// The writer owns the connection; after the result goes out it closes the
	// socket so the read loop unblocks.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
			if msg.Type == "result" {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				conn.Close()
				return
			}
		}
	}()

	round.Start()
	send <- outboundMessage{Type: "state", Payload: round.State()}

	if game == domain.GameQuiz {
		if q, err := h.questions.RandomVisible(ctx); err == nil {
			send <- outboundMessage{Type: "question", Payload: q}
		}
	}

	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				round.Tick()
				if round.Phase() != app.RoundRunning {
					return
				}
				select {
				case send <- outboundMessage{Type: "state", Payload: round.State()}:
				case <-closeSignals:
					return
				}
			case <-resultQueued:
				return
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "score":
			var payload scorePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid score payload"}}
				continue
			}
			round.Add(payload.Points)
			send <- outboundMessage{Type: "state", Payload: round.State()}
		case "end":
			if ended := round.RequestEnd(); !ended {
				send <- outboundMessage{Type: "confirm", Payload: round.State()}
			}
		default:
			send <- outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		if round.Phase() == app.RoundReported {
			break
		}
	}

	round.Abandon()
	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}
