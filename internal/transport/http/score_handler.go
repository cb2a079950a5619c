package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
)

// ScoreHandler serves leaderboards, score submission, the random quiz
// question, and per-player settings.
type ScoreHandler struct {
	scores    *app.ScoreService
	questions *app.QuestionService
	settings  *app.SettingsService
	auth      *app.AuthService
}

func NewScoreHandler(scores *app.ScoreService, questions *app.QuestionService, settings *app.SettingsService, auth *app.AuthService) *ScoreHandler {
	return &ScoreHandler{scores: scores, questions: questions, settings: settings, auth: auth}
}

func (h *ScoreHandler) Games(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.AllGames)
}

func (h *ScoreHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	game, err := domain.ParseGame(mux.Vars(r)["game"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	limit := queryInt(r, "limit", 0)
	days := queryInt(r, "days", 0)
	entries, err := h.scores.TopByGame(r.Context(), game, limit, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type submitScoreRequest struct {
	PlayerName string `json:"playerName"`
	Game       string `json:"game"`
	Value      int    `json:"value"`
}

func (h *ScoreHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitScoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	player := domain.PlayerIdentity{Name: req.PlayerName}
	if token := bearerToken(r); token != "" {
		if acc, err := h.auth.Resolve(r.Context(), token); err == nil {
			player.AccountID = acc.ID
		}
	}
	result, err := h.scores.Submit(r.Context(), player, domain.GameID(req.Game), req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ScoreHandler) RandomQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.questions.RandomVisible(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *ScoreHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.settings.Load(r.Context(), h.owner(r)))
}

func (h *ScoreHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	saved, err := h.settings.Save(r.Context(), h.owner(r), settings)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// owner scopes settings to the signed-in account; anonymous players share the
// device-default blob.
func (h *ScoreHandler) owner(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		if acc, err := h.auth.Resolve(r.Context(), token); err == nil {
			return acc.ID
		}
	}
	return "default"
}
