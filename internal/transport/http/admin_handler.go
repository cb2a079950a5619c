package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"werkstatt-service/internal/app"
	"werkstatt-service/internal/domain"
)

// AdminHandler exposes the moderation endpoints: score visibility, hard
// deletes, per-game soft resets, user record anonymization, CSV export, and
// quiz question management.
type AdminHandler struct {
	admin     *app.AdminService
	questions *app.QuestionService
}

func NewAdminHandler(admin *app.AdminService, questions *app.QuestionService) *AdminHandler {
	return &AdminHandler{admin: admin, questions: questions}
}

func (h *AdminHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	game := domain.GameID(r.URL.Query().Get("game"))
	var onlyVisible *bool
	switch r.URL.Query().Get("visible") {
	case "true":
		v := true
		onlyVisible = &v
	case "false":
		v := false
		onlyVisible = &v
	}
	rows, err := h.admin.ListScores(r.Context(), game, onlyVisible, queryInt(r, "limit", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type visibilityRequest struct {
	IDs     []string `json:"ids"`
	Visible bool     `json:"visible"`
}

func (h *AdminHandler) SetScoresVisible(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	n, err := h.admin.SetScoresVisible(r.Context(), req.IDs, req.Visible)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

type deleteScoresRequest struct {
	IDs []string `json:"ids"`
}

func (h *AdminHandler) DeleteScores(w http.ResponseWriter, r *http.Request) {
	var req deleteScoresRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.admin.DeleteScores(r.Context(), req.IDs); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) HideGame(w http.ResponseWriter, r *http.Request) {
	game, err := domain.ParseGame(mux.Vars(r)["game"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	n, err := h.admin.HideGame(r.Context(), game)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"hidden": n})
}

func (h *AdminHandler) ExportScoresCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="scores.csv"`)
	game := domain.GameID(r.URL.Query().Get("game"))
	if err := h.admin.ExportScoresCSV(r.Context(), w, game, queryInt(r, "limit", 0)); err != nil {
		// headers already sent; nothing sensible left to report
		return
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context(), queryInt(r, "limit", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) HideUserScores(w http.ResponseWriter, r *http.Request) {
	n, err := h.admin.HideUserScores(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"hidden": n})
}

func (h *AdminHandler) AnonymizeUserScores(w http.ResponseWriter, r *http.Request) {
	n, err := h.admin.AnonymizeUserScores(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"anonymized": n})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteUser(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	onlyVisible := r.URL.Query().Get("visible") == "true"
	rows, err := h.questions.List(r.Context(), onlyVisible, r.URL.Query().Get("search"), queryInt(r, "limit", 0))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type createQuestionRequest struct {
	Text         string   `json:"text"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
	Visible      *bool    `json:"visible"`
}

func (h *AdminHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	visible := true
	if req.Visible != nil {
		visible = *req.Visible
	}
	q, err := h.questions.Create(r.Context(), req.Text, req.Answers, req.CorrectIndex, visible)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *AdminHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch domain.QuestionPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	q, err := h.questions.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *AdminHandler) SetQuestionVisible(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Visible bool `json:"visible"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	q, err := h.questions.SetVisible(r.Context(), mux.Vars(r)["id"], req.Visible)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *AdminHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.questions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
