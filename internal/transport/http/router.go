package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"werkstatt-service/internal/app"
)

// Container holds the wired services for the router.
type Container struct {
	Auth      *app.AuthService
	Scores    *app.ScoreService
	Questions *app.QuestionService
	Admin     *app.AdminService
	Settings  *app.SettingsService
	KV        app.KVStore
	Round     RoundOptions
	// AdminUser is the username allowed onto the moderation endpoints.
	AdminUser string
}

// NewRouter builds the API router with all endpoints.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := NewAuthHandler(c.Auth)
	scoreHandler := NewScoreHandler(c.Scores, c.Questions, c.Settings, c.Auth)
	adminHandler := NewAdminHandler(c.Admin, c.Questions)
	roundHandler := NewRoundWSHandler(c.Auth, c.Scores, c.Questions, c.Settings, c.KV, c.Round)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signup", authHandler.SignUp).Methods("POST")
	api.HandleFunc("/auth/signin", authHandler.SignIn).Methods("POST")
	api.HandleFunc("/auth/signout", authHandler.SignOut).Methods("POST")

	api.HandleFunc("/games", scoreHandler.Games).Methods("GET")
	api.HandleFunc("/leaderboard/{game}", scoreHandler.Leaderboard).Methods("GET")
	api.HandleFunc("/scores", scoreHandler.Submit).Methods("POST")
	api.HandleFunc("/questions/random", scoreHandler.RandomQuestion).Methods("GET")
	api.HandleFunc("/settings", scoreHandler.GetSettings).Methods("GET")
	api.HandleFunc("/settings", scoreHandler.PutSettings).Methods("PUT")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(requireAdmin(c.Auth, c.AdminUser))
	admin.HandleFunc("/scores", adminHandler.ListScores).Methods("GET")
	admin.HandleFunc("/scores", adminHandler.DeleteScores).Methods("DELETE")
	admin.HandleFunc("/scores/visibility", adminHandler.SetScoresVisible).Methods("POST")
	admin.HandleFunc("/scores.csv", adminHandler.ExportScoresCSV).Methods("GET")
	admin.HandleFunc("/games/{game}/hide", adminHandler.HideGame).Methods("POST")
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id}/hide", adminHandler.HideUserScores).Methods("POST")
	admin.HandleFunc("/users/{id}/anonymize", adminHandler.AnonymizeUserScores).Methods("POST")
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods("DELETE")
	admin.HandleFunc("/questions", adminHandler.ListQuestions).Methods("GET")
	admin.HandleFunc("/questions", adminHandler.CreateQuestion).Methods("POST")
	admin.HandleFunc("/questions/{id}", adminHandler.UpdateQuestion).Methods("PATCH")
	admin.HandleFunc("/questions/{id}", adminHandler.DeleteQuestion).Methods("DELETE")
	admin.HandleFunc("/questions/{id}/visibility", adminHandler.SetQuestionVisible).Methods("POST")

	r.HandleFunc("/ws/round", roundHandler.ServeWS)

	return r
}

// requireAdmin gates moderation routes behind a resolved session whose
// username matches the configured admin.
func requireAdmin(auth *app.AuthService, adminUser string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminUser == "" {
				writeError(w, http.StatusForbidden, "admin access disabled")
				return
			}
			acc, err := auth.Resolve(r.Context(), bearerToken(r))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "sign in required")
				return
			}
			if acc.Username != adminUser {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
