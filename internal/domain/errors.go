package domain

import "errors"

var (
	// ErrUnknownGame is returned for a game identifier outside the fixed set.
	ErrUnknownGame = errors.New("unknown game")
	// ErrMissingPlayerName is returned when a score submission has no player name.
	ErrMissingPlayerName = errors.New("player name required")
	// ErrNegativeScore is returned when a submitted score value is below zero.
	ErrNegativeScore = errors.New("score value must not be negative")
	// ErrScoreNotFound indicates the referenced score record no longer exists.
	ErrScoreNotFound = errors.New("score record not found")
	// ErrQuestionNotFound indicates the referenced question no longer exists.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrNoVisibleQuestions is returned when the quiz pool is empty.
	ErrNoVisibleQuestions = errors.New("no visible questions")
	// ErrInvalidQuestion is returned when question validation fails.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrNoGamesEnabled is returned when a round is requested with every game switched off.
	ErrNoGamesEnabled = errors.New("no games enabled")
	// ErrUsernameTaken is returned on sign-up with an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned on sign-in with a bad username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound is returned for unknown or expired session tokens.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)
