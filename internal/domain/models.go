package domain

import (
	"strings"
	"time"
)

// PlayerIdentity names the scorer. AccountID is optional; anonymous play only
// carries a display name.
type PlayerIdentity struct {
	AccountID string
	Name      string
}

// Key is the dedup key for best-score ranking: one ranked entry per key.
func (p PlayerIdentity) Key() string {
	return p.AccountID + "|" + strings.TrimSpace(p.Name)
}

// ScoreRecord is one persisted round result.
type ScoreRecord struct {
	ID         string    `json:"id"`
	PlayerName string    `json:"playerName"`
	AccountID  string    `json:"accountId,omitempty"`
	Game       GameID    `json:"game"`
	Value      int       `json:"value"`
	CreatedAt  time.Time `json:"createdAt"`
	Visible    bool      `json:"visible"`
}

// Identity reconstructs the ranking key for a stored record.
func (r ScoreRecord) Identity() PlayerIdentity {
	return PlayerIdentity{AccountID: r.AccountID, Name: r.PlayerName}
}

// LeaderboardEntry is one ranked row of a per-game leaderboard.
type LeaderboardEntry struct {
	PlayerName string    `json:"playerName"`
	Value      int       `json:"value"`
	AchievedAt time.Time `json:"achievedAt"`
}

// SubmitResult reports what the best-score resolver did with a submission.
type SubmitResult struct {
	Skipped bool        `json:"skipped"`
	Record  ScoreRecord `json:"record,omitempty"`
}

// Question is one quiz question with its answer options.
type Question struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	Answers      []string  `json:"answers"`
	CorrectIndex int       `json:"correctIndex"`
	Visible      bool      `json:"visible"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// QuestionPatch is a partial update; nil fields are left untouched.
type QuestionPatch struct {
	Text         *string  `json:"text,omitempty"`
	Answers      []string `json:"answers,omitempty"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
	Visible      *bool    `json:"visible,omitempty"`
}

// UserAccount is a signed-up player. Not a security-grade identity.
type UserAccount struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Settings is the fixed-shape game configuration. Missing or unknown fields in
// stored blobs fall back to DefaultSettings values.
type Settings struct {
	EnabledGames map[GameID]bool `json:"enabledGames"`
	RoundSeconds int             `json:"roundSeconds"`
	SoundEnabled bool            `json:"soundEnabled"`
}

// DefaultRoundSeconds is the fixed round length.
const DefaultRoundSeconds = 20

// DefaultSettings enables every game with the standard round length.
func DefaultSettings() Settings {
	enabled := make(map[GameID]bool, len(AllGames))
	for _, g := range AllGames {
		enabled[g] = true
	}
	return Settings{
		EnabledGames: enabled,
		RoundSeconds: DefaultRoundSeconds,
		SoundEnabled: true,
	}
}

// Normalize fills gaps left by older stored blobs.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	if s.EnabledGames == nil {
		s.EnabledGames = def.EnabledGames
	} else {
		for _, g := range AllGames {
			if _, ok := s.EnabledGames[g]; !ok {
				s.EnabledGames[g] = true
			}
		}
		for k := range s.EnabledGames {
			if _, err := ParseGame(string(k)); err != nil {
				delete(s.EnabledGames, k)
			}
		}
	}
	if s.RoundSeconds <= 0 {
		s.RoundSeconds = def.RoundSeconds
	}
	return s
}

// Enabled returns the games switched on, in stable order.
func (s Settings) Enabled() []GameID {
	out := make([]GameID, 0, len(AllGames))
	for _, g := range AllGames {
		if s.EnabledGames[g] {
			out = append(out, g)
		}
	}
	return out
}
