package postgres

import (
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"werkstatt-service/internal/domain"
)

// NewDB opens a bun handle over the pgdriver connector.
func NewDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type scoreRow struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	ID         string    `bun:"id,pk"`
	PlayerName string    `bun:"player_name"`
	GameName   string    `bun:"game_name"`
	Value      int       `bun:"value"`
	AccountID  string    `bun:"account_id,nullzero"`
	CreatedAt  time.Time `bun:"created_at"`
	Visible    bool      `bun:"visible"`
}

func (r scoreRow) toDomain() domain.ScoreRecord {
	return domain.ScoreRecord{
		ID:         r.ID,
		PlayerName: r.PlayerName,
		AccountID:  r.AccountID,
		Game:       domain.GameID(r.GameName),
		Value:      r.Value,
		CreatedAt:  r.CreatedAt,
		Visible:    r.Visible,
	}
}

func scoreRowFromDomain(rec domain.ScoreRecord) scoreRow {
	return scoreRow{
		ID:         rec.ID,
		PlayerName: rec.PlayerName,
		GameName:   string(rec.Game),
		Value:      rec.Value,
		AccountID:  rec.AccountID,
		CreatedAt:  rec.CreatedAt,
		Visible:    rec.Visible,
	}
}

type questionRow struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:q"`

	ID           string    `bun:"id,pk"`
	Question     string    `bun:"question"`
	Answers      []string  `bun:"answers,type:jsonb"`
	CorrectIndex int       `bun:"correct_index"`
	Visible      bool      `bun:"visible"`
	CreatedAt    time.Time `bun:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at"`
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:           r.ID,
		Text:         r.Question,
		Answers:      r.Answers,
		CorrectIndex: r.CorrectIndex,
		Visible:      r.Visible,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func questionRowFromDomain(q domain.Question) questionRow {
	return questionRow{
		ID:           q.ID,
		Question:     q.Text,
		Answers:      q.Answers,
		CorrectIndex: q.CorrectIndex,
		Visible:      q.Visible,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

type accountRow struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID         string    `bun:"id,pk"`
	Username   string    `bun:"username"`
	SecretHash string    `bun:"secret_hash"`
	CreatedAt  time.Time `bun:"created_at"`
}

func (r accountRow) toDomain() domain.UserAccount {
	return domain.UserAccount{
		ID:         r.ID,
		Username:   r.Username,
		SecretHash: r.SecretHash,
		CreatedAt:  r.CreatedAt,
	}
}
