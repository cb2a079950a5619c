package domain

// GameID identifies one of the six mini-games.
type GameID string

const (
	GameTapFrenzy     GameID = "TAP_FRENZY"
	GameQuiz          GameID = "QUIZ"
	GameSwipeApproval GameID = "SWIPE_APPROVAL"
	GameSortSequence  GameID = "SORT_SEQUENCE"
	GameBrakeTest     GameID = "BRAKE_TEST"
	GameCodeTyper     GameID = "CODE_TYPER"
)

// AllGames lists every known game in a stable order.
var AllGames = []GameID{
	GameTapFrenzy,
	GameQuiz,
	GameSwipeApproval,
	GameSortSequence,
	GameBrakeTest,
	GameCodeTyper,
}

// ParseGame validates a raw game identifier.
func ParseGame(raw string) (GameID, error) {
	for _, g := range AllGames {
		if string(g) == raw {
			return g, nil
		}
	}
	return "", ErrUnknownGame
}
