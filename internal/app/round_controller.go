package app

import (
	"context"
	"log"
	"sync"
	"time"

	"werkstatt-service/internal/domain"
)

// RoundPhase tracks the lifecycle of a single timed round.
type RoundPhase int

const (
	RoundIdle RoundPhase = iota
	RoundRunning
	RoundEnding
	RoundReported
)

// ScoreSubmitter persists a finished round's score. Failures are tolerated:
// the round always completes for the player.
type ScoreSubmitter interface {
	Submit(ctx context.Context, player domain.PlayerIdentity, game domain.GameID, value int) (domain.SubmitResult, error)
}

// RoundConfig fixes the parameters of one round before it starts.
type RoundConfig struct {
	Game    domain.GameID
	Seconds int
	// ConfirmWindow is how long an end request stays armed waiting for the
	// confirming second request. Zero disables the double-confirm policy.
	ConfirmWindow time.Duration
}

// RoundState is a snapshot of a running round for transport layers.
type RoundState struct {
	Game       domain.GameID `json:"game"`
	TimeLeft   int           `json:"timeLeft"`
	Earned     int           `json:"earned"`
	Confirming bool          `json:"confirming"`
	Ended      bool          `json:"ended"`
}

const submitTimeout = 5 * time.Second

// RoundController runs exactly one timed round and reports the final earned
// score exactly once. A new round means a new controller; an abandoned
// controller's in-flight persistence result is simply discarded.
type RoundController struct {
	cfg       RoundConfig
	player    domain.PlayerIdentity
	submitter ScoreSubmitter
	onEnd     func(earned int)
	now       func() time.Time

	mu        sync.Mutex
	phase     RoundPhase
	timeLeft  int
	earned    int
	confirmAt time.Time // deadline for the confirming end request; zero when disarmed
}

// NewRoundController prepares a round in the idle phase. submitter and onEnd
// may be nil.
func NewRoundController(cfg RoundConfig, player domain.PlayerIdentity, submitter ScoreSubmitter, onEnd func(earned int)) *RoundController {
	return NewRoundControllerWithClock(cfg, player, submitter, onEnd, time.Now)
}

// NewRoundControllerWithClock allows deterministic timestamps in tests.
func NewRoundControllerWithClock(cfg RoundConfig, player domain.PlayerIdentity, submitter ScoreSubmitter, onEnd func(earned int), now func() time.Time) *RoundController {
	return &RoundController{
		cfg:       cfg,
		player:    player,
		submitter: submitter,
		onEnd:     onEnd,
		now:       now,
	}
}

// Start moves the round from idle to running with a full clock and zero score.
func (r *RoundController) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != RoundIdle {
		return
	}
	r.phase = RoundRunning
	r.timeLeft = r.cfg.Seconds
	r.earned = 0
	r.confirmAt = time.Time{}
}

// Add accumulates points while the round is running. Calls outside the
// running phase are ignored. Negative deltas are applied as-is.
func (r *RoundController) Add(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != RoundRunning {
		return
	}
	r.earned += n
}

// Tick advances the countdown by one second. A non-positive configured
// duration ends the round on the first tick.
func (r *RoundController) Tick() {
	r.mu.Lock()
	if r.phase != RoundRunning {
		r.mu.Unlock()
		return
	}
	if !r.confirmAt.IsZero() && r.now().After(r.confirmAt) {
		r.confirmAt = time.Time{}
	}
	if r.timeLeft > 0 {
		r.timeLeft--
	}
	if r.timeLeft <= 0 {
		r.phase = RoundEnding
		r.mu.Unlock()
		r.report()
		return
	}
	r.mu.Unlock()
}

// RequestEnd handles an explicit end press. With the confirm policy enabled
// the first press arms a window and only a second press inside it ends the
// round; a late second press re-arms instead. Returns true once the round has
// actually ended.
func (r *RoundController) RequestEnd() bool {
	r.mu.Lock()
	if r.phase != RoundRunning {
		r.mu.Unlock()
		return false
	}
	if r.cfg.ConfirmWindow <= 0 {
		r.phase = RoundEnding
		r.mu.Unlock()
		r.report()
		return true
	}
	now := r.now()
	if r.confirmAt.IsZero() || now.After(r.confirmAt) {
		r.confirmAt = now.Add(r.cfg.ConfirmWindow)
		r.mu.Unlock()
		return false
	}
	r.confirmAt = time.Time{}
	r.phase = RoundEnding
	r.mu.Unlock()
	r.report()
	return true
}

// Abandon discards the round without reporting, for players who navigate away
// mid-round. No score is persisted.
func (r *RoundController) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == RoundReported {
		return
	}
	r.phase = RoundReported
}

// State returns a snapshot for rendering.
func (r *RoundController) State() RoundState {
	r.mu.Lock()
	defer r.mu.Unlock()
	confirming := !r.confirmAt.IsZero() && !r.now().After(r.confirmAt)
	return RoundState{
		Game:       r.cfg.Game,
		TimeLeft:   r.timeLeft,
		Earned:     r.earned,
		Confirming: confirming,
		Ended:      r.phase == RoundReported || r.phase == RoundEnding,
	}
}

// Phase returns the current lifecycle phase.
func (r *RoundController) Phase() RoundPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// report fires the persistence attempt and invokes the end callback exactly
// once. Persistence is never awaited; its failure is logged and swallowed.
func (r *RoundController) report() {
	r.mu.Lock()
	if r.phase != RoundEnding {
		r.mu.Unlock()
		return
	}
	earned := r.earned
	r.phase = RoundReported
	r.mu.Unlock()

	if r.submitter != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			if _, err := r.submitter.Submit(ctx, r.player, r.cfg.Game, earned); err != nil {
				log.Printf("round %s: score submit failed: %v", r.cfg.Game, err)
			}
		}()
	}
	if r.onEnd != nil {
		r.onEnd(earned)
	}
}
