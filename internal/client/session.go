package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// DefaultPollInterval matches the cadence of the browser client.
const DefaultPollInterval = 800 * time.Millisecond

type ExitReason string

const (
	ExitRoomGone     ExitReason = "room_gone"
	ExitOpponentLeft ExitReason = "opponent_left"
	ExitLeft         ExitReason = "left"
)

// Listener receives the transitions a session derives from server state. Every
// transition fires once per occurrence no matter how many polls observe it.
type Listener interface {
	OnSync(view View)
	OnGameFinished(view View, score Score)
	OnRematchStarted(view View)
	OnOpponentReady(view View)
	OnExit(reason ExitReason)
	// OnWaiting reports an intent the room refused in its current state, such as
	// a ready that lands after the rematch began. The session keeps running.
	OnWaiting(err error)
	OnError(err error)
}

// Session is one participant's seat in an online room.
type Session struct {
	logger   *slog.Logger
	api      API
	listener Listener

	code     string
	mark     tictactoe.Mark
	interval time.Duration

	mu            sync.Mutex
	view          View
	score         Score
	finalizedGame int
	scoredGame    int
	opponentReady bool
	leaving       bool
	exited        bool

	done chan struct{}
}

// Host creates a room and seats the caller as A.
func Host(ctx context.Context, logger *slog.Logger, api API, listener Listener, interval time.Duration) (*Session, error) {
	seat, err := api.CreateRoom(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return newSession(logger, api, listener, seat.RoomID, seat.YouAre, interval), nil
}

// Join takes the second seat of an existing room.
func Join(ctx context.Context, logger *slog.Logger, api API, listener Listener, code string, interval time.Duration) (*Session, error) {
	seat, err := api.JoinRoom(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to join room %s: %w", code, err)
	}

	return newSession(logger, api, listener, seat.RoomID, seat.YouAre, interval), nil
}

func newSession(logger *slog.Logger, api API, listener Listener, code string, mark tictactoe.Mark, interval time.Duration) *Session {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Session{
		logger:   logger.With("component", "session", "room", code, "mark", mark),
		api:      api,
		listener: listener,
		code:     code,
		mark:     mark,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (that *Session) Code() string {
	return that.code
}

func (that *Session) Mark() tictactoe.Mark {
	return that.mark
}

func (that *Session) View() View {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.view
}

func (that *Session) Score() Score {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.score
}

// Done is closed once the session has exited.
func (that *Session) Done() <-chan struct{} {
	return that.done
}

// Run polls the room until the session exits or ctx is done.
func (that *Session) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")

	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	_ = that.SyncOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Debug("polling stopped", "reason", ctx.Err())
			return
		case <-that.done:
			return
		case <-ticker.C:
			_ = that.SyncOnce(ctx)
		}
	}
}

// SyncOnce fetches the room and reconciles the local view with it.
func (that *Session) SyncOnce(ctx context.Context) error {
	if that.isExited() {
		return nil
	}

	state, err := that.api.RoomState(ctx, that.code)
	if err != nil {
		return that.failed(err)
	}

	that.reconcile(viewFromState(state))

	return nil
}

// Move sends a move for the caller's mark. The view changes only once the server accepts it.
func (that *Session) Move(ctx context.Context, index int) error {
	that.mu.Lock()
	err := that.checkMove(index)
	that.mu.Unlock()

	if err != nil {
		return err
	}

	resp, err := that.api.MakeMove(ctx, that.code, that.mark, index)
	if err != nil {
		return that.failed(err)
	}

	that.reconcile(viewFromMove(resp))

	return nil
}

// Rematch starts the next game. Only the winner may ask, or either side after a draw.
func (that *Session) Rematch(ctx context.Context, startMark tictactoe.Mark) error {
	that.mu.Lock()
	err := that.checkRematch()
	that.mu.Unlock()

	if err != nil {
		return err
	}

	state, err := that.api.ResetRoom(ctx, that.code, that.mark, startMark)
	if err != nil {
		return that.failed(err)
	}

	that.reconcile(viewFromState(state))

	return nil
}

// Ready tells the winner that the losing side is prepared for a rematch.
func (that *Session) Ready(ctx context.Context) error {
	that.mu.Lock()
	err := that.checkReady()
	that.mu.Unlock()

	if err != nil {
		return err
	}

	if err = that.api.Ready(ctx, that.code, that.mark); err != nil {
		return that.failed(err)
	}

	return nil
}

// Leave notifies the server on a best effort basis and tears the session down.
// State observed while the request is in flight is ignored, so the caller's own
// departure is never reported as the opponent's.
func (that *Session) Leave(ctx context.Context) {
	that.mu.Lock()
	if that.exited || that.leaving {
		that.mu.Unlock()
		return
	}
	that.leaving = true
	that.mu.Unlock()

	if err := that.api.LeaveRoom(ctx, that.code, that.mark); err != nil {
		that.logger.Warn("leave was not delivered", "error", err)
	}

	that.mu.Lock()
	fire := that.exit(ExitLeft)
	that.mu.Unlock()

	fire()
}

func (that *Session) checkMove(index int) error {
	if that.exited {
		return fmt.Errorf("%w: session closed", apperror.ErrRoomNotActive)
	}

	if that.view.Status != entity.StatusActive {
		return fmt.Errorf("%w: status %s", apperror.ErrRoomNotActive, that.view.Status)
	}

	if index < 0 || index >= tictactoe.BoardSize {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, index)
	}

	if that.view.Turn != that.mark {
		return apperror.ErrNotYourTurn
	}

	if that.view.Board[index] != tictactoe.Empty {
		return apperror.ErrCellOccupied
	}

	return nil
}

func (that *Session) checkRematch() error {
	if that.exited || that.view.Status != entity.StatusFinished {
		return fmt.Errorf("%w: no finished game", apperror.ErrNotPermitted)
	}

	if !that.view.IsDraw() && that.view.Winner != that.mark {
		return fmt.Errorf("%w: only the winner starts the rematch", apperror.ErrNotPermitted)
	}

	return nil
}

func (that *Session) checkReady() error {
	if that.exited || that.view.Status != entity.StatusFinished {
		return fmt.Errorf("%w: no finished game", apperror.ErrNotPermitted)
	}

	if that.view.Winner == that.mark {
		return fmt.Errorf("%w: the winner starts the rematch", apperror.ErrNotPermitted)
	}

	return nil
}

// failed reports a request error. A vanished room ends the session and a
// refused intent is a waiting message rather than a failure.
func (that *Session) failed(err error) error {
	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		that.mu.Lock()
		fire := func() {}
		if !that.leaving {
			fire = that.exit(ExitRoomGone)
		}
		that.mu.Unlock()

		fire()

		return err
	case errors.Is(err, apperror.ErrNotPermitted):
		that.logger.Info("intent refused by room", "error", err)
		that.listener.OnWaiting(err)

		return err
	}

	that.logger.Warn("request failed", "error", err)
	that.listener.OnError(err)

	return err
}

// reconcile replaces the local view with server state and derives transitions.
// Listener calls are made after the lock is released.
func (that *Session) reconcile(next View) {
	that.mu.Lock()

	if that.exited || that.leaving {
		that.mu.Unlock()
		return
	}

	if next.Version < that.view.Version {
		that.logger.Debug("stale state discarded", "version", next.Version, "have", that.view.Version)
		that.mu.Unlock()
		return
	}

	seen := that.view.Version != 0
	that.view = next

	if next.Status == entity.StatusClosed {
		fire := that.exit(ExitOpponentLeft)
		that.mu.Unlock()

		fire()
		return
	}

	var events []func()

	result := tictactoe.Evaluate(next.Board)

	// The previous game ended and its rematch began between two polls.
	if missed := next.Game - 1; seen && missed > that.scoredGame && missed > that.finalizedGame &&
		next.LastWinner != tictactoe.Empty {
		that.finalizedGame = missed
		that.scoredGame = missed
		that.score.record(next.LastWinner, that.mark)
		score := that.score
		last := View{Status: entity.StatusFinished, Winner: next.LastWinner, Version: next.Version, Game: missed}
		events = append(events, func() { that.listener.OnGameFinished(last, score) })
	}

	if that.finalizedGame != 0 && (next.Game > that.finalizedGame || !result.IsTerminal()) {
		that.finalizedGame = 0
		that.opponentReady = false
		events = append(events, func() { that.listener.OnRematchStarted(next) })
	}

	if next.Status == entity.StatusFinished && result.IsTerminal() && that.finalizedGame == 0 {
		that.finalizedGame = next.Game
		that.scoredGame = next.Game
		that.score.record(next.Winner, that.mark)
		score := that.score
		events = append(events, func() { that.listener.OnGameFinished(next, score) })
	}

	if next.Status == entity.StatusFinished && !that.opponentReady && next.ReadyOf(tictactoe.Opponent(that.mark)) {
		that.opponentReady = true
		events = append(events, func() { that.listener.OnOpponentReady(next) })
	}

	that.mu.Unlock()

	that.listener.OnSync(next)
	for _, event := range events {
		event()
	}
}

func (that *Session) isExited() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.exited
}

// exit must be called with mu held; the returned func notifies the listener.
func (that *Session) exit(reason ExitReason) func() {
	if that.exited {
		return func() {}
	}

	that.exited = true
	close(that.done)
	that.logger.Info("session ended", "reason", reason)

	return func() { that.listener.OnExit(reason) }
}
