package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/bot"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/client"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// console prints session transitions and, with auto set, plays for the user.
type console struct {
	mu  sync.Mutex
	out *bufio.Writer

	session   *client.Session
	auto      bool
	suggester bot.BotService
	lastMoved int64
	lastShown int64
}

func newConsole(out *bufio.Writer) *console {
	return &console{out: out}
}

func (that *console) attach(session *client.Session, auto bool, suggester bot.BotService) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.session = session
	that.auto = auto
	that.suggester = suggester
}

func (that *console) printf(format string, args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintf(that.out, format, args...)
	that.out.Flush()
}

func (that *console) OnSync(view client.View) {
	that.mu.Lock()
	if view.Version == that.lastShown || that.session == nil {
		that.mu.Unlock()
		return
	}
	that.lastShown = view.Version

	session, auto := that.session, that.auto
	fmt.Fprint(that.out, renderBoard(view.Board))
	fmt.Fprintf(that.out, "status: %s, turn: %s\n", view.Status, view.Turn)
	that.out.Flush()

	mine := view.CanMove(session.Mark())
	if !auto || !mine || that.lastMoved == view.Version {
		that.mu.Unlock()
		return
	}
	that.lastMoved = view.Version
	that.mu.Unlock()

	go that.autoMove(session, view)
}

func (that *console) OnGameFinished(view client.View, score client.Score) {
	session := that.currentSession()

	switch {
	case view.Winner == entity.Draw:
		that.printf("draw\n")
	case view.Winner == session.Mark():
		that.printf("you win on %v\n", view.Line)
	default:
		that.printf("you lose\n")
	}

	that.printf("score: %d won, %d lost, %d drawn\n", score.Wins, score.Losses, score.Draws)

	if !that.isAuto() {
		if view.Winner == session.Mark() || view.Winner == entity.Draw {
			that.printf("type r to start the next game\n")
		} else {
			that.printf("type ready when you want another game\n")
		}
		return
	}

	go func() {
		ctx := context.Background()

		var err error
		switch {
		case view.Winner == session.Mark(), view.Winner == entity.Draw && session.Mark() == tictactoe.MarkA:
			err = session.Rematch(ctx, tictactoe.Empty)
		case view.Winner != entity.Draw:
			err = session.Ready(ctx)
		}

		if err != nil {
			that.report(err)
		}
	}()
}

func (that *console) OnRematchStarted(view client.View) {
	that.printf("game %d started, %s opens\n", view.Game, view.Turn)
}

func (that *console) OnOpponentReady(client.View) {
	that.printf("opponent is ready for another game\n")
}

func (that *console) OnExit(reason client.ExitReason) {
	switch reason {
	case client.ExitOpponentLeft:
		that.printf("opponent left the room\n")
	case client.ExitRoomGone:
		that.printf("room no longer exists\n")
	case client.ExitLeft:
		that.printf("you left the room\n")
	}
}

func (that *console) OnWaiting(err error) {
	that.printf("waiting: %v\n", err)
}

func (that *console) OnError(err error) {
	that.printf("error: %v\n", err)
}

// report prints a refused intent as a waiting message and anything else as an error.
func (that *console) report(err error) {
	if errors.Is(err, apperror.ErrNotPermitted) {
		that.OnWaiting(err)
		return
	}

	that.OnError(err)
}

func (that *console) autoMove(session *client.Session, view client.View) {
	that.mu.Lock()
	suggester := that.suggester
	that.mu.Unlock()

	index, err := suggester.Suggest(view.Board, session.Mark())
	if err != nil {
		that.printf("error: %v\n", err)
		return
	}

	if err = session.Move(context.Background(), index); err != nil {
		that.printf("move %d rejected: %v\n", index+1, err)
	}
}

func (that *console) currentSession() *client.Session {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.session
}

func (that *console) isAuto() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.auto
}

// playOnline turns typed commands into session intents until the session ends.
func playOnline(ctx context.Context, console *console, session *client.Session, lines <-chan string) {
	console.printf("commands: 1-9 move, r [A|B] rematch, ready, q leave\n")

	for {
		select {
		case <-ctx.Done():
			session.Leave(context.Background())
			return
		case <-session.Done():
			return
		case line, ok := <-lines:
			if !ok {
				session.Leave(ctx)
				return
			}

			if err := runCommand(ctx, session, strings.Fields(line)); err != nil {
				console.report(err)
			}
		}
	}
}

func runCommand(ctx context.Context, session *client.Session, fields []string) error {
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "q", "quit":
		session.Leave(ctx)
		return nil
	case "ready":
		return session.Ready(ctx)
	case "r", "rematch":
		startMark := tictactoe.Empty
		if len(fields) > 1 {
			mark, err := tictactoe.ParseMark(fields[1])
			if err != nil {
				return err
			}
			startMark = mark
		}
		return session.Rematch(ctx, startMark)
	}

	cell, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("unknown command %q", fields[0])
	}

	return session.Move(ctx, cell-1)
}

func renderBoard(board tictactoe.Board) string {
	var builder strings.Builder

	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			index := row*3 + col
			cell := string(board[index])
			if cell == "" {
				cell = strconv.Itoa(index + 1)
			}

			builder.WriteString(" " + cell + " ")
			if col < 2 {
				builder.WriteString("|")
			}
		}
		builder.WriteString("\n")
		if row < 2 {
			builder.WriteString("---+---+---\n")
		}
	}

	return builder.String()
}
