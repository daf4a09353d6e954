package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/bot"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

// playLocal is a single game per round against the computer, using only the board rules.
func playLocal(ctx context.Context, out *bufio.Writer, lines <-chan string, suggester bot.BotService) {
	human, computer := tictactoe.MarkA, tictactoe.MarkB

	for {
		var board tictactoe.Board
		turn := tictactoe.MarkA

		for !tictactoe.Evaluate(board).IsTerminal() {
			if turn == computer {
				index, err := suggester.Suggest(board, computer)
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					return
				}

				moved, err := tictactoe.ApplyMove(board, index, computer)
				if err != nil {
					fmt.Fprintf(out, "error: computer move %d: %v\n", index+1, err)
					return
				}

				board = moved
				turn = human
				continue
			}

			fmt.Fprint(out, renderBoard(board))
			fmt.Fprintf(out, "you are %s, pick a cell: ", human)
			out.Flush()

			line, ok := next(ctx, lines)
			if !ok {
				return
			}

			cell, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintln(out, "type a cell number 1-9")
				continue
			}

			moved, err := tictactoe.ApplyMove(board, cell-1, human)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}

			board = moved
			turn = computer
		}

		fmt.Fprint(out, renderBoard(board))

		switch result := tictactoe.Evaluate(board); {
		case result.Outcome == tictactoe.OutcomeDraw:
			fmt.Fprintln(out, "draw")
		case result.Mark == human:
			fmt.Fprintln(out, "you win")
		default:
			fmt.Fprintln(out, "computer wins")
		}

		fmt.Fprint(out, "play again? [y/N] ")
		out.Flush()

		line, ok := next(ctx, lines)
		if !ok || !strings.EqualFold(strings.TrimSpace(line), "y") {
			return
		}

		human, computer = computer, human
	}
}

func next(ctx context.Context, lines <-chan string) (string, bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-lines:
		return line, ok
	}
}
