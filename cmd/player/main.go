// Command player is a terminal participant for the room server. It can host a
// room, join one by code, or play locally against the computer.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/bot"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/client"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
)

func main() {
	host := flag.Bool("host", false, "create a room and wait for an opponent")
	join := flag.String("join", "", "join the room with this code")
	auto := flag.Bool("auto", false, "let the computer play your moves")
	local := flag.Bool("local", false, "play against the computer without a server")
	flag.Parse()

	conf, err := config.LoadPlayer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	difficulty, err := bot.ParseDifficulty(conf.Difficulty)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	lines := readLines(os.Stdin)
	suggester := bot.NewBotService(difficulty)

	if *local {
		playLocal(ctx, out, lines, suggester)
		return
	}

	if *host == (*join != "") {
		fmt.Fprintln(os.Stderr, "use exactly one of -host, -join CODE or -local")
		flag.Usage()
		os.Exit(2)
	}

	logger := pkg.NewLogger(os.Stderr, conf.LogLevel)
	api := client.NewHTTPAPI(conf.ServerURL, nil)
	console := newConsole(out)

	var session *client.Session
	if *host {
		session, err = client.Host(ctx, logger, api, console, conf.PollInterval)
	} else {
		session, err = client.Join(ctx, logger, api, console, *join, conf.PollInterval)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	console.attach(session, *auto, suggester)
	console.printf("room %s, you are %s\n", session.Code(), session.Mark())

	go session.Run(ctx)

	playOnline(ctx, console, session, lines)
}

func readLines(f *os.File) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	return lines
}
