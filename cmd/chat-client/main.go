package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/TheTrueVester/leasy-chat/internal/infrastructure/logging"
	"github.com/TheTrueVester/leasy-chat/internal/pkg/chat/client"
)

func main() {
	server := flag.String("server", "ws://localhost:8080/api/v1/chat/ws", "websocket endpoint")
	api := flag.String("api", "http://localhost:8080/api/v1", "REST base URL")
	sender := flag.String("sender", "", "your user id")
	recipient := flag.String("recipient", "", "counterparty user id")
	origin := flag.String("origin", "terminal", "window identifier")
	logLevel := flag.String("log", "warn", "log level")
	flag.Parse()

	logging.Setup(*logLevel)
	if *sender == "" || *recipient == "" {
		fmt.Fprintln(os.Stderr, "usage: chat-client -sender <id> -recipient <id> [-server ...] [-api ...]")
		os.Exit(2)
	}

	session, err := client.NewSession(client.Options{
		ServerURL:   *server,
		APIURL:      *api,
		SenderID:    *sender,
		RecipientID: *recipient,
		Origin:      *origin,
		OnMessage: func(m client.Message) {
			if m.File != "" {
				fmt.Printf("%s> %s [file: %s]\n", m.Sender, m.Text, m.File)
				return
			}
			fmt.Printf("%s> %s\n", m.Sender, m.Text)
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create session")
	}
	defer session.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := session.Dial(ctx); err != nil {
		// The session keeps redialing on its own; just report the first miss.
		log.Warn().Err(err).Msg("initial connect failed, retrying in background")
	}

	fmt.Printf("chatting with %s, type a message and press enter\n", *recipient)
	lines := readLines(ctx, os.Stdin)

	runInputLoop(ctx, session, lines)
}

// readLines scans r line by line. The returned channel closes when r is
// exhausted or ctx is canceled; a line nobody consumed does not strand the
// goroutine on shutdown.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func runInputLoop(ctx context.Context, session *client.Session, lines <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := session.Send(sendCtx, text, "")
			cancel()
			if err != nil {
				fmt.Fprintf(os.Stderr, "not sent: %v\n", err)
			}
		}
	}
}
