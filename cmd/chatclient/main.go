package main

import (
	"LykkeLoopAPI/internal/chatsync"
	"LykkeLoopAPI/internal/config"
	"LykkeLoopAPI/internal/entity"
	"LykkeLoopAPI/internal/helper"
	"LykkeLoopAPI/internal/model"
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found")
	}

	baseURL := flag.String("url", envOr("LYKKELOOP_URL", "http://localhost:8080"), "API base URL")
	token := flag.String("token", os.Getenv("LYKKELOOP_TOKEN"), "bearer token")
	conversation := flag.String("conversation", "", "conversation id to open (admin only)")
	flag.Parse()

	if *token == "" {
		fmt.Fprintln(os.Stderr, "a token is required (-token or LYKKELOOP_TOKEN)")
		os.Exit(2)
	}

	claims, err := helper.PeekJWT(*token)
	if err != nil {
		slog.Error("Invalid token", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := chatsync.NewAPIClient(*baseURL, *token, config.NewHTTPClient())

	opts := chatsync.Options{
		Role:   entity.SenderRole(claims.Role),
		UserID: claims.UserID,
		OnScroll: func(inserted []model.MessageResponse) {
			for _, m := range inserted {
				printMessage(claims.Role, m)
			}
		},
		OnNotify: func(n chatsync.Notification) {
			fmt.Printf("** %s: %s (conversation %s)\n", n.Title, n.Text, n.ConversationID)
		},
		OnUnread: func(count int) {
			fmt.Printf("** unread: %d\n", count)
		},
		OnRead: func(p model.MessagesReadPayload) {
			fmt.Printf("** read by %s at %s\n", p.ReaderRole, p.ReadAt.Local().Format(time.Kitchen))
		},
	}

	switch {
	case claims.Role == helper.RoleUser:
		conv, err := api.OpenConversation(ctx)
		if err != nil {
			slog.Error("Failed to open conversation", "error", err)
			os.Exit(1)
		}
		opts.ConversationID = &conv.ID
	case *conversation != "":
		id, err := uuid.Parse(*conversation)
		if err != nil {
			slog.Error("Invalid conversation id", "conversation", *conversation)
			os.Exit(2)
		}
		opts.ConversationID = &id
	}

	engine := chatsync.NewEngine(api, chatsync.NewWSPush(*baseURL, *token), opts)
	if err := engine.Start(ctx); err != nil {
		slog.Error("Failed to start sync", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	if opts.ConversationID == nil {
		fmt.Println("Watching for new messages. Ctrl+C to quit.")
		<-ctx.Done()
		return
	}

	fmt.Println("Type a message and press Enter. Ctrl+C to quit.")
	lines := readLines()
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if _, err := engine.Send(ctx, line); err != nil {
				var apiErr *chatsync.APIError
				if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
					fmt.Printf("!! %s (retry in %s)\n", apiErr.Message, apiErr.RetryAfter)
				} else {
					fmt.Printf("!! not sent: %v\n", err)
				}
			}
		}
	}
}

func readLines() <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			out <- scanner.Text()
		}
	}()
	return out
}

func printMessage(viewerRole string, m model.MessageResponse) {
	who := "LykkeLoop"
	switch {
	case m.SenderRole == viewerRole:
		who = "You"
	case m.SenderRole == helper.RoleUser:
		who = "Customer"
	}
	fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format(time.Kitchen), who, m.Content)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
