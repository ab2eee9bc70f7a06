package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <kind> <code>",
		Short: "Stream a session's realtime state",
		Long: `watch subscribes to a session over the websocket gateway and prints
every state broadcast until interrupted. The first frame is a full
snapshot of the session as of the moment of subscription.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, code := args[0], args[1]

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return watchSession(ctx, kind, code, cfg.Output == "json")
		},
	}
}

func watchSession(ctx context.Context, kind, code string, jsonOutput bool) error {
	url := websocketURL(cfg.ServerURL)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	subscribe := map[string]string{
		"type":     "subscribe",
		"gameKind": kind,
		"code":     code,
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	if !jsonOutput {
		fmt.Printf("Watching %s/%s (Ctrl+C to stop)\n", kind, code)
	}

	// Close the connection when the context ends so ReadMessage unblocks
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Interruption is the normal way out
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		printFrame(data, jsonOutput)
	}
}

// websocketURL converts the configured server URL to its gateway endpoint
func websocketURL(serverURL string) string {
	url := strings.TrimSuffix(serverURL, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws"
}

func printFrame(data []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}

	var frame struct {
		Type string `json:"type"`
	}
	frameType := "unknown"
	if err := json.Unmarshal(data, &frame); err == nil && frame.Type != "" {
		frameType = frame.Type
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Printf("[%s] %s: %s\n", timestamp, frameType, truncate(string(data), 100))
}
