// howaway-watch - prints the live danger status stream of a howaway server
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/el-hoshino/HowAwayAreYou/internal/httpc"
	"github.com/el-hoshino/HowAwayAreYou/internal/log"
	"github.com/el-hoshino/HowAwayAreYou/pkg/pipeline"
	"github.com/el-hoshino/HowAwayAreYou/pkg/web"
)

const (
	writeWait    = 10 * time.Second
	retryBackoff = 2 * time.Second
)

// readWait must be longer than the server's ping period
var readWait = 60 * time.Second

func main() {
	addr := flag.String("addr", "localhost:8080", "howaway server address")
	raw := flag.Bool("raw", false, "Print raw JSON messages")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	printSettings(ctx, *addr, os.Stdout)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/status"}
	watch(ctx, u.String(), *raw, os.Stdout)
}

// printSettings shows the server's capture settings; failure is not fatal
func printSettings(ctx context.Context, addr string, w io.Writer) {
	u := url.URL{Scheme: "http", Host: addr, Path: "/api/config"}
	var settings web.Settings
	if err := httpc.GetJSON(ctx, u.String(), &settings); err != nil {
		log.L().Warn("could not fetch server settings", "error", err)
		return
	}
	fmt.Fprintf(w, "source=%s orientation=%s monocular_fallback=%v\n",
		settings.Source, settings.Orientation, settings.MonocularFallback)
}

// watch connects to the status stream and reconnects until ctx is done
func watch(ctx context.Context, wsURL string, raw bool, w io.Writer) {
	logger := log.With("component", "watch", "url", wsURL)
	for {
		err := stream(ctx, wsURL, raw, w)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("stream lost, reconnecting", "error", err, "backoff", retryBackoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryBackoff):
		}
	}
}

func stream(ctx context.Context, wsURL string, raw bool, w io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage on shutdown
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	// server pings keep an idle stream alive
	conn.SetPingHandler(func(appData string) error {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			return err
		}
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			return err
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if raw {
			fmt.Fprintln(w, string(message))
			continue
		}
		line, err := formatResult(message)
		if err != nil {
			log.L().Debug("skipping message", "error", err)
			continue
		}
		fmt.Fprintln(w, line)
	}
}

// formatResult renders one status message as a single line
func formatResult(message []byte) (string, error) {
	var res pipeline.Result
	if err := json.Unmarshal(message, &res); err != nil {
		return "", err
	}

	ts := res.Captured.Format("15:04:05.000")
	if res.Target == nil {
		return fmt.Sprintf("%s  %-14s  no target", ts, res.Status), nil
	}

	source := "depth"
	if res.Estimate {
		source = "estimate"
	}
	return fmt.Sprintf("%s  %-14s  %.2fm (%s, %s)  %s",
		ts, res.Status, res.Target.Distance, res.Category, source, res.Overlay.Color), nil
}
