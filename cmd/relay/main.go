// Command relay captures frames from a webcam (or a still image), sends
// them to the backend's CV routes one at a time and shows the results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"devcollab/internal/config"
	"devcollab/internal/handlers"
	"devcollab/internal/httpc"
	"devcollab/internal/logger"
	"devcollab/internal/middleware"
	"devcollab/internal/server"
	"devcollab/internal/services/display"
	"devcollab/internal/services/endpoint"
	"devcollab/internal/services/relay"
	"devcollab/internal/services/vision"
	"devcollab/internal/services/websocket"
)

// HighGUI wants the main OS thread; Run and every Show happen on it.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Relay stopped: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	rc := cfg.Relay

	var (
		interval       = rc.Interval()
		requestTimeout = rc.RequestTimeout()
		snapshotEvery  = rc.SnapshotEvery()
	)
	flag.StringVar(&rc.Endpoint, "endpoint", rc.Endpoint, "backend base URL")
	flag.StringVar(&rc.Method, "method", rc.Method, "processing method: canny, hands or faces")
	flag.IntVar(&rc.Low, "low", rc.Low, "canny lower threshold")
	flag.IntVar(&rc.High, "high", rc.High, "canny upper threshold")
	flag.StringVar(&rc.Device, "device", rc.Device, "camera index or video URL")
	flag.StringVar(&rc.Still, "still", rc.Still, "relay a still image instead of the camera")
	flag.DurationVar(&interval, "interval", interval, "time between capture ticks")
	flag.DurationVar(&requestTimeout, "timeout", requestTimeout, "per-request timeout")
	flag.IntVar(&rc.JPEGQuality, "quality", rc.JPEGQuality, "JPEG quality of submitted frames")
	flag.IntVar(&rc.ViewPort, "view-port", rc.ViewPort, "serve browser viewers on this port (0 disables)")
	flag.StringVar(&rc.SnapshotPath, "snapshot", rc.SnapshotPath, "write the latest result to this PNG file")
	flag.DurationVar(&snapshotEvery, "snapshot-every", snapshotEvery, "snapshot write interval")
	flag.BoolVar(&rc.Window, "window", rc.Window, "show results in a desktop window")
	flag.Parse()

	method, err := relay.ParseMethod(rc.Method)
	if err != nil {
		return err
	}
	params := relay.Params{Method: method, Low: rc.Low, High: rc.High}

	appLogger := logger.NewLogger(cfg)
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	client, err := endpoint.NewClient(rc.Endpoint, httpc.NewClient(0))
	if err != nil {
		return err
	}

	var source relay.Source
	if rc.Still != "" {
		source = relay.NewStillSource(rc.Still)
	} else {
		source = vision.NewWebcam(rc.Device)
	}

	var (
		displays  display.Fanout
		observers []func(relay.Event)
		wg        sync.WaitGroup
		hub       *websocket.HubService
	)

	if rc.Window || (rc.ViewPort == 0 && rc.SnapshotPath == "") {
		window := vision.NewWindow("DevCollab Relay - " + string(method))
		defer window.Close()
		displays = append(displays, window)
	}

	if rc.SnapshotPath != "" {
		snapshot := display.NewSnapshot(rc.SnapshotPath, appLogger)
		displays = append(displays, snapshot)
		wg.Add(1)
		go func() {
			defer wg.Done()
			snapshot.Run(runCtx, snapshotEvery)
		}()
	}

	if rc.ViewPort > 0 {
		hub = websocket.NewHubService("viewers", appLogger)
		viewers := display.NewViewers(hub, rc.JPEGQuality, appLogger)
		displays = append(displays, viewers)
		observers = append(observers, viewers.Observe)
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Run(runCtx)
		}()
	}

	r, err := relay.New(source, client, displays, params, appLogger,
		relay.WithInterval(interval),
		relay.WithRequestTimeout(requestTimeout),
		relay.WithEncoder(relay.JPEGEncoder{Quality: rc.JPEGQuality}),
		relay.WithObserver(func(ev relay.Event) {
			for _, observe := range observers {
				observe(ev)
			}
		}),
	)
	if err != nil {
		return err
	}

	if hub != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /ws/view", handlers.ViewWebsocketHandler(hub, appLogger))
		mux.HandleFunc("GET /api/relay/status", handlers.RelayStatusHandler(r, appLogger))
		handler := middleware.CORSMiddleware(middleware.LoggingMiddleware(appLogger)(mux))

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.Serve(runCtx, fmt.Sprintf(":%d", rc.ViewPort), handler, appLogger); err != nil {
				appLogger.Error("Viewer server failed: %v", err)
				cancel()
			}
		}()
	}

	fmt.Printf("🎥 Relay %s -> %s\n", sourceName(rc), client.URLFor(method))

	start := time.Now()
	err = r.Run(runCtx)
	cancel()
	wg.Wait()

	stats := r.Stats()
	fmt.Printf("🛑 Relay stopped after %v: %d displayed, %d failed, %d dropped ticks\n",
		time.Since(start).Round(time.Second), stats.Displayed, stats.Failed, stats.Dropped)

	if errors.Is(err, relay.ErrSourceUnavailable) {
		return fmt.Errorf("capture source unavailable: %w", err)
	}
	return err
}

func sourceName(rc config.RelayConfig) string {
	if rc.Still != "" {
		return "still " + rc.Still
	}
	return "camera " + rc.Device
}
