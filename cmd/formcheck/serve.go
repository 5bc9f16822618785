package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/config"
	"github.com/ayusman/formcheck/internal/countstore"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/hook"
	"github.com/ayusman/formcheck/internal/server"
	"github.com/ayusman/formcheck/internal/session"
	"github.com/ayusman/formcheck/internal/store"
	"github.com/ayusman/formcheck/internal/tray"
)

var serveTray bool

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the counting server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().BoolVar(&serveTray, "tray", false, "show a system tray icon")
	return cmd
}

func runServe(cfg *config.Config) error {
	logger := newLogger(cfg.Log, cfg.LogLevel())

	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", "path", cfg.Store.Path)

	var counts countstore.Store = st.TaskCounts()
	if cfg.CountStore.Backend == config.BackendHTTP {
		counts = countstore.NewHTTPClient(cfg.CountStore.URL, cfg.CountStore.Timeout)
		logger.Info("using remote count service", "url", cfg.CountStore.URL)
	}

	det := newDetector(cfg.Detector, logger)

	camera := capture.NewCamera(capture.Config{
		DeviceID: cfg.Camera.DeviceID,
		Width:    cfg.Camera.Width,
		Height:   cfg.Camera.Height,
		FPS:      cfg.Camera.FPS,
	})

	preview := session.NewPreview()
	ctrl := session.New(session.Config{
		Camera:            camera,
		Detector:          det,
		Counts:            counts,
		Catalog:           catalog,
		Recorder:          st.Sessions(),
		Preview:           preview,
		Logger:            logger,
		MaxCount:          cfg.Session.MaxCount,
		Cooldown:          cfg.Session.Cooldown,
		FrameDelay:        cfg.Session.FrameDelay,
		StoreTimeout:      cfg.Session.StoreTimeout,
		MaxDetectorErrors: cfg.Session.MaxDetectorErrors,
	})

	var dispatcher *hook.Dispatcher
	defer func() {
		ctrl.Close()
		if dispatcher != nil {
			dispatcher.Wait()
		}
	}()

	hub := server.NewEventHub(logger)
	ctrl.AddListener(hub)

	if cfg.Hooks.Enabled {
		manager := hook.NewManager(cfg.Hooks.Dir, logger)
		if err := manager.Discover(); err != nil {
			logger.Warn("hook discovery failed", "dir", cfg.Hooks.Dir, "error", err)
		} else {
			logger.Info("hooks loaded", "count", len(manager.List()))
		}
		dispatcher = hook.NewDispatcher(manager, hook.NewExecutor(cfg.Hooks.Timeout), logger)
		ctrl.AddListener(dispatcher)
	}

	var t *tray.Tray
	onStarted := hub.SessionStarted
	if serveTray {
		t = tray.New()
		ctrl.AddListener(t)
		onStarted = func(s session.Status) {
			hub.SessionStarted(s)
			t.SessionStarted(s)
		}
	}

	staticDir := cfg.Server.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		logger.Info("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:      staticDir,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Controller:     ctrl,
		Catalog:        catalog,
		Counts:         st.TaskCounts(),
		History:        st.Sessions(),
		Health:         st,
		Frames:         preview,
		Events:         hub,
		OnStarted:      onStarted,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Addr()
	if t == nil {
		return srv.ListenAndServe(ctx, addr)
	}

	// The tray loop must own the main goroutine.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, addr)
		t.Quit()
	}()

	t.OnStop(func() { ctrl.Stop() })
	t.OnOpen(func() { openBrowser("http://"+addr, logger) })
	t.OnQuit(stop)
	t.Run()

	stop()
	return <-errCh
}

// newDetector returns MediaPipe, falling back to a detector that sees no pose
// when the pose service is unavailable.
func newDetector(cfg config.DetectorConfig, logger *slog.Logger) detector.Detector {
	if cfg.Mock {
		logger.Warn("using mock detector")
		return detector.NewMockDetector()
	}
	det, err := detector.NewMediaPipeDetector(detector.Config{
		ScriptPath:      cfg.ScriptPath,
		PythonPath:      cfg.PythonPath,
		MinConfidence:   cfg.MinDetectionConfidence,
		MinTrackingConf: cfg.MinTrackingConfidence,
	})
	if err != nil {
		logger.Warn("MediaPipe unavailable, using mock detector", "error", err)
		return detector.NewMockDetector()
	}
	return det
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.formcheck/web.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeWebDir := filepath.Join(config.DataDir(), "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

func openBrowser(url string, logger *slog.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to open browser", "url", url, "error", err)
	}
}
