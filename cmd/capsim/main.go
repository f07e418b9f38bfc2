// Command capsim runs the Capitalism Simulator production core: the tick
// engine, offline catch-up at load, autosaving, and the read-only HTTP API.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/api"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/clock"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/config"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/content"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/engine"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/events"
	"github.com/ZiggyGameDev/Capitalism-Simulator-sub000/internal/persistence"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("Capitalism Simulator — production core")

	// ── Content ───────────────────────────────────────────────────────
	var defs *content.Registry
	if cfg.Sim.ContentPath != "" {
		defs, err = content.Load(cfg.Sim.ContentPath)
		if err != nil {
			slog.Error("failed to load content", "path", cfg.Sim.ContentPath, "error", err)
			os.Exit(1)
		}
		slog.Info("content loaded", "path", cfg.Sim.ContentPath)
	} else {
		defs = content.Default()
		slog.Info("using built-in content tables")
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755)
	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	// ── Load or Fresh ─────────────────────────────────────────────────
	clk := clock.RealClock{}
	bus := events.NewBus()
	game := engine.NewGame(defs, bus)

	st, err := db.LoadState()
	if err != nil {
		slog.Error("failed to load save", "error", err)
		os.Exit(1)
	}
	if st != nil {
		game.RestoreState(st)
		slog.Info("save restored",
			"skills", len(st.Skills),
			"buildings", len(st.Buildings),
			"upgrades", len(st.Upgrades),
		)

		// Feed the elapsed wall-clock delta to the catch-up simulator
		// exactly once before automation resumes in real time.
		if st.LastSaveTime > 0 {
			elapsed := clk.Now().UnixMilli() - st.LastSaveTime
			if elapsed > 0 {
				res := game.RunCatchup(float64(elapsed))
				completions := 0
				for _, n := range res.Completions {
					completions += n
				}
				fmt.Printf("Welcome back! While you were away (%s simulated): %s completions.\n",
					time.Duration(res.SimulatedMs)*time.Millisecond,
					humanize.Comma(int64(completions)),
				)
				for id, amount := range res.Resources {
					fmt.Printf("  +%s %s\n", humanize.CommafWithDigits(amount, 1), id)
				}
			}
		}
	} else {
		slog.Info("no saved state found, starting fresh")
	}
	game.ResumeAutomation()

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.Sim.TickInterval
	eng.SetSpeed(cfg.Sim.Speed)

	save := func() {
		if err := db.SaveState(game.SaveState(clk.Now().UnixMilli())); err != nil {
			slog.Error("save failed", "error", err)
		}
	}

	ticksPerSave := uint64(cfg.Sim.Autosave / cfg.Sim.TickInterval)
	eng.OnTick = func(tick uint64, deltaMs float64) {
		game.Update(deltaMs)
		if ticksPerSave > 0 && tick%ticksPerSave == 0 {
			save()
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.Server.AdminKey == "" {
		slog.Warn("server.admin_key not set — admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Game:     game,
		Eng:      eng,
		Port:     cfg.Server.Port,
		AdminKey: cfg.Server.AdminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	save()
	fmt.Println("Simulation stopped. Game state saved.")
}
