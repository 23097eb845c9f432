package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/teslashibe/go-dungeon/internal/config"
	"github.com/teslashibe/go-dungeon/internal/log"
	"github.com/teslashibe/go-dungeon/pkg/detection"
	"github.com/teslashibe/go-dungeon/pkg/detection/yolo"
	"github.com/teslashibe/go-dungeon/pkg/dungeon"
	"github.com/teslashibe/go-dungeon/pkg/engine"
	"github.com/teslashibe/go-dungeon/pkg/events"
	"github.com/teslashibe/go-dungeon/pkg/hero"
	"github.com/teslashibe/go-dungeon/pkg/input"
	"github.com/teslashibe/go-dungeon/pkg/perception"
	"github.com/teslashibe/go-dungeon/pkg/queue"
	"github.com/teslashibe/go-dungeon/pkg/run"
	"github.com/teslashibe/go-dungeon/pkg/screen"
	"github.com/teslashibe/go-dungeon/pkg/web"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "YAML config file")
	heroName := flag.String("hero", "", "Character to start with (overrides config)")
	dungeonName := flag.String("dungeon", "", "Dungeon graph name (overrides config)")
	source := flag.String("source", "", "Capture source: device index, URL, video file or screenshot dir")
	device := flag.String("device", "", "scrcpy control socket host:port")
	transport := flag.String("transport", "", "Touch transport: scrcpy or bridge")
	webAddr := flag.String("web", "", "Dashboard listen address, e.g. :8080")
	dryRun := flag.Bool("dry-run", false, "Record touches in memory instead of sending them to the device")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	override(&cfg.Hero, *heroName)
	override(&cfg.Dungeon, *dungeonName)
	override(&cfg.Capture.Source, *source)
	override(&cfg.Device.Addr, *device)
	override(&cfg.Device.Transport, *transport)
	override(&cfg.Web.Addr, *webAddr)
	if *debug {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	if err := log.Setup(log.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
	}
	defer log.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	if err := runBot(ctx, cfg, *dryRun); err != nil {
		log.Error("bot stopped", "error", err)
		os.Exit(1)
	}
	log.Info("goodbye")
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func runBot(ctx context.Context, cfg config.Config, dryRun bool) error {
	logger := log.L()

	heroes, err := loadHeroes(cfg.HeroesFile)
	if err != nil {
		return err
	}
	graphs, err := loadDungeons(cfg.DungeonsFile)
	if err != nil {
		return err
	}

	chain := cfg.Roster
	if len(chain) == 0 {
		if chain, err = heroes.Chain(cfg.Hero); err != nil {
			return err
		}
	}
	for _, name := range chain {
		if _, err := heroes.Get(name); err != nil {
			return err
		}
	}
	logger.Info("roster", "chain", strings.Join(chain, " -> "), "dungeon", cfg.Dungeon)

	touch, err := openTransport(cfg.Device, dryRun, logger)
	if err != nil {
		return err
	}
	defer touch.Close()

	labels, err := detection.NewLabelSet(cfg.Model.Classes)
	if err != nil {
		return err
	}
	detector, err := yolo.New(yolo.Config{
		ModelPath:        cfg.Model.Path,
		ConfidenceThresh: cfg.Model.Confidence,
		NMSThresh:        cfg.Model.NMS,
		InputWidth:       cfg.Model.InputSize,
		InputHeight:      cfg.Model.InputSize,
	}, labels.Len())
	if err != nil {
		return err
	}
	defer detector.Close()

	src, err := screen.Open(cfg.Capture.Source)
	if err != nil {
		return err
	}
	defer src.Close()

	frames := queue.New[engine.Frame](cfg.QueueSize)
	producer := perception.New(cfg.Capture.Perception, src, detector,
		detection.NewClassifier(labels, cfg.Model.MinConfidence), frames, logger)

	emitters := events.Multi{events.NewLogEmitter(logger)}
	if cfg.MQTT.Broker != "" {
		mq, err := events.DialMQTT(cfg.MQTT, logger)
		if err != nil {
			logger.Warn("mqtt disabled", "error", err)
		} else {
			defer mq.Close()
			emitters = append(emitters, mq)
		}
	}
	milestones := events.NewObserver(emitters, 64, logger)

	var dashboard *web.Server
	if cfg.Web.Addr != "" {
		dashboard = web.NewServer(cfg.Web.Addr, logger)
	}

	factory := func(name string, onComplete func()) (run.Runner, error) {
		ch, err := heroes.Get(name)
		if err != nil {
			return nil, err
		}
		graphName := cfg.Dungeon
		if graphName == "" {
			graphName = ch.Dungeon
		}
		graph, err := graphs.Get(graphName)
		if err != nil {
			return nil, err
		}
		h := hero.NewBase(ch, heroes.Layout, touch, hero.WithLogger(logger))

		opts := []engine.Option{
			engine.WithLogger(logger),
			engine.WithObserver(milestones),
			engine.WithOnComplete(onComplete),
		}
		if dashboard != nil {
			opts = append(opts, engine.WithObserver(dashboard))
		}
		return engine.New(cfg.Engine, graph, h, frames, opts...), nil
	}

	menu := run.NewMenuSelector(cfg.Menu, touch, nil, logger)
	controller := run.New(chain, factory, menu, logger)
	if dashboard != nil {
		dashboard.OnRoster = func() (string, []string) {
			return controller.Character(), controller.Completed()
		}
	}

	// Background services stop with bg; the controller decides when the bot is done.
	bg, stopBG := context.WithCancel(ctx)
	defer stopBG()

	go milestones.Run(bg)
	if dashboard != nil {
		go func() {
			if err := dashboard.Run(bg); err != nil {
				logger.Warn("dashboard stopped", "error", err)
			}
		}()
	}
	producerErr := make(chan error, 1)
	go func() { producerErr <- producer.Run(bg) }()

	if err := menu.Play(ctx, cfg.Menu.Battle); err != nil {
		return fmt.Errorf("start battle: %w", err)
	}
	if err := controller.Start(ctx); err != nil {
		return err
	}

	select {
	case <-controller.Done():
	case <-ctx.Done():
		controller.Stop()
	case err := <-producerErr:
		// The producer closed the queue; the engine winds down with it.
		if err != nil {
			logger.Error("perception failed", "error", err)
		}
	}
	runErr := controller.Wait()
	stopBG()

	stats := producer.Stats()
	logger.Info("session finished",
		"completed", strings.Join(controller.Completed(), ","),
		"frames", stats.Frames,
		"dropped", stats.Dropped,
		"events_dropped", milestones.Dropped(),
	)
	return runErr
}

func loadHeroes(path string) (*hero.Catalog, error) {
	if path == "" {
		return hero.Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return hero.ParseCatalog(data)
}

func loadDungeons(path string) (dungeon.Catalog, error) {
	if path == "" {
		return dungeon.Builtin(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return dungeon.Parse(data)
}

func openTransport(cfg config.DeviceConfig, dryRun bool, logger *slog.Logger) (input.Transport, error) {
	if dryRun {
		logger.Info("dry run: touches are recorded, not sent")
		return input.NewRecorder(), nil
	}
	switch cfg.Transport {
	case config.TransportScrcpy:
		return input.DialScrcpy(cfg.Addr, cfg.Width, cfg.Height)
	case config.TransportBridge:
		return input.DialBridge(cfg.BridgeURL, logger)
	}
	return nil, errors.New("unknown transport " + cfg.Transport)
}
