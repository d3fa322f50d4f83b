package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"

	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hieunv6/scavenger-miner/app"
	"github.com/hieunv6/scavenger-miner/ashmaize"
	"github.com/hieunv6/scavenger-miner/client"
	"github.com/hieunv6/scavenger-miner/config"
	"github.com/hieunv6/scavenger-miner/logging"
	"github.com/hieunv6/scavenger-miner/miner"
	"github.com/hieunv6/scavenger-miner/wallet"
)

// Miner binary version.
// It should be passed during the build with '-ldflags "-X main.version="'.
var version = "unknown"

// scavengerMain is the true entry point. This function is required since
// defers created in the top-level scope of a main method aren't executed if
// os.Exit() is called.
func scavengerMain() error {
	// Start with a default Config with sane settings
	cfg := config.DefaultConfig()
	// Pre-parse the command line to check for an alternative Config file
	cfg, err := config.ParseFlags(cfg)
	if err != nil {
		return err
	}
	// Load configuration file overwriting defaults with any specified options
	cfg, err = config.ReadConfigFile(cfg)
	if err != nil {
		return err
	}
	cfg, err = config.SetupConfig(cfg)
	if err != nil {
		return err
	}
	// Finally, parse the remaining command line options again to ensure
	// they take precedence.
	cfg, err = config.ParseFlags(cfg)
	if err != nil {
		return err
	}

	// Initialize logging
	logLevel := zap.InfoLevel
	if cfg.DebugLog {
		logLevel = zap.DebugLevel
	}
	logger := logging.New(logLevel, cfg.LogFile(), cfg.JSONLog)
	ctx := logging.NewContext(context.Background(), logger)

	defer func() {
		logger.Info("shutdown complete")
	}()

	logger.Sugar().Infof("version: %s, dir: %v, service: %v", version, cfg.ScavengerDir, cfg.BaseURL)

	// Enable http profiling server if requested.
	if cfg.Profile != "" {
		logger.Sugar().Infof("starting HTTP profiling on port %v", cfg.Profile)
		go func() {
			listenAddr := net.JoinHostPort("", cfg.Profile)
			profileRedirect := http.RedirectHandler("/debug/pprof", http.StatusSeeOther)
			http.Handle("/", profileRedirect)
			fmt.Println(http.ListenAndServe(listenAddr, nil))
		}()
	} else {
		// Disable go default unbounded memory profiler.
		runtime.MemProfileRate = 0
	}

	if cfg.CPUProfile != "" {
		f, err := os.Create(cfg.CPUProfile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if cfg.MetricsListen != "" {
		logger.Sugar().Infof("exposing metrics on %v", cfg.MetricsListen)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				logger.With(zap.Error(err)).Error("metrics listener failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	api, err := client.New(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	romCfg := ashmaize.Config{
		RomSize:       cfg.Miner.RomSize,
		PreSize:       cfg.Miner.PreSize,
		MixingNumbers: cfg.Miner.MixingNumbers,
		NbLoops:       cfg.Miner.NbLoops,
		NbInstrs:      cfg.Miner.NbInstrs,
	}
	a, err := app.New(api,
		wallet.NewConsoleSigner(os.Stdin, os.Stdout),
		cfg.Address,
		app.WithMaxIterations(cfg.Miner.MaxIterations),
		app.WithWorkers(cfg.Miner.Workers),
		app.WithRomBuilder(func(seed []byte) (miner.Hasher, error) {
			return ashmaize.New(seed, romCfg)
		}),
	)
	if err != nil {
		return err
	}

	if cfg.Register {
		if err := a.Register(ctx); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
	}

	if cfg.Watch {
		err = a.Watch(ctx, cfg.PollInterval)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	err = a.Run(ctx)
	switch {
	case errors.Is(err, miner.ErrExhausted):
		// Expected outcome; the budget ran out without a winning nonce.
		return nil
	case errors.Is(err, context.Canceled):
		return nil
	}
	return err
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := scavengerMain(); err != nil {
		// If it's the flag utility error don't print it,
		// because it was already printed.
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
