package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers with DefaultServeMux.
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/pagestore/evictiond/config"
	"github.com/pagestore/evictiond/eviction"
	"github.com/pagestore/evictiond/metrics"
	"github.com/pagestore/evictiond/tenant"
	"github.com/pagestore/evictiond/utils/flags"
	"github.com/pagestore/evictiond/utils/rlimit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// gitCommit is the version stamp for the daemon. The value of this var is
// set through linker options.
var gitCommit string

func main() {
	log.SetFlags(config.LogFlags)

	maybeGitCommitMsg := ""
	if len(gitCommit) > 0 && gitCommit != "{STABLE_GIT_COMMIT}" {
		maybeGitCommitMsg = fmt.Sprintf(" from git commit %s", gitCommit)
	}
	log.Printf("evictiond built with %s%s.", runtime.Version(), maybeGitCommitMsg)

	app := cli.NewApp()

	cli.AppHelpTemplate = flags.Template
	cli.HelpPrinterCustom = flags.HelpPrinter
	// Force the use of cli.HelpPrinterCustom.
	app.ExtraInfo = func() map[string]string { return map[string]string{} }

	app.Flags = flags.GetCliFlags()
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal("evictiond terminated:", err)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() > 0 {
		fmt.Fprintf(ctx.App.Writer, "Error: evictiond does not take positional arguments\n")
		for i := 0; i < ctx.NArg(); i++ {
			fmt.Fprintf(ctx.App.Writer, "arg: %s\n", ctx.Args().Get(i))
		}
		fmt.Fprintf(ctx.App.Writer, "\n")

		cli.ShowAppHelp(ctx)
		return cli.Exit("", 1)
	}

	c, err := config.Get(ctx)
	if err != nil {
		fmt.Fprintf(ctx.App.Writer, "%v\n\n", err)
		cli.ShowAppHelp(ctx)
		return cli.Exit("", 1)
	}

	rlimit.Raise()

	// This binary is the demo/reference host: a real deployment supplies
	// its own tenant.Registry wired to the storage service's live tenant
	// graph. The in-memory registry here only exists so the engine has
	// something to iterate over; see tenant/memory.go.
	registry := tenant.NewMemoryRegistry()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	engine := eviction.NewEngine(
		c.TenantsDir,
		eviction.Config{MaxUsagePct: c.MaxUsagePct, MinAvailBytes: c.MinAvailBytes},
		c.EvictionOrder.Order(),
		registry,
		c.AccessLogger,
		met,
		nil,
	)

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loop := &eviction.Loop{
		Engine:  engine,
		Period:  c.Period,
		Logger:  c.AccessLogger,
		Metrics: met,
	}
	go loop.Run(rootCtx)

	var httpServer *http.Server
	if c.AdminAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.HandleFunc("/disk_usage_eviction/run_now", triggerHandler(rootCtx, engine, c.ErrorLogger))

		httpServer = &http.Server{Addr: c.AdminAddress, Handler: mux}
		go func() {
			log.Printf("Starting admin server on address %s", c.AdminAddress)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal(err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	cancel()
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}

	return nil
}

// triggerHandler serves the admin "trigger now" endpoint referenced in
// spec.md §5/§7: it shares the engine's iteration mutex with the periodic
// loop, so a racing request surfaces ErrIterationInProgress as 409 rather
// than blocking or running a second iteration concurrently.
func triggerHandler(ctx context.Context, engine *eviction.Engine, errorLogger *config.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed, use POST", http.StatusMethodNotAllowed)
			return
		}

		outcome, err := engine.RunIteration(ctx)
		if err != nil {
			if errors.Is(err, eviction.ErrIterationInProgress) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			errorLogger.Errorf("admin-triggered eviction iteration failed: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "%s\n", outcome.Kind)
	}
}
