package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sundar139/IOWA-Liquor-Sales/internal/config"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics/datadog"
	"github.com/sundar139/IOWA-Liquor-Sales/internal/metrics/prompush"

	// register all storage backends with the factory; the -storage flag
	// picks one at run time.
	_ "github.com/sundar139/IOWA-Liquor-Sales/internal/storage/all"
)

// main loads the configuration, optionally initializes a metrics backend,
// and executes the requested pipeline stage.
func main() {
	cfg := config.Load()

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid")
	}
	if cfg.ValidateOnly {
		log.Printf("configuration is valid: stage=%s storage=%s", cfg.Stage, cfg.StorageKind)
		return
	}

	switch cfg.MetricsBackend {
	case "pushgateway":
		b, err := prompush.NewBackend("", cfg.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: init pushgateway backend: %v; metrics disabled", err)
			break
		}
		log.Printf("metrics: backend=pushgateway url=%s", cfg.PushgatewayURL)
		metrics.SetBackend(b)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush: %v", err)
			}
		}()

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr: cfg.DogstatsdAddr,
			Tags: []string{"service:iowa-liquor-etl"},
		})
		if err != nil {
			log.Printf("metrics: init datadog backend: %v; metrics disabled", err)
			break
		}
		log.Printf("metrics: backend=datadog agent=%s", cfg.DogstatsdAddr)
		metrics.SetBackend(b)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Printf("metrics: flush: %v", err)
			}
		}()

	case "", "none":
		if cfg.Verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.MetricsBackend)
	}

	// A second signal falls through to the default handler and kills the
	// process; the first one cancels the stages, which flush what they can
	// and report the offset to resume from.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if cfg.Verbose {
		log.Printf("pipeline: stage=%s window=%s..%s storage=%s table=%s work_dir=%s",
			cfg.Stage, cfg.StartDate, cfg.EndDate, cfg.StorageKind, cfg.StagingTable, cfg.WorkDir)
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf("completed stage=%s in %s", cfg.Stage, time.Since(start).Truncate(time.Millisecond))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
