package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guihaojin/alluxio/internal/clock"
	"github.com/guihaojin/alluxio/internal/command"
	"github.com/guihaojin/alluxio/internal/config"
	"github.com/guihaojin/alluxio/internal/historysink"
	"github.com/guihaojin/alluxio/internal/idgen"
	"github.com/guihaojin/alluxio/internal/jobmaster"
	"github.com/guihaojin/alluxio/internal/logging"
	"github.com/guihaojin/alluxio/internal/lostworker"
	"github.com/guihaojin/alluxio/internal/metrics"
	"github.com/guihaojin/alluxio/internal/planregistry"
	"github.com/guihaojin/alluxio/internal/plantracker"
	"github.com/guihaojin/alluxio/internal/runtime"
	"github.com/guihaojin/alluxio/internal/transport"
	"github.com/guihaojin/alluxio/internal/workerset"
)

func serveCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the job master control plane",
		Long: `Start the job master: admission, worker registration, heartbeat
handling, and lost-worker detection, exposed over JSON-over-HTTP.

Configuration is read from JOB_MASTER_* environment variables; see
internal/config for the full list and their defaults.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe(metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9077", "Metrics server listen address")
	return cmd
}

func runServe(metricsAddr string) {
	cfg := config.Master()
	c := clock.SystemClock{}
	log := logging.New("jobmaster")
	m := metrics.Global()

	tracker := plantracker.New(plantracker.Config{
		Capacity:              cfg.JobCapacity,
		FinishedJobRetention:  cfg.FinishedJobRetention,
		FinishedJobPurgeCount: cfg.FinishedJobPurgeCount,
	}, c, log)

	if cfg.HistoryDBPath != "" {
		sink, err := historysink.Open(cfg.HistoryDBPath, logging.New("historysink"))
		if err != nil {
			fatalf("open history sink: %v", err)
		}
		tracker.SetHistorySink(sink)
		runtime.OnShutdown("historysink", func(ctx context.Context) error {
			return sink.Close()
		})
	}

	ids := idgen.New(c)
	registry := planregistry.NewWithBuiltins()
	workers := workerset.New()
	commands := command.New()

	master := jobmaster.New(ids, tracker, registry, workers, commands, c, log, m)

	detector := lostworker.New(workers, master.FailTasksForWorker, cfg.WorkerTimeout, c, logging.New("lostworker"), m)
	runner := clock.NewRunner(c)
	stopDetector := runner.Schedule("lost_worker_sweep", cfg.LostWorkerInterval, detector.Tick)
	runtime.OnShutdownSimple("lost_worker_detector", stopDetector)

	transportSrv := transport.NewServer(cfg.ListenAddr, master, log)
	if err := transportSrv.Start(); err != nil {
		fatalf("start transport server: %v", err)
	}
	runtime.OnShutdown("transport", transportSrv.Stop)
	fmt.Printf("job master listening on %s\n", cfg.ListenAddr)

	metricsSrv := metrics.NewServer(metricsAddr)
	if err := metricsSrv.Start(); err != nil {
		fatalf("start metrics server: %v", err)
	}
	runtime.OnShutdown("metrics", metricsSrv.Stop)
	fmt.Printf("metrics listening on %s\n", metricsAddr)

	runtime.ListenForSignals()
	runtime.Global().WaitForShutdown()
	os.Exit(0)
}
