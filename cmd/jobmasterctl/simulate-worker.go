package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/guihaojin/alluxio/internal/jobmaster"
	"github.com/guihaojin/alluxio/internal/wire"
	"github.com/guihaojin/alluxio/internal/workerset"
)

// simulateWorkerCmd runs a demo worker against a job master: it
// registers, then heartbeats on an interval, immediately completing any
// START command it receives and re-registering on a REGISTER command.
// Useful for exercising "run echo" end to end without a real worker
// fleet.
func simulateWorkerCmd() *cobra.Command {
	var host string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "simulate-worker",
		Short: "Run a demo worker against a job master",
		Run: func(cmd *cobra.Command, args []string) {
			c := clientFor(cmd)
			runSimulatedWorker(c, host, interval)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Worker host identity (defaults to the process hostname)")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Heartbeat interval")
	return cmd
}

func runSimulatedWorker(c simulatedWorkerClient, host string, interval time.Duration) {
	if host == "" {
		host, _ = os.Hostname()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := workerset.Address{Host: host, RPCPort: 0}
	workerID, err := c.RegisterWorker(ctx, addr)
	if err != nil {
		fatalf("register worker: %v", err)
	}
	fmt.Printf("registered as worker %d (%s)\n", workerID, host)

	var pendingReports []jobmaster.HeartbeatReport

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("shutting down")
			return
		case <-ticker.C:
			cmds, err := c.Heartbeat(ctx, workerID, pendingReports)
			pendingReports = nil
			if err != nil {
				fmt.Fprintf(os.Stderr, "heartbeat failed: %v\n", err)
				continue
			}
			for _, cmd := range cmds {
				switch cmd.Type {
				case wire.CommandRegister:
					workerID, err = c.RegisterWorker(ctx, addr)
					if err != nil {
						fmt.Fprintf(os.Stderr, "re-register failed: %v\n", err)
						continue
					}
					fmt.Printf("re-registered as worker %d\n", workerID)
				case wire.CommandStart:
					fmt.Printf("running task %d of plan %d\n", cmd.TaskID, cmd.PlanID)
					pendingReports = append(pendingReports, jobmaster.HeartbeatReport{
						PlanID:     cmd.PlanID,
						TaskID:     cmd.TaskID,
						WorkerHost: host,
						State:      wire.TaskCompleted,
						Result:     []byte("simulated-" + strconv.FormatInt(cmd.TaskID, 10)),
					})
				case wire.CommandCancel:
					pendingReports = append(pendingReports, jobmaster.HeartbeatReport{
						PlanID:     cmd.PlanID,
						TaskID:     cmd.TaskID,
						WorkerHost: host,
						State:      wire.TaskCanceled,
					})
				}
			}
		}
	}
}

// simulatedWorkerClient is the subset of client.Client the simulated
// worker depends on, so it can be exercised in tests without a live
// transport.
type simulatedWorkerClient interface {
	RegisterWorker(ctx context.Context, addr workerset.Address) (int64, error)
	Heartbeat(ctx context.Context, workerID int64, reports []jobmaster.HeartbeatReport) ([]wire.Command, error)
}
