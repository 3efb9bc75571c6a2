// Package main provides the jobmasterctl CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "jobmasterctl",
		Short: "Control plane for a distributed job service",
		Long: `jobmasterctl: submit, monitor, and cancel distributed job plans.

Usage modes:
  jobmasterctl serve             Run the job master control plane
  jobmasterctl run <plan>        Submit a plan
  jobmasterctl status <id>       Show a plan's status
  jobmasterctl dashboard         Live-refreshing summary view

Use 'jobmasterctl help' for the full command list.`,
	}

	rootCmd.PersistentFlags().String("addr", "http://localhost:8077", "Job master base URL")

	rootCmd.AddGroup(
		&cobra.Group{ID: "control", Title: "Control plane:"},
		&cobra.Group{ID: "client", Title: "Client:"},
	)

	serve := serveCmd()
	serve.GroupID = "control"
	rootCmd.AddCommand(serve)

	simulate := simulateWorkerCmd()
	simulate.GroupID = "control"
	rootCmd.AddCommand(simulate)

	run := runCmd()
	run.GroupID = "client"
	rootCmd.AddCommand(run)

	cancel := cancelCmd()
	cancel.GroupID = "client"
	rootCmd.AddCommand(cancel)

	list := listCmd()
	list.GroupID = "client"
	rootCmd.AddCommand(list)

	status := statusCmd()
	status.GroupID = "client"
	rootCmd.AddCommand(status)

	summary := summaryCmd()
	summary.GroupID = "client"
	rootCmd.AddCommand(summary)

	dashboard := dashboardCmd()
	dashboard.GroupID = "client"
	rootCmd.AddCommand(dashboard)

	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show jobmasterctl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("jobmasterctl version %s\n", version)
		},
	}
}
