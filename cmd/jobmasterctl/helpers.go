package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guihaojin/alluxio/internal/client"
	"github.com/guihaojin/alluxio/internal/wire"
)

func clientFor(cmd *cobra.Command) *client.Client {
	addr, _ := cmd.Flags().GetString("addr")
	return client.New(client.DefaultConfig(addr))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// colorizePlanState renders a plan state with the color its outcome
// deserves: green for completed, red for failed, yellow for canceled,
// cyan for running, plain for created.
func colorizePlanState(state wire.PlanState) string {
	switch state {
	case wire.PlanCompleted:
		return color.GreenString(string(state))
	case wire.PlanFailed:
		return color.RedString(string(state))
	case wire.PlanCanceled:
		return color.YellowString(string(state))
	case wire.PlanRunning:
		return color.CyanString(string(state))
	default:
		return string(state)
	}
}

func colorizeTaskState(state wire.TaskState) string {
	switch state {
	case wire.TaskCompleted:
		return color.GreenString(string(state))
	case wire.TaskFailed:
		return color.RedString(string(state))
	case wire.TaskCanceled:
		return color.YellowString(string(state))
	case wire.TaskRunning:
		return color.CyanString(string(state))
	default:
		return string(state)
	}
}
