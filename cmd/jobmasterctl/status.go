package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show a plan's status",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fatalf("invalid plan id %q: %v", args[0], err)
			}
			c := clientFor(cmd)
			status, err := c.GetStatus(context.Background(), id)
			if err != nil {
				fatalf("%v", err)
			}

			fmt.Printf("PLAN %d (%s)\n", status.ID, status.Name)
			fmt.Printf("  State: %s\n", colorizePlanState(status.State))
			if status.Error != "" {
				fmt.Printf("  Error: %s\n", status.Error)
			}
			fmt.Printf("  Tasks: %d\n", len(status.Children))
			for _, task := range status.Children {
				fmt.Printf("    [%d] worker=%d state=%s\n", task.TaskID, task.WorkerID, colorizeTaskState(task.State))
			}
		},
	}
}
