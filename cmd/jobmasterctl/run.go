package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var configStr string

	cmd := &cobra.Command{
		Use:   "run <plan-name>",
		Short: "Submit a plan",
		Long: `Submit a plan by name. Built-in plans are "echo" (fans one task per
registered worker) and "noop" (completes with no tasks). Other names are
resolved against registered plan definitions, exact match first, then
glob patterns.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := clientFor(cmd)
			id, err := c.Run(context.Background(), args[0], []byte(configStr))
			if err != nil {
				fatalf("%v", err)
			}
			fmt.Printf("submitted plan %d\n", id)
		},
	}

	cmd.Flags().StringVar(&configStr, "config", "", "Opaque plan configuration payload")
	return cmd
}
