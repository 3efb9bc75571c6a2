package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Request cancellation of a plan",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fatalf("invalid plan id %q: %v", args[0], err)
			}
			c := clientFor(cmd)
			if err := c.Cancel(context.Background(), id); err != nil {
				fatalf("%v", err)
			}
			fmt.Printf("cancel requested for plan %d\n", id)
		},
	}
}
