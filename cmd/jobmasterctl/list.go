package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live and recently-purged plan ids",
		Run: func(cmd *cobra.Command, args []string) {
			c := clientFor(cmd)
			ids, err := c.List(context.Background())
			if err != nil {
				fatalf("%v", err)
			}
			if len(ids) == 0 {
				fmt.Println("no plans")
				return
			}
			for _, id := range ids {
				fmt.Println(id)
			}
		},
	}
}
