package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/guihaojin/alluxio/internal/wire"
)

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show a point-in-time summary of live plans by state",
		Run: func(cmd *cobra.Command, args []string) {
			c := clientFor(cmd)
			groups, err := c.GetJobServiceSummary(context.Background())
			if err != nil {
				fatalf("%v", err)
			}
			printSummary(groups)
		},
	}
}

func printSummary(groups map[wire.PlanState][]wire.PlanStatus) {
	states := []wire.PlanState{wire.PlanCreated, wire.PlanRunning, wire.PlanCompleted, wire.PlanCanceled, wire.PlanFailed}
	for _, state := range states {
		plans := groups[state]
		if len(plans) == 0 {
			continue
		}
		sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
		fmt.Printf("%s: %d\n", colorizePlanState(state), len(plans))
		for _, p := range plans {
			fmt.Printf("  %d %s\n", p.ID, p.Name)
		}
	}
}
