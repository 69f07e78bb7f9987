// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package routerctl is a small Cobra-based CLI harness that loads a
// fixture catalog/query-info/transaction policy from a YAML file, runs
// router.Route against it, and prints the resulting plans — it exists to
// exercise the router library end-to-end, not as a production entry
// point. Grounded on cmd/commands.go's Command(rootCommand, brand)
// subcommand-composition pattern.
package routerctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Slayzur02/Polypheny-DB/internal/rlog"
	"github.com/Slayzur02/Polypheny-DB/internal/rmetrics"
	"github.com/Slayzur02/Polypheny-DB/locks"
	"github.com/Slayzur02/Polypheny-DB/placement"
	"github.com/Slayzur02/Polypheny-DB/router"
	"github.com/Slayzur02/Polypheny-DB/scancache"
)

// Command attaches routerctl's subcommands onto rootCommand, creating a
// fresh root if nil, matching the teacher's Command(rootCommand, brand)
// shape.
func Command(rootCommand *cobra.Command, brand string) *cobra.Command {
	if rootCommand == nil {
		rootCommand = &cobra.Command{
			Use:   brand,
			Short: "Polystore DQL router CLI harness",
		}
	}
	rootCommand.AddCommand(routeCommand())
	return rootCommand
}

func routeCommand() *cobra.Command {
	var cacheCapacity int

	cmd := &cobra.Command{
		Use:   "route <fixture.yaml>",
		Short: "Route a fixture's logical algebra tree and print the resulting plans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fixture, err := LoadFixture(args[0])
			if err != nil {
				return err
			}

			snap, err := fixture.Snapshot()
			if err != nil {
				return err
			}
			arena, root, err := fixture.LogicalTree()
			if err != nil {
				return err
			}

			deps := router.Deps{
				Snapshot:           snap,
				Cache:              scancache.New(cacheCapacity),
				Locks:              locks.NewManager(),
				Strategies:         placement.DefaultRegistry(),
				Metrics:            rmetrics.NewProvider(),
				Log:                rlog.NewStandardLogger(),
				HorizontalStrategy: fixture.HorizontalStrategy,
			}
			r := router.New(deps)

			builders, err := r.Route(cmd.Context(), arena, root, fixture.TransactionContext(), fixture.QueryInformation())
			if err != nil {
				return fmt.Errorf("routing failed: %w", err)
			}

			if len(builders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no plan produced (declined or cancelled)")
				return nil
			}
			for i, b := range builders {
				plan := b.Freeze()
				root, hasRoot := plan.Root()
				fmt.Fprintf(cmd.OutOrStdout(), "plan %d: id=%s root=%v hasRoot=%t nodes=%d\n", i, plan.ID(), root, hasRoot, plan.Arena().Len())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&cacheCapacity, "cache-capacity", 256, "joined-scan cache capacity")
	return cmd
}
