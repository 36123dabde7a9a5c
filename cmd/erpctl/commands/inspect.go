package commands

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"erpcore/cmd/erpctl/output"
	"erpcore/internal/core"
	"erpcore/internal/instance"
	"erpcore/internal/snapshot"
	"erpcore/pkg/domain"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Summarize an instance: collections, stock and self-orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.defaultRepository(cmd.Context())
			if err != nil {
				return err
			}
			store, report, err := repo.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			a.printReport(report)
			a.printStore(store)
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check PATH",
		Short: "Load a snapshot file and print reconciliation warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, report, err := instance.OpenFile(args[0], a.logger, a.storeOptions()...)
			if err != nil {
				return err
			}
			a.printReport(report)
			if report.Clean() {
				a.out.Success("%s loads without warnings", args[0])
			}
			if a.jsonOutput {
				if err := encodeJSON(a, store.Counts()); err != nil {
					return err
				}
			}
			if strict && !report.Clean() {
				return fmt.Errorf("%s: %d reconciliation warnings", args[0], len(report.Warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the snapshot needed any repair")
	return cmd
}

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the main snapshot document",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return encodeJSON(a, snapshot.Schema())
		},
	}
}

func encodeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printReport(report snapshot.Report) {
	for _, w := range report.Warnings {
		a.out.Warning("%s", w.String())
	}
}

func (a *app) printStore(store *core.Store) {
	a.out.Section(store.Name())
	if capital, ok := store.OwnCapital(); ok {
		a.out.Info("own capital %s", capital.StringFixed(2))
	}
	if company, ok := store.Company(); ok && company.Name != "" {
		a.out.Info("company %s", company.Name)
	}

	counts := store.Counts()
	types := make([]domain.EntityType, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		a.out.Muted("%-14s %d", t, counts[t])
	}

	if levels := store.StockReport(); len(levels) > 0 {
		a.out.Section("Stock")
		for _, l := range levels {
			line := fmt.Sprintf("%s: %d in stock, %d inbound, target %d", l.TypeName, l.InStock, l.Inbound, l.Target)
			if l.Shortfall > 0 {
				a.out.Warning("%s, short by %d", line, l.Shortfall)
				continue
			}
			a.out.Info("%s", line)
		}
	}

	if selfOrders := store.ListSelfOrders(); len(selfOrders) > 0 {
		a.out.Section("Self-orders")
		for _, so := range selfOrders {
			fmt.Fprintf(a.out.Writer(), "%s #%d %s, %d lines pending\n",
				output.StatusIcon(string(so.Status)), so.ID, so.Status, len(so.Pending))
		}
	}
}
