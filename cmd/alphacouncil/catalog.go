package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
	"github.com/zen-systems/alphacouncil/pkg/market"
	"github.com/zen-systems/alphacouncil/pkg/prompt"
)

func stagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "Show the configured stage chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tID\tTITLE\tPROVIDER\tMODEL\tTEMP\tPLACEHOLDERS")
			for i, s := range a.stages.Stages {
				var refs []string
				for _, p := range prompt.References(s.Prompt) {
					refs = append(refs, string(p))
				}
				id := s.ID
				if s.Optional {
					id += " (optional)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.1f\t%s\n",
					i+1, id, s.Title, s.Provider, s.Model, s.Temperature, strings.Join(refs, ", "))
			}
			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	var resolveFlag bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List providers, models and aliases",
		Long: `Lists providers and their selectable models, and whether a process
	default key is configured for each.

	Use --resolve to show aliases and what they resolve to.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if resolveFlag {
				fmt.Fprintln(w, "ALIAS\tMODEL\tPROVIDER")
				var names []string
				for alias := range a.catalog.Aliases {
					names = append(names, alias)
				}
				sort.Strings(names)
				for _, alias := range names {
					model := a.catalog.Canonical(alias)
					provider, ok := a.catalog.ProviderFor(model)
					status := string(provider)
					if !ok {
						status = "(not in catalog)"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\n", alias, model, status)
				}
				return w.Flush()
			}

			fmt.Fprintln(w, "PROVIDER\tMODEL\tLABEL\tKEY")
			for _, p := range adapter.Providers() {
				key := "missing"
				if a.cfg.HasProvider(string(p)) {
					key = "configured"
				}
				for _, m := range a.catalog.ForProvider(p) {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Label(), m.Name, m.Label, key)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&resolveFlag, "resolve", false, "show alias resolution")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <symbol>...",
		Short: "Show which market each symbol belongs to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tMARKET")
			for _, arg := range args {
				symbol, err := market.NormalizeSymbol(arg)
				if err != nil {
					fmt.Fprintf(w, "%s\tinvalid: %v\n", arg, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", symbol, market.Classify(symbol).Label())
			}
			return w.Flush()
		},
	}
}
