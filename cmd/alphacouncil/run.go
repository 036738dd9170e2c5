package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/alphacouncil/pkg/pipeline"
	"github.com/zen-systems/alphacouncil/pkg/report"
)

func runCmd() *cobra.Command {
	var noExit bool
	var holdingCost string
	var mock bool
	var outDir string
	var keys []string

	cmd := &cobra.Command{
		Use:   "run <symbol>",
		Short: "Run the research pipeline for one ticker and print the report",
		Long: `Runs every stage in order for the ticker and prints the Markdown report
	to stdout. Progress goes to stderr.

	The exit/hold stage runs unless --no-exit is set; --holding-cost feeds
	its cost placeholder. Use --mock to run all stages on the mock provider
	without any API key. Use --key provider=KEY to supply a key for this run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, mock)
			if err != nil {
				return err
			}

			creds, err := parseKeys(keys)
			if err != nil {
				return err
			}

			c := a.newController()
			exec, err := c.Start(pipeline.RunRequest{
				Symbol:      args[0],
				Credentials: creds,
				IncludeExit: !noExit,
				HoldingCost: holdingCost,
			})
			if err != nil {
				return err
			}

			var final pipeline.WorkflowState
			done := make(chan struct{})
			group, ctx := errgroup.WithContext(cmd.Context())
			group.Go(func() error {
				defer close(done)
				final = exec.Execute(ctx)
				return nil
			})
			group.Go(func() error {
				watchProgress(cmd.ErrOrStderr(), c, done)
				return nil
			})
			_ = group.Wait()

			if doc, err := report.Markdown(final, time.Now()); err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), doc)
			}
			if outDir != "" {
				w, err := report.NewWriter(outDir)
				if err != nil {
					return err
				}
				dir, err := w.Write(final)
				if err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", dir)
			}

			if final.Status == pipeline.StatusError {
				return fmt.Errorf("stage %s failed: %s", final.FailedStage, final.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noExit, "no-exit", false, "skip the optional exit/hold stage")
	cmd.Flags().StringVar(&holdingCost, "holding-cost", "", "average holding cost for the exit/hold stage")
	cmd.Flags().BoolVar(&mock, "mock", false, "run every stage on the mock provider")
	cmd.Flags().StringVar(&outDir, "out", "", "also write report.md, run.json and stage outputs under this directory")
	cmd.Flags().StringArrayVar(&keys, "key", nil, "API key as provider=KEY (repeatable; juhe for market data)")
	return cmd
}

// watchProgress prints a line whenever the run moves to another stage, until
// done is closed.
func watchProgress(w io.Writer, c *pipeline.Controller, done <-chan struct{}) {
	titles := make(map[string]string)
	for _, s := range c.Stages() {
		titles[s.ID] = s.Title
	}

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	lastStatus := pipeline.Status("")
	lastStep := -1
	show := func() {
		state := c.State()
		if state.Status == lastStatus && state.CurrentStepIndex == lastStep {
			return
		}
		lastStatus, lastStep = state.Status, state.CurrentStepIndex
		switch state.Status {
		case pipeline.StatusFetching:
			fmt.Fprintf(w, "fetching market data for %s\n", state.Symbol)
		case pipeline.StatusRunning:
			if state.CurrentStepIndex == 1 && !state.MarketLive {
				fmt.Fprintln(w, "market data unavailable, continuing without it")
			}
			id := state.StageIDs[state.CurrentStepIndex-1]
			fmt.Fprintf(w, "[%d/%d] %s\n", state.CurrentStepIndex, len(state.StageIDs), titles[id])
		case pipeline.StatusCompleted:
			fmt.Fprintln(w, "completed")
		case pipeline.StatusError:
			fmt.Fprintf(w, "failed at %s: %s\n", state.FailedStage, state.Error)
		}
	}

	for {
		select {
		case <-done:
			show()
			return
		case <-ticker.C:
			show()
		}
	}
}

func parseKeys(pairs []string) (pipeline.Credentials, error) {
	creds := pipeline.Credentials{}
	for _, pair := range pairs {
		name, key, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --key %q, want provider=KEY", pair)
		}
		creds[strings.ToLower(strings.TrimSpace(name))] = key
	}
	return creds, nil
}
