package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/incidentsync/internal/cache"
	"github.com/dgnsrekt/incidentsync/internal/collect"
	"github.com/dgnsrekt/incidentsync/internal/data"
	"github.com/dgnsrekt/incidentsync/internal/staging"
)

func collectCmd() *cobra.Command {
	var (
		params     []string
		class      string
		from, to   string
		maxPages   int
		maxResults int
		asJSON     bool
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "collect RESOURCE",
		Short: "Collect every page of a resource",
		Long: `Collect all pages of a paginated resource, honoring the page cap,
result cap and inter-page delay from config.

Examples:
  # All open incidents for office 3
  incidentsync collect incidents --param office=3 --param status=open

  # Reference data, cached for the reference window
  incidentsync collect offices --class reference

  # Incidents from March, stopping once pages fall before the range
  incidentsync collect incidents --from 2024-03-01 --to 2024-03-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			filters, err := parseParams(params)
			if err != nil {
				return err
			}
			q := data.NewQuery(args[0], filters)

			runCfg := collectConfig(cfg.Collector)
			if maxPages > 0 {
				runCfg.MaxPages = maxPages
			}
			if maxResults > 0 {
				runCfg.MaxResults = maxResults
			}
			if from != "" || to != "" {
				lower, err := parseBound(from)
				if err != nil {
					return err
				}
				upper, err := parseBound(to)
				if err != nil {
					return err
				}
				runCfg.DateFilter = &collect.DateFilter{
					Field:     cfg.Collector.DateField,
					From:      lower,
					To:        upper,
					EarlyExit: cfg.Collector.DateFilterEarlyExit,
				}
			}

			store, budget, err := newCache(cfg, logger)
			if err != nil {
				return err
			}
			collector := collect.NewCollector(newFetcher(cfg, logger.Named("api")), logger.Named("collect"))

			run, err := store.Collect(ctx, cache.Class(class), collector, q, runCfg)
			if run == nil {
				return err
			}
			if err != nil {
				logger.Error("collection stopped early", zap.String("query", q.Key()), zap.Error(err))
			}

			size, level := budget.Check(run)
			if level != cache.Normal {
				logger.Warn("collection is large",
					zap.String("level", level.String()),
					zap.Int64("bytes", size),
				)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeItems(out, run.Items); err != nil {
					return err
				}
			}
			if outDir != "" {
				path, exportErr := exportItems(outDir, run)
				if exportErr != nil {
					return exportErr
				}
				logger.Info("export written", zap.String("path", path), zap.Int("items", len(run.Items)))
			}
			printSummary(cmd.ErrOrStderr(), run, size, level)
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "resource filter as key=value (repeatable)")
	cmd.Flags().StringVar(&class, "class", string(cache.Volatile), "resource class: volatile or reference")
	cmd.Flags().StringVar(&from, "from", "", "keep items dated on or after this (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&to, "to", "", "keep items dated on or before this")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "override collector.max_pages")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "override collector.max_results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write collected items to stdout as JSON lines")
	cmd.Flags().StringVar(&outDir, "out", "", "write collected items as JSON lines into this directory")

	return cmd
}

func writeItems(w io.Writer, items []data.Record) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("writing items: %w", err)
		}
	}
	return nil
}

// exportItems stages the run's items and commits them to dir under a name
// derived from the query key.
func exportItems(dir string, run *collect.Run) (string, error) {
	mgr := staging.NewManager(dir)
	defer func() { _ = mgr.Cleanup() }()

	name := staging.FileName(run.Query.Key())
	if _, err := mgr.WriteToStaging(name, func(w io.Writer) error {
		return writeItems(w, run.Items)
	}); err != nil {
		return "", err
	}
	return mgr.Commit(name)
}

func printSummary(w io.Writer, run *collect.Run, size int64, level cache.Level) {
	fmt.Fprintf(w, "%s: %d items in %d pages (%s)\n",
		run.Query.Key(), len(run.Items), run.PagesFetched, run.StoppedReason)
	if run.Partial() && run.Remaining() > 0 {
		fmt.Fprintf(w, "showing %d of %d, %d more available\n", len(run.Items), run.TotalCount, run.Remaining())
	}
	fmt.Fprintf(w, "size: %d bytes (%s)\n", size, level)
}
