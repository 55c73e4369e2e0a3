package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/quizdedup/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent sampling runs and aggregate stats",
	Long: `List recent sampling runs with their thresholds and relaxations, or
show one run in full when a run id is given.

Examples:
  quizdedup history                   # Last 20 runs and overall stats
  quizdedup history --short           # Only runs that came back short
  quizdedup history --domain billing  # Only billing runs
  quizdedup history <run-id>          # One run with its question ids
  quizdedup history --prune 100       # Keep only the newest 100 runs`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		shortOnly, _ := cmd.Flags().GetBool("short")
		modeFlag, _ := cmd.Flags().GetString("mode")
		domainFlag, _ := cmd.Flags().GetString("domain")
		prune, _ := cmd.Flags().GetInt("prune")

		ctx := context.Background()
		p := mustLoadProject()

		path, err := p.historyPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		store, err := p.openHistory(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open history: %v\n", err)
			os.Exit(1)
		}
		if store == nil {
			fmt.Fprintf(os.Stderr, "Error: history is disabled in config (use --db to read a database anyway)\n")
			os.Exit(1)
		}
		defer func() { _ = store.Close() }()

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		if prune > 0 {
			deleted, err := store.CleanupRuns(ctx, prune)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: prune failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Deleted %s run(s), kept newest %s\n",
				green("✓"), formatNumber(deleted), formatNumber(prune))
			return
		}

		if len(args) == 1 {
			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			printRunDetail(run)
			return
		}

		filter := types.RunFilter{Limit: limit, ShortOnly: shortOnly, Mode: types.Mode(modeFlag)}
		if filter.Mode != "" && !filter.Mode.IsValid() {
			fmt.Fprintf(os.Stderr, "Error: invalid mode: %q (valid: exam, practice)\n", modeFlag)
			os.Exit(1)
		}
		if domainFlag != "" {
			d, err := types.ParseDomain(domainFlag)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			filter.Domain = d
		}

		runs, err := store.ListRuns(ctx, filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list runs: %v\n", err)
			os.Exit(1)
		}
		stats, err := store.GetRunStats(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get run stats: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s\n", cyan("=== Sampling History ==="))
		fmt.Printf("%s\n\n", gray(path))

		if len(runs) == 0 {
			fmt.Printf("  %s\n\n", gray("No runs recorded"))
		}
		for _, run := range runs {
			icon := green("✓")
			if run.Short() {
				icon = red("✗")
			} else if len(run.Relaxations) > 0 {
				icon = yellow("⚠")
			}
			domain := string(run.Domain)
			if domain == "" {
				domain = "all"
			}
			fmt.Printf("  %s %s  %-8s %-15s %3d/%-3d  threshold %s",
				icon, run.CreatedAt.Format("2006-01-02 15:04"), run.Mode, domain,
				run.Returned, run.Requested, formatThreshold(run.FinalThreshold))
			if len(run.Relaxations) > 0 {
				fmt.Printf(" %s", gray(fmt.Sprintf("(%d relaxations)", len(run.Relaxations))))
			}
			fmt.Printf("  %s\n", gray(run.ID[:min(8, len(run.ID))]))
		}

		fmt.Printf("\n%s\n", yellow("Totals:"))
		fmt.Printf("  Runs:             %s\n", formatNumber(stats.TotalRuns))
		fmt.Printf("  Short runs:       %s\n", formatNumber(stats.ShortRuns))
		fmt.Printf("  Relaxed runs:     %s\n", formatNumber(stats.RelaxedRuns))
		fmt.Printf("  Questions served: %s\n", formatNumber(stats.QuestionsServed))
		if stats.TotalRuns > 0 {
			fmt.Printf("  Avg threshold:    %s\n", formatThreshold(stats.AverageFinalThreshold))
			domains := make([]string, 0, len(stats.RunsByDomain))
			for d := range stats.RunsByDomain {
				domains = append(domains, d)
			}
			sort.Strings(domains)
			parts := make([]string, 0, len(domains))
			for _, d := range domains {
				parts = append(parts, fmt.Sprintf("%s=%d", d, stats.RunsByDomain[d]))
			}
			fmt.Printf("  By domain:        %s\n", strings.Join(parts, ", "))
		}
		fmt.Println()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum runs to list (0 = all)")
	historyCmd.Flags().Bool("short", false, "Only list runs that returned fewer questions than requested")
	historyCmd.Flags().String("mode", "", "Only list runs in this mode (exam or practice)")
	historyCmd.Flags().String("domain", "", "Only list runs for this domain")
	historyCmd.Flags().Int("prune", 0, "Delete all but the newest N runs")
	rootCmd.AddCommand(historyCmd)
}

func printRunDetail(run *types.SamplingRun) {
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	domain := string(run.Domain)
	if domain == "" {
		domain = "all"
	}
	lang := run.Lang
	if lang == "" {
		lang = "all"
	}

	fmt.Printf("\n%s %s\n", yellow("Run"), run.ID)
	fmt.Printf("  Created:      %s (%s ago)\n",
		run.CreatedAt.Format("2006-01-02 15:04:05"), formatDuration(time.Since(run.CreatedAt)))
	fmt.Printf("  Mode:         %s\n", run.Mode)
	fmt.Printf("  Domain/lang:  %s/%s\n", domain, lang)
	fmt.Printf("  Returned:     %d of %d\n", run.Returned, run.Requested)
	fmt.Printf("  Deduplicated: %t (choices %t)\n", run.Deduplicated, run.CheckChoices)
	if run.Deduplicated {
		fmt.Printf("  Threshold:    %s → %s\n",
			formatThreshold(run.InitialThreshold), formatThreshold(run.FinalThreshold))
	}
	for _, r := range run.Relaxations {
		fmt.Printf("  %s pass %d: %s → %s with %d accepted\n",
			yellow("⚠"), r.Attempt, formatThreshold(r.From), formatThreshold(r.To), r.Accepted)
	}
	fmt.Printf("  Questions:    %s\n\n", gray(strings.Join(run.QuestionIDs, " ")))
}
