package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/quizdedup/internal/deduplication"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit a question bank for duplicate pairs",
	Long: `Compare every pair of questions in the bank and list the pairs the
similarity engine considers duplicates, with the rule that matched and its
score.

Examples:
  quizdedup check                              # Audit the configured bank
  quizdedup check --bank questions/ --lang jp  # Audit Japanese questions only
  quizdedup check --threshold 0.9              # Only near-verbatim copies
  quizdedup check --fail-on-duplicates         # Exit 1 if any pair is found (CI)`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		lang, _ := cmd.Flags().GetString("lang")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		noChoices, _ := cmd.Flags().GetBool("no-choices")
		failOnDuplicates, _ := cmd.Flags().GetBool("fail-on-duplicates")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		p := mustLoadProject()
		dedupCfg, err := p.dedupConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if threshold != 0 {
			dedupCfg.SimilarityThreshold = threshold
		}
		if noChoices {
			dedupCfg.CheckChoices = false
		}
		if err := dedupCfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		repo, err := p.openRepository(dedupCfg, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		pool, err := repo.FindAll(ctx, lang)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		engine := deduplication.NewEngine(dedupCfg.SimilarityThreshold, dedupCfg.CheckChoices)
		report, err := deduplication.Audit(ctx, pool, engine)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: audit failed: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\nAudited %s questions (%s comparisons, threshold %s, choices %t) in %s\n\n",
			formatNumber(report.Stats.Questions),
			formatNumber(report.Stats.Comparisons),
			formatThreshold(dedupCfg.SimilarityThreshold),
			dedupCfg.CheckChoices,
			report.Stats.ProcessingTime.Round(time.Millisecond))

		if len(report.Pairs) == 0 {
			fmt.Printf("%s No duplicate pairs found\n\n", green("✓"))
			return
		}

		for _, pair := range report.Pairs {
			fmt.Printf("  %s %s ~ %s  %s %s\n",
				yellow("⚠"), cyan(pair.First.ID), cyan(pair.Second.ID),
				formatThreshold(pair.Score), gray("("+string(pair.Rule)+")"))
			fmt.Printf("      %s\n", gray(truncateString(pair.First.Stem, 70)))
			fmt.Printf("      %s\n", gray(truncateString(pair.Second.Stem, 70)))
		}
		fmt.Printf("\n%s %d duplicate pair(s) involving %d question(s)\n\n",
			yellow("⚠"), len(report.Pairs), len(report.DuplicateIDs()))

		if failOnDuplicates {
			fmt.Fprintf(os.Stderr, "%s %v\n", red("✗"), report.Err())
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().String("lang", "", "Audit only questions in this language")
	checkCmd.Flags().Float64("threshold", 0, "Similarity threshold in (0, 1] (default from config)")
	checkCmd.Flags().Bool("no-choices", false, "Ignore choice texts when comparing questions")
	checkCmd.Flags().Bool("fail-on-duplicates", false, "Exit with status 1 when duplicates are found")
	rootCmd.AddCommand(checkCmd)
}
