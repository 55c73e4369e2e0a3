package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/quizdedup/internal/exam"
	"github.com/steveyegge/quizdedup/internal/types"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draw a duplicate-free exam or practice set",
	Long: `Draw questions from the bank, rejecting near-duplicates of questions
already chosen.

If the bank cannot supply --count distinct questions the similarity threshold
is lowered in steps (see relaxation_step and relaxation_floor in config.yaml)
and each step is reported. A selection that is still short prints what was
found and exits with status 1.

Examples:
  quizdedup sample                          # Full exam (exam_count questions)
  quizdedup sample --mode practice          # Practice set
  quizdedup sample --domain security -n 5   # Five security questions
  quizdedup sample --threshold 0.9 --no-choices
  quizdedup sample --seed 42 --json         # Reproducible, machine-readable`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		count, _ := cmd.Flags().GetInt("count")
		domainFlag, _ := cmd.Flags().GetString("domain")
		lang, _ := cmd.Flags().GetString("lang")
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		noChoices, _ := cmd.Flags().GetBool("no-choices")
		modeFlag, _ := cmd.Flags().GetString("mode")
		noDedup, _ := cmd.Flags().GetBool("no-dedup")
		noHistory, _ := cmd.Flags().GetBool("no-history")
		seed, _ := cmd.Flags().GetInt64("seed")
		asJSON, _ := cmd.Flags().GetBool("json")

		in, err := buildInput(count, domainFlag, lang, threshold, noChoices, modeFlag, noDedup)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		p := mustLoadProject()

		dedupCfg, err := p.dedupConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		repo, err := p.openRepository(dedupCfg, seed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		svcCfg := exam.Config{
			Repository:    repo,
			ExamCount:     p.config.Exam.ExamCount,
			PracticeCount: p.config.Exam.PracticeCount,
		}
		if !noHistory {
			history, err := p.openHistory(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: history disabled: %v\n", err)
			} else if history != nil {
				defer func() { _ = history.Close() }()
				retention, err := p.config.History.Retention.ApplyEnv()
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					os.Exit(1)
				}
				svcCfg.History = history
				if retention.AutoPrune {
					svcCfg.KeepRuns = retention.KeepRuns
				}
			}
		}

		svc, err := exam.NewService(svcCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		sel, err := svc.Start(ctx, in)
		var insufficient *types.InsufficientQuestionsError
		if err != nil && !errors.As(err, &insufficient) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if asJSON {
			data, jerr := json.MarshalIndent(sel, "", "  ")
			if jerr != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to encode selection: %v\n", jerr)
				os.Exit(1)
			}
			fmt.Println(string(data))
		} else {
			printSelection(sel)
		}

		if insufficient != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", insufficient)
			os.Exit(1)
		}
	},
}

func init() {
	sampleCmd.Flags().IntP("count", "n", 0, "Number of questions (default: exam_count or practice_count from config)")
	sampleCmd.Flags().String("domain", "", "Restrict to one domain: cloud_concepts, security, technology, billing")
	sampleCmd.Flags().String("lang", "", "Restrict to one language (e.g. en, jp)")
	sampleCmd.Flags().Float64("threshold", 0, "Initial similarity threshold in (0, 1] (default from config)")
	sampleCmd.Flags().Bool("no-choices", false, "Ignore choice texts when comparing questions")
	sampleCmd.Flags().String("mode", string(types.ModeExam), "Selection mode: exam or practice")
	sampleCmd.Flags().Bool("no-dedup", false, "Draw randomly without duplicate checks")
	sampleCmd.Flags().Bool("no-history", false, "Do not record this run")
	sampleCmd.Flags().Int64("seed", 0, "Random seed for a reproducible draw (0 = random)")
	sampleCmd.Flags().Bool("json", false, "Print the selection as JSON")
	rootCmd.AddCommand(sampleCmd)
}

// buildInput converts sample flags into an exam.Input
func buildInput(count int, domain, lang string, threshold float64, noChoices bool, mode string, noDedup bool) (exam.Input, error) {
	in := exam.Input{
		Mode:                types.Mode(mode),
		Count:               count,
		Lang:                lang,
		SimilarityThreshold: threshold,
	}
	if !in.Mode.IsValid() {
		return in, fmt.Errorf("invalid mode: %q (valid: exam, practice)", mode)
	}
	if count < 0 {
		return in, fmt.Errorf("count cannot be negative (got %d)", count)
	}
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return in, fmt.Errorf("threshold must be in (0, 1] (got %.2f)", threshold)
	}
	if domain != "" {
		d, err := types.ParseDomain(domain)
		if err != nil {
			return in, err
		}
		in.Domain = types.DomainPtr(d)
	}
	if noChoices {
		in.CheckChoices = types.BoolPtr(false)
	}
	if noDedup {
		in.PreventDuplication = types.BoolPtr(false)
	}
	return in, nil
}

func printSelection(sel *exam.Selection) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	icon := green("✓")
	if len(sel.Questions) < sel.Requested {
		icon = red("✗")
	}
	fmt.Printf("\n%s Selected %d of %d questions (%s)\n", icon, len(sel.Questions), sel.Requested, sel.Mode)
	if sel.Deduplicated {
		fmt.Printf("  Threshold: %s", formatThreshold(sel.InitialThreshold))
		if sel.FinalThreshold != sel.InitialThreshold {
			fmt.Printf(" → %s", yellow(formatThreshold(sel.FinalThreshold)))
		}
		fmt.Printf("  Choices: %t\n", sel.CheckChoices)
	} else {
		fmt.Printf("  %s\n", gray("Duplicate checks disabled"))
	}
	fmt.Println()

	for i, q := range sel.Questions {
		fmt.Printf("  %3d. %s %s\n", i+1, cyan(q.ID), gray("["+string(q.Domain)+"/"+q.Lang+"]"))
		fmt.Printf("       %s\n", truncateString(q.Stem, 72))
	}

	if len(sel.Relaxations) > 0 {
		fmt.Println()
		for _, r := range sel.Relaxations {
			fmt.Printf("%s Threshold relaxed %s → %s after pass %d (%d accepted)\n",
				yellow("⚠"), formatThreshold(r.From), formatThreshold(r.To), r.Attempt, r.Accepted)
		}
	}

	fmt.Printf("\n%s\n\n", gray("Run: "+sel.RunID))
}
