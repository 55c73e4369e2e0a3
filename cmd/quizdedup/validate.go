package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/steveyegge/quizdedup/internal/bank"
	"github.com/steveyegge/quizdedup/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the question bank and report its contents",
	Long: `Load every bank file, checking each document against the bank schema
and each record against the question rules, then report how many questions
were found per domain and language.

The first invalid record is reported with its file and index.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		p := mustLoadProject()

		dedupCfg, err := p.dedupConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		repo, err := p.openRepository(dedupCfg, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		red := color.New(color.FgRed).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		summary, err := repo.Summary(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s Bank is invalid\n", red("✗"))
			var recErr *bank.RecordError
			if errors.As(err, &recErr) {
				fmt.Fprintf(os.Stderr, "  File: %s\n", recErr.Path)
				fmt.Fprintf(os.Stderr, "  Record: %d\n", recErr.Index)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Loaded %s questions from %d file(s)\n\n",
			green("✓"), formatNumber(summary.Total), summary.Files)

		fmt.Printf("%s\n", yellow("By domain:"))
		for _, d := range types.AllDomains() {
			n := summary.ByDomain[d]
			line := fmt.Sprintf("  %-16s %s", d, formatNumber(n))
			if n == 0 {
				line = gray(line)
			}
			fmt.Println(line)
		}
		fmt.Println()

		fmt.Printf("%s\n", yellow("By language:"))
		langs := make([]string, 0, len(summary.ByLang))
		for lang := range summary.ByLang {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			fmt.Printf("  %-16s %s\n", lang, formatNumber(summary.ByLang[lang]))
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
