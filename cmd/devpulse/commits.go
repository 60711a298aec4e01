package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/devpulse/internal/models"
	"github.com/rohankatakam/devpulse/internal/output"
	"github.com/rohankatakam/devpulse/internal/period"
)

var (
	commitsPeriod  periodFlags
	commitsAuthor  string
	commitsFormat  string
	commitsOutFile string
)

var commitsCmd = &cobra.Command{
	Use:   "commits",
	Short: "List scored commits with their flags and classification",
	RunE:  runCommits,
}

func init() {
	commitsPeriod.register(commitsCmd, period.Last7Days)
	commitsCmd.Flags().StringVar(&commitsAuthor, "author", "", "only commits by this canonical author")
	commitsCmd.Flags().StringVarP(&commitsFormat, "format", "f", "table", "output format: table, csv or json")
	commitsCmd.Flags().StringVarP(&commitsOutFile, "output", "o", "", "write to file instead of stdout")
}

func runCommits(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := output.ParseFormat(commitsFormat)
	if err != nil {
		return err
	}
	engine, err := newEngine()
	if err != nil {
		return err
	}
	spec, err := commitsPeriod.spec(engine.Location())
	if err != nil {
		return err
	}

	ds, err := loadDataset(ctx, engine, commitsPeriod.repo)
	if err != nil {
		return err
	}
	selected, _, err := period.Select(ds.Commits, spec, engine.Location())
	if err != nil {
		return err
	}
	if commitsAuthor != "" {
		filtered := make([]models.CommitRecord, 0, len(selected))
		for _, c := range selected {
			if c.Author == commitsAuthor {
				filtered = append(filtered, c)
			}
		}
		selected = filtered
	}

	return withOutput(cmd.OutOrStdout(), commitsOutFile, func(w io.Writer) error {
		return output.NewFormatter(format).Commits(selected, w)
	})
}
