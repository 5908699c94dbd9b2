package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventpulse/internal/survey"
)

// surveyCmd prints the Experience Index.
var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Print the Experience Index for the current snapshot",
	Long: `Scores the filtered experience surveys: the five methodology blocks
(awareness, satisfaction, positioning, territories, relationship intent),
the blended Experience Index, and the qualitative comments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		printSurvey(e.SurveyAnalysis())
		return nil
	},
}

func printSurvey(a *survey.Analysis) {
	fmt.Printf("Experience Index: %.2f (over %d surveys)\n", a.OverallIndex, a.TotalSurveys)

	fmt.Printf("\n== Awareness: %.2f ==\n", a.Awareness.Degree)
	fmt.Printf("  Unaided recall: %.2f%% of %d responses\n", a.Awareness.Unaided.Percent, a.Awareness.Unaided.Total)
	fmt.Printf("  Aided recall:   %.2f%% of %d responses\n", a.Awareness.Aided.Percent, a.Awareness.Aided.Total)
	fmt.Printf("  No recall:      %d (%.2f%%)\n", a.Awareness.NoRecall, a.Awareness.NoRecallPercent)

	fmt.Printf("\n== Satisfaction: %.2f ==\n", a.Satisfaction.Degree)
	for _, aspect := range a.Satisfaction.Aspects {
		fmt.Printf("  %-30s mean %.2f  degree %.2f  (%d answers)\n", aspect.Label, aspect.Mean, aspect.Degree, aspect.Total)
	}
	overall := a.Satisfaction.Overall
	fmt.Printf("  %-30s mean %.2f  degree %.2f  (%d answers)\n", overall.Label, overall.Mean, overall.Degree, overall.Total)

	printPooled("Positioning", a.Positioning)
	printPooled("Territories", a.Territories)

	fmt.Printf("\n== Relationship intent: %.2f ==\n", a.Relationship.Degree)
	for _, q := range a.Relationship.Questions {
		fmt.Printf("  %-35s top-2-box %.2f%%  (%d answers)\n", q.Label, q.TopBox.Percent, q.TopBox.Total)
	}

	if len(a.Comments) > 0 {
		fmt.Println("\n== Comments ==")
		for _, c := range a.Comments {
			account := "no account"
			if c.HasAccount {
				account = "has account"
			}
			fmt.Printf("  [%s, %s] %s\n", c.AgeBracket, account, c.Text)
		}
	}
}

func printPooled(title string, block survey.PooledBlock) {
	fmt.Printf("\n== %s: %.2f ==\n", title, block.Degree)
	for _, q := range block.Questions {
		fmt.Printf("  %-35s mean %.2f  degree %.2f  (%d answers)\n", q.Label, q.Mean, q.Degree, q.Total)
	}
}
