package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"eventpulse/internal/engine"
)

// reportCmd prints the dashboard metrics.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the engagement metrics for the current snapshot",
	Long: `Computes the dashboard views over the filtered snapshot: headline
summary, engagement funnel, check-ins per activation and per day, hourly
peaks, redemptions per gift, and the audience distributions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine()
		if err != nil {
			return err
		}
		printReport(e)
		return nil
	},
}

func printReport(e *engine.Engine) {
	summary := e.Summary()
	fmt.Println("== Summary ==")
	fmt.Printf("  Users with check-in:    %d\n", summary.DistinctUsersWithCheckin)
	fmt.Printf("  Check-ins:              %d\n", summary.TotalCheckins)
	fmt.Printf("  Redemptions:            %d\n", summary.TotalRedemptions)
	fmt.Printf("  Published activations:  %d\n", summary.TotalPublishedActivations)
	fmt.Printf("  Average rating:         %.2f\n", summary.OverallAverageRating)

	stats := e.FilterStats()
	if stats.HasActiveFilters {
		fmt.Printf("\nFilters keep %d of %d check-ins (%d%%)\n", stats.Filtered, stats.Total, stats.Percent)
	}

	fmt.Println("\n== Funnel ==")
	for _, stage := range e.Funnel() {
		fmt.Printf("  %-18s %6d  %3d%%\n", stage.Stage, stage.Count, stage.Percent)
	}

	fmt.Println("\n== Check-ins per activation ==")
	for _, a := range e.CheckinsByActivation() {
		fmt.Printf("  %-30s %5d check-ins  avg rating %.2f\n", a.Name, a.Checkins, a.AvgRating)
	}

	fmt.Println("\n== Check-ins per day ==")
	for _, d := range e.CheckinsByDay() {
		fmt.Printf("  %s  %5d check-ins  avg rating %.2f\n", d.Day, d.Checkins, d.AvgRating)
	}

	fmt.Println("\n== Peak hours ==")
	for _, bucket := range e.PeakHours("").Buckets {
		if bucket.Checkins > 0 {
			fmt.Printf("  %02d:00  %d\n", bucket.Hour, bucket.Checkins)
		}
	}

	fmt.Println("\n== Redemptions per gift ==")
	for _, g := range e.RedemptionsByGift() {
		fmt.Printf("  %-30s %5d redemptions  %d points\n", g.Title, g.Redemptions, g.Points)
	}

	fmt.Println("\n== Age distribution (checked-in users) ==")
	for _, share := range e.AgeDistribution() {
		fmt.Printf("  %-15s %5d  %6.2f%%\n", share.Label, share.Count, share.Percent)
	}

	split := e.AccountDistribution()
	fmt.Println("\n== Account ownership (checked-in users) ==")
	fmt.Printf("  With account:    %5d  %6.2f%%\n", split.WithAccount, split.WithAccountPercent)
	fmt.Printf("  Without account: %5d  %6.2f%%\n", split.WithoutAccount, split.WithoutAccountPercent)
}
