// Package metrics derives the dashboard aggregates from a (filtered) dataset
// snapshot. Every derivation is a pure read: it never mutates the snapshot,
// never fails, and returns its documented zero value on an empty or partial
// dataset.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"eventpulse/internal/agegroup"
	"eventpulse/internal/dataset"
)

// Summary is the headline card row of the dashboard.
type Summary struct {
	DistinctUsersWithCheckin  int
	TotalCheckins             int
	TotalRedemptions          int
	TotalPublishedActivations int
	OverallAverageRating      float64
}

// Summarize computes the headline metrics. The overall average rating only
// counts published ratings with a non-null value.
func Summarize(snap *dataset.Snapshot) Summary {
	users := make(map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableCheckinUserLinks) {
		if id, ok := link.Int64(dataset.FieldUserID); ok {
			users[id] = struct{}{}
		}
	}

	published := 0
	for _, activation := range snap.Rows(dataset.TableActivations) {
		if activation.HasValue(dataset.FieldPublishedAt) {
			published++
		}
	}

	var sum float64
	var count int
	for _, rating := range snap.Rows(dataset.TableRatings) {
		if !rating.HasValue(dataset.FieldPublishedAt) {
			continue
		}
		if v, ok := rating.Float64(dataset.FieldRating); ok {
			sum += v
			count++
		}
	}

	return Summary{
		DistinctUsersWithCheckin:  len(users),
		TotalCheckins:             len(snap.Rows(dataset.TableCheckins)),
		TotalRedemptions:          len(snap.Rows(dataset.TableRedemptions)),
		TotalPublishedActivations: published,
		OverallAverageRating:      meanOrZero(sum, count),
	}
}

// ActivationCheckins is one bar of the checkins-per-activation chart.
type ActivationCheckins struct {
	ID        int64
	Name      string
	Checkins  int
	AvgRating float64
	Type      string
	Location  string
	Points    int64
}

// CheckinsByActivation groups check-ins by activation, counting each check-in
// once per activation regardless of duplicate link rows. Draft activations are
// skipped entirely; their check-ins and ratings count toward nothing. Results
// sort by check-in count descending, id ascending on ties.
func CheckinsByActivation(snap *dataset.Snapshot) []ActivationCheckins {
	activations := make(map[int64]dataset.Row)
	for _, row := range snap.Rows(dataset.TableActivations) {
		if !row.HasValue(dataset.FieldPublishedAt) {
			continue
		}
		if id, ok := row.ID(); ok {
			activations[id] = row
		}
	}

	checkins := make(map[int64]map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableCheckinActivationLinks) {
		activationID, ok := link.Int64(dataset.FieldActivationID)
		if !ok {
			continue
		}
		if _, published := activations[activationID]; !published {
			continue
		}
		checkinID, ok := link.Int64(dataset.FieldCheckinID)
		if !ok {
			continue
		}
		if checkins[activationID] == nil {
			checkins[activationID] = make(map[int64]struct{})
		}
		checkins[activationID][checkinID] = struct{}{}
	}

	ratings := ratingsByID(snap)
	ratingSum := make(map[int64]float64)
	ratingCount := make(map[int64]int)
	for _, link := range snap.Rows(dataset.TableRatingActivationLinks) {
		activationID, ok := link.Int64(dataset.FieldActivationID)
		if !ok {
			continue
		}
		if _, published := activations[activationID]; !published {
			continue
		}
		ratingID, ok := link.Int64(dataset.FieldRatingID)
		if !ok {
			continue
		}
		rating, ok := ratings[ratingID]
		if !ok {
			continue
		}
		if v, ok := rating.Float64(dataset.FieldRating); ok {
			ratingSum[activationID] += v
			ratingCount[activationID]++
		}
	}

	out := make([]ActivationCheckins, 0, len(checkins))
	for activationID, ids := range checkins {
		entry := ActivationCheckins{
			ID:        activationID,
			Name:      fmt.Sprintf("Activation %d", activationID),
			Checkins:  len(ids),
			AvgRating: meanOrZero(ratingSum[activationID], ratingCount[activationID]),
		}
		if activation, ok := activations[activationID]; ok {
			if name, ok := activation.String(dataset.FieldName); ok && name != "" {
				entry.Name = name
			}
			entry.Type, _ = activation.String(dataset.FieldType)
			entry.Location, _ = activation.String(dataset.FieldLocation)
			entry.Points, _ = activation.Int64(dataset.FieldPoints)
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Checkins != out[j].Checkins {
			return out[i].Checkins > out[j].Checkins
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DayCheckins is one point of the checkins-per-day chart. AvgRating is the
// mean of ratings submitted on that same day by users who checked in that day.
type DayCheckins struct {
	Day       string // YYYY-MM-DD
	Checkins  int
	AvgRating float64
}

// CheckinsByDay buckets check-ins by UTC calendar day, ascending. Check-ins
// without a parseable created_at are skipped.
func CheckinsByDay(snap *dataset.Snapshot) []DayCheckins {
	userByCheckin := make(map[int64]int64)
	for _, link := range snap.Rows(dataset.TableCheckinUserLinks) {
		checkinID, ok := link.Int64(dataset.FieldCheckinID)
		if !ok {
			continue
		}
		if userID, ok := link.Int64(dataset.FieldUserID); ok {
			userByCheckin[checkinID] = userID
		}
	}

	counts := make(map[string]int)
	usersByDay := make(map[string]map[int64]struct{})
	for _, checkin := range snap.Rows(dataset.TableCheckins) {
		t, ok := checkin.Time(dataset.FieldCreatedAt)
		if !ok {
			continue
		}
		day := dataset.DayKey(t)
		counts[day]++
		if usersByDay[day] == nil {
			usersByDay[day] = make(map[int64]struct{})
		}
		if id, ok := checkin.ID(); ok {
			if userID, linked := userByCheckin[id]; linked {
				usersByDay[day][userID] = struct{}{}
			}
		}
	}

	ratings := ratingsByID(snap)
	ratingSum := make(map[string]float64)
	ratingCount := make(map[string]int)
	for _, link := range snap.Rows(dataset.TableRatingUserLinks) {
		userID, ok := link.Int64(dataset.FieldUserID)
		if !ok {
			continue
		}
		ratingID, ok := link.Int64(dataset.FieldRatingID)
		if !ok {
			continue
		}
		rating, ok := ratings[ratingID]
		if !ok {
			continue
		}
		v, ok := rating.Float64(dataset.FieldRating)
		if !ok {
			continue
		}
		t, ok := rating.Time(dataset.FieldCreatedAt)
		if !ok {
			continue
		}
		day := dataset.DayKey(t)
		if _, checkedIn := usersByDay[day][userID]; !checkedIn {
			continue
		}
		ratingSum[day] += v
		ratingCount[day]++
	}

	out := make([]DayCheckins, 0, len(counts))
	for day, count := range counts {
		out = append(out, DayCheckins{
			Day:       day,
			Checkins:  count,
			AvgRating: meanOrZero(ratingSum[day], ratingCount[day]),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// HourBucket is one bar of the hourly histogram.
type HourBucket struct {
	Hour     int
	Checkins int
}

// PeakHours is the hourly check-in histogram plus the days the picker offers.
type PeakHours struct {
	Buckets       []HourBucket // always 24, hours 0-23
	AvailableDays []string     // sorted YYYY-MM-DD keys
}

// PeakHoursByDay counts check-ins per hour of day. The hour comes from the
// timestamp's own zone offset, not UTC, so an event logged at 22:30-03:00
// lands in bucket 22. A non-empty day restricts to that UTC calendar day;
// AvailableDays always covers the whole table.
func PeakHoursByDay(snap *dataset.Snapshot, day string) PeakHours {
	buckets := make([]HourBucket, 24)
	for h := range buckets {
		buckets[h].Hour = h
	}

	daySet := make(map[string]struct{})
	for _, checkin := range snap.Rows(dataset.TableCheckins) {
		t, ok := checkin.Time(dataset.FieldCreatedAt)
		if !ok {
			continue
		}
		key := dataset.DayKey(t)
		daySet[key] = struct{}{}
		if day != "" && key != day {
			continue
		}
		buckets[t.Hour()].Checkins++
	}

	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	return PeakHours{Buckets: buckets, AvailableDays: days}
}

// GiftRedemptions is one row of the redemptions-per-gift chart.
type GiftRedemptions struct {
	ID          int64
	Title       string
	Redemptions int
	Points      int64
	Stock       int64
}

// RedemptionsByGift counts redemption links per gift and joins gift metadata
// for published gifts. Unknown or draft gift ids keep their count under a
// fallback title. Sorted by count descending, id ascending on ties.
func RedemptionsByGift(snap *dataset.Snapshot) []GiftRedemptions {
	counts := make(map[int64]int)
	for _, link := range snap.Rows(dataset.TableRedemptionGiftLinks) {
		if id, ok := link.Int64(dataset.FieldGiftID); ok {
			counts[id]++
		}
	}

	gifts := make(map[int64]dataset.Row)
	for _, row := range snap.Rows(dataset.TableGifts) {
		if !row.HasValue(dataset.FieldPublishedAt) {
			continue
		}
		if id, ok := row.ID(); ok {
			gifts[id] = row
		}
	}

	out := make([]GiftRedemptions, 0, len(counts))
	for giftID, count := range counts {
		entry := GiftRedemptions{
			ID:          giftID,
			Title:       fmt.Sprintf("Gift %d", giftID),
			Redemptions: count,
		}
		if gift, ok := gifts[giftID]; ok {
			if title, ok := gift.String(dataset.FieldTitle); ok && title != "" {
				entry.Title = title
			}
			entry.Points, _ = gift.Int64(dataset.FieldPoints)
			entry.Stock, _ = gift.Int64(dataset.FieldStock)
		}
		out = append(out, entry)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Redemptions != out[j].Redemptions {
			return out[i].Redemptions > out[j].Redemptions
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FunnelStage is one bar of the engagement funnel.
type FunnelStage struct {
	Stage   string
	Count   int
	Percent int // of the largest stage, for proportional bar widths
}

// Funnel derives the four-stage engagement funnel: registered users,
// check-ins, redemptions, surveys. Percentages are relative to the largest
// stage and rounded to whole numbers.
func Funnel(snap *dataset.Snapshot) []FunnelStage {
	stages := []FunnelStage{
		{Stage: "Registered users", Count: len(snap.Rows(dataset.TableUsers))},
		{Stage: "Check-ins", Count: len(snap.Rows(dataset.TableCheckins))},
		{Stage: "Redemptions", Count: len(snap.Rows(dataset.TableRedemptions))},
		{Stage: "Surveys", Count: len(snap.Rows(dataset.TableSurveys))},
	}

	max := 0
	for _, s := range stages {
		if s.Count > max {
			max = s.Count
		}
	}
	if max == 0 {
		return stages
	}
	for i := range stages {
		stages[i].Percent = int(math.Round(float64(stages[i].Count) / float64(max) * 100))
	}
	return stages
}

// BracketShare is one slice of the age distribution.
type BracketShare struct {
	Bracket agegroup.Bracket
	Label   string
	Count   int
	Percent float64
}

// AgeDistribution buckets the checked-in population (users with at least one
// check-in link) into age brackets. Every bracket appears, zero or not, in
// reporting order. Percentages are relative to the checked-in population.
func AgeDistribution(snap *dataset.Snapshot, now time.Time) []BracketShare {
	population := checkedInUsers(snap)
	total := len(population)

	counts := make(map[agegroup.Bracket]int, len(agegroup.All))
	for _, user := range population {
		birth, _ := user.Time(dataset.FieldBirthDate)
		counts[agegroup.Classify(birth, now)]++
	}

	out := make([]BracketShare, 0, len(agegroup.All))
	for _, b := range agegroup.All {
		out = append(out, BracketShare{
			Bracket: b,
			Label:   b.Label(),
			Count:   counts[b],
			Percent: percent(counts[b], total),
		})
	}
	return out
}

// AccountSplit is the account-ownership distribution over checked-in users.
// Users with no account flag count toward Total but neither side.
type AccountSplit struct {
	WithAccount           int
	WithoutAccount        int
	Total                 int
	WithAccountPercent    float64
	WithoutAccountPercent float64
}

// AccountDistribution splits the checked-in population by account ownership.
func AccountDistribution(snap *dataset.Snapshot) AccountSplit {
	population := checkedInUsers(snap)

	split := AccountSplit{Total: len(population)}
	for _, user := range population {
		has, ok := user.Bool(dataset.FieldHasAccount)
		if !ok {
			continue
		}
		if has {
			split.WithAccount++
		} else {
			split.WithoutAccount++
		}
	}
	split.WithAccountPercent = percent(split.WithAccount, split.Total)
	split.WithoutAccountPercent = percent(split.WithoutAccount, split.Total)
	return split
}

// FilterStats compares the unfiltered check-in count against the filtered one.
type FilterStats struct {
	Total            int
	Filtered         int
	Percent          int
	HasActiveFilters bool
}

// CompareFilterStats builds the filter badge shown next to the filter bar.
func CompareFilterStats(unfiltered, filtered *dataset.Snapshot, active bool) FilterStats {
	total := len(unfiltered.Rows(dataset.TableCheckins))
	kept := len(filtered.Rows(dataset.TableCheckins))
	stats := FilterStats{Total: total, Filtered: kept, HasActiveFilters: active}
	if total > 0 {
		stats.Percent = int(math.Round(float64(kept) / float64(total) * 100))
	}
	return stats
}

// checkedInUsers returns the user rows that appear in at least one check-in
// link. This set defines the population for the distribution charts.
func checkedInUsers(snap *dataset.Snapshot) []dataset.Row {
	ids := make(map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableCheckinUserLinks) {
		if id, ok := link.Int64(dataset.FieldUserID); ok {
			ids[id] = struct{}{}
		}
	}

	var users []dataset.Row
	for _, user := range snap.Rows(dataset.TableUsers) {
		if id, ok := user.ID(); ok {
			if _, checkedIn := ids[id]; checkedIn {
				users = append(users, user)
			}
		}
	}
	return users
}

func ratingsByID(snap *dataset.Snapshot) map[int64]dataset.Row {
	out := make(map[int64]dataset.Row)
	for _, row := range snap.Rows(dataset.TableRatings) {
		if id, ok := row.ID(); ok {
			out[id] = row
		}
	}
	return out
}

// Round2 rounds to 2 decimal places, the reporting precision for every mean
// and share in the dashboard.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func meanOrZero(sum float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return Round2(sum / float64(count))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(part) / float64(total) * 100)
}
