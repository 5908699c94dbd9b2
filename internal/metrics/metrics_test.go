package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpulse/internal/agegroup"
	"eventpulse/internal/dataset"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func metricsSnapshot() *dataset.Snapshot {
	return &dataset.Snapshot{Tables: map[string]*dataset.Table{
		dataset.TableUsers: {Data: []dataset.Row{
			{"id": int64(1), "has_account": true, "birth_date": "1990-05-20"},  // 25-40
			{"id": int64(2), "has_account": false, "birth_date": "1950-03-03"}, // 60+
			{"id": int64(3), "has_account": true, "birth_date": "2000-01-01"},  // never checked in
		}},
		dataset.TableCheckins: {Data: []dataset.Row{
			{"id": int64(101), "created_at": "2025-06-01T10:30:00Z"},
			{"id": int64(102), "created_at": "2025-06-01T22:30:00-03:00"},
			{"id": int64(103), "created_at": "2025-06-02T09:00:00Z"},
		}},
		dataset.TableCheckinUserLinks: {Data: []dataset.Row{
			{"checkin_id": int64(101), "user_id": int64(1)},
			{"checkin_id": int64(102), "user_id": int64(2)},
			{"checkin_id": int64(103), "user_id": int64(1)}, // same user again
		}},
		dataset.TableActivations: {Data: []dataset.Row{
			{"id": int64(201), "name": "Eco Trail", "type": "outdoor", "location": "Plaza", "points": int64(100), "published_at": "2025-05-30T00:00:00Z"},
			{"id": int64(202), "name": "Draft Stand", "published_at": nil},
		}},
		dataset.TableCheckinActivationLinks: {Data: []dataset.Row{
			{"checkin_id": int64(101), "activation_id": int64(201)},
			{"checkin_id": int64(101), "activation_id": int64(201)}, // duplicate link row
			{"checkin_id": int64(102), "activation_id": int64(201)},
			{"checkin_id": int64(103), "activation_id": int64(202)}, // draft, ignored
		}},
		dataset.TableRedemptions: {Data: []dataset.Row{
			{"id": int64(301), "created_at": "2025-06-01T12:00:00Z"},
			{"id": int64(302), "created_at": "2025-06-02T12:00:00Z"},
		}},
		dataset.TableRedemptionGiftLinks: {Data: []dataset.Row{
			{"redemption_id": int64(301), "gift_id": int64(401)},
			{"redemption_id": int64(302), "gift_id": int64(402)},
		}},
		dataset.TableGifts: {Data: []dataset.Row{
			{"id": int64(401), "title": "Tote Bag", "points": int64(50), "stock": int64(10), "published_at": "2025-05-01T00:00:00Z"},
			{"id": int64(402), "title": "Hidden Cap", "published_at": nil},
		}},
		dataset.TableSurveys: {Data: []dataset.Row{
			{"id": int64(501), "created_at": "2025-06-02T16:00:00Z"},
		}},
		dataset.TableRatings: {Data: []dataset.Row{
			{"id": int64(601), "rating": float64(5), "created_at": "2025-06-01T11:00:00Z", "published_at": "2025-06-01T11:00:00Z"},
			{"id": int64(602), "rating": float64(4), "created_at": "2025-06-01T18:00:00Z", "published_at": "2025-06-01T18:00:00Z"},
			{"id": int64(603), "rating": float64(1), "created_at": "2025-06-03T10:00:00Z", "published_at": nil}, // draft
			{"id": int64(604), "rating": nil, "created_at": "2025-06-01T10:00:00Z", "published_at": "2025-06-01T10:00:00Z"},
		}},
		dataset.TableRatingActivationLinks: {Data: []dataset.Row{
			{"rating_id": int64(601), "activation_id": int64(201)},
			{"rating_id": int64(602), "activation_id": int64(201)},
			{"rating_id": int64(603), "activation_id": int64(202)},
		}},
		dataset.TableRatingUserLinks: {Data: []dataset.Row{
			{"rating_id": int64(601), "user_id": int64(1)},
			{"rating_id": int64(602), "user_id": int64(2)},
		}},
	}}
}

func TestSummarize(t *testing.T) {
	got := Summarize(metricsSnapshot())

	assert.Equal(t, 2, got.DistinctUsersWithCheckin, "user 1 checked in twice but counts once")
	assert.Equal(t, 3, got.TotalCheckins)
	assert.Equal(t, 2, got.TotalRedemptions)
	assert.Equal(t, 1, got.TotalPublishedActivations)
	// Ratings 5 and 4 are published with a value; the draft and the null
	// rating are excluded.
	assert.Equal(t, 4.5, got.OverallAverageRating)
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(&dataset.Snapshot{Tables: map[string]*dataset.Table{}})
	assert.Equal(t, Summary{}, got)
}

func TestCheckinsByActivation(t *testing.T) {
	got := CheckinsByActivation(metricsSnapshot())

	require.Len(t, got, 1, "draft activations contribute nothing")
	assert.Equal(t, int64(201), got[0].ID)
	assert.Equal(t, "Eco Trail", got[0].Name)
	assert.Equal(t, 2, got[0].Checkins, "duplicate link rows must not double-count a check-in")
	assert.Equal(t, 4.5, got[0].AvgRating)
	assert.Equal(t, "outdoor", got[0].Type)
	assert.Equal(t, "Plaza", got[0].Location)
	assert.Equal(t, int64(100), got[0].Points)
}

func TestCheckinsByActivationSorted(t *testing.T) {
	snap := metricsSnapshot()
	snap.Tables[dataset.TableActivations].Data = append(snap.Tables[dataset.TableActivations].Data,
		dataset.Row{"id": int64(203), "name": "Busy Booth", "published_at": "2025-05-30T00:00:00Z"})
	snap.Tables[dataset.TableCheckinActivationLinks].Data = append(snap.Tables[dataset.TableCheckinActivationLinks].Data,
		dataset.Row{"checkin_id": int64(101), "activation_id": int64(203)},
		dataset.Row{"checkin_id": int64(102), "activation_id": int64(203)},
		dataset.Row{"checkin_id": int64(103), "activation_id": int64(203)})

	got := CheckinsByActivation(snap)
	require.Len(t, got, 2)
	assert.Equal(t, "Busy Booth", got[0].Name)
	assert.Equal(t, 3, got[0].Checkins)
}

func TestCheckinsByDay(t *testing.T) {
	got := CheckinsByDay(metricsSnapshot())

	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-01", got[0].Day)
	assert.Equal(t, 1, got[0].Checkins, "the -03:00 check-in falls on June 2 UTC")
	// Rating 4 was submitted on June 1 by user 2, but user 2's check-in
	// falls on June 2 UTC, so only user 1's rating of 5 counts for June 1.
	assert.Equal(t, 5.0, got[0].AvgRating)

	assert.Equal(t, "2025-06-02", got[1].Day)
	assert.Equal(t, 2, got[1].Checkins)
	assert.Equal(t, 0.0, got[1].AvgRating, "no rating was submitted on June 2")
}

func TestCheckinsByDaySkipsUnparseable(t *testing.T) {
	snap := metricsSnapshot()
	snap.Tables[dataset.TableCheckins].Data = append(snap.Tables[dataset.TableCheckins].Data,
		dataset.Row{"id": int64(110), "created_at": "not a date"},
		dataset.Row{"id": int64(111)})

	got := CheckinsByDay(snap)
	total := 0
	for _, day := range got {
		total += day.Checkins
	}
	assert.Equal(t, 3, total)
}

func TestPeakHoursByDay(t *testing.T) {
	got := PeakHoursByDay(metricsSnapshot(), "")

	require.Len(t, got.Buckets, 24)
	assert.Equal(t, []string{"2025-06-01", "2025-06-02"}, got.AvailableDays)
	assert.Equal(t, 1, got.Buckets[10].Checkins)
	assert.Equal(t, 1, got.Buckets[22].Checkins, "hour comes from the timestamp's own offset")
	assert.Equal(t, 1, got.Buckets[9].Checkins)
}

func TestPeakHoursRestrictedToDay(t *testing.T) {
	// The -03:00 check-in is June 2 in UTC, so it belongs to the June 2 day
	// bucket while keeping its local hour 22.
	got := PeakHoursByDay(metricsSnapshot(), "2025-06-02")

	assert.Equal(t, 0, got.Buckets[10].Checkins)
	assert.Equal(t, 1, got.Buckets[22].Checkins)
	assert.Equal(t, 1, got.Buckets[9].Checkins)
	assert.Equal(t, []string{"2025-06-01", "2025-06-02"}, got.AvailableDays,
		"available days always cover the whole table")
}

func TestRedemptionsByGift(t *testing.T) {
	got := RedemptionsByGift(metricsSnapshot())

	require.Len(t, got, 2)
	assert.Equal(t, "Tote Bag", got[0].Title)
	assert.Equal(t, 1, got[0].Redemptions)
	assert.Equal(t, int64(50), got[0].Points)
	assert.Equal(t, int64(10), got[0].Stock)

	// Gift 402 is a draft: its count survives under a fallback title.
	assert.Equal(t, "Gift 402", got[1].Title)
	assert.Equal(t, 1, got[1].Redemptions)
	assert.Zero(t, got[1].Points)
}

func TestFunnel(t *testing.T) {
	got := Funnel(metricsSnapshot())

	require.Len(t, got, 4)
	assert.Equal(t, FunnelStage{Stage: "Registered users", Count: 3, Percent: 100}, got[0])
	assert.Equal(t, FunnelStage{Stage: "Check-ins", Count: 3, Percent: 100}, got[1])
	assert.Equal(t, FunnelStage{Stage: "Redemptions", Count: 2, Percent: 67}, got[2])
	assert.Equal(t, FunnelStage{Stage: "Surveys", Count: 1, Percent: 33}, got[3])
}

func TestFunnelEmpty(t *testing.T) {
	got := Funnel(&dataset.Snapshot{Tables: map[string]*dataset.Table{}})
	require.Len(t, got, 4)
	for _, stage := range got {
		assert.Zero(t, stage.Count)
		assert.Zero(t, stage.Percent)
	}
}

func TestAgeDistribution(t *testing.T) {
	got := AgeDistribution(metricsSnapshot(), now)

	require.Len(t, got, len(agegroup.All), "every bracket appears, zero or not")

	byBracket := make(map[agegroup.Bracket]BracketShare)
	for _, share := range got {
		byBracket[share.Bracket] = share
	}

	// Population is the two checked-in users only; user 3 never checked in.
	assert.Equal(t, 1, byBracket[agegroup.From25To40].Count)
	assert.Equal(t, 50.0, byBracket[agegroup.From25To40].Percent)
	assert.Equal(t, 1, byBracket[agegroup.Over60].Count)
	assert.Equal(t, 0, byBracket[agegroup.From18To24].Count)
	assert.Equal(t, "25 to 40", byBracket[agegroup.From25To40].Label)
}

func TestAccountDistribution(t *testing.T) {
	got := AccountDistribution(metricsSnapshot())

	assert.Equal(t, AccountSplit{
		WithAccount:           1,
		WithoutAccount:        1,
		Total:                 2,
		WithAccountPercent:    50,
		WithoutAccountPercent: 50,
	}, got)
}

func TestAccountDistributionMissingFlag(t *testing.T) {
	snap := metricsSnapshot()
	snap.Tables[dataset.TableUsers].Data = append(snap.Tables[dataset.TableUsers].Data,
		dataset.Row{"id": int64(4), "birth_date": "1980-01-01"})
	snap.Tables[dataset.TableCheckinUserLinks].Data = append(snap.Tables[dataset.TableCheckinUserLinks].Data,
		dataset.Row{"checkin_id": int64(103), "user_id": int64(4)})

	got := AccountDistribution(snap)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.WithAccount)
	assert.Equal(t, 1, got.WithoutAccount)
	assert.Equal(t, 33.33, got.WithAccountPercent)
}

func TestCompareFilterStats(t *testing.T) {
	full := metricsSnapshot()
	narrowed := full.Clone()
	narrowed.SetRows(dataset.TableCheckins, narrowed.Rows(dataset.TableCheckins)[:1])

	got := CompareFilterStats(full, narrowed, true)
	assert.Equal(t, FilterStats{Total: 3, Filtered: 1, Percent: 33, HasActiveFilters: true}, got)

	empty := &dataset.Snapshot{Tables: map[string]*dataset.Table{}}
	assert.Equal(t, FilterStats{}, CompareFilterStats(empty, empty, false))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 93.75, Round2(93.746))
	assert.Equal(t, 33.33, Round2(100.0/3))
	assert.Equal(t, 0.0, Round2(0))
}
