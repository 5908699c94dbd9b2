package relations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpulse/internal/agegroup"
	"eventpulse/internal/dataset"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func relationsSnapshot() *dataset.Snapshot {
	return &dataset.Snapshot{Tables: map[string]*dataset.Table{
		dataset.TableUsers: {Data: []dataset.Row{
			{"id": int64(1), "has_account": true, "birth_date": "1990-05-20"},
			{"id": int64(2), "has_account": false, "birth_date": "1950-03-03"},
		}},
		dataset.TableCheckins: {Data: []dataset.Row{
			{"id": int64(101), "created_at": "2025-06-01T10:00:00Z"},
			{"id": int64(102), "created_at": "2025-06-02T15:00:00Z"},
		}},
		dataset.TableCheckinUserLinks: {Data: []dataset.Row{
			{"checkin_id": int64(101), "user_id": int64(1)},
			{"checkin_id": int64(102), "user_id": int64(1)},
		}},
		dataset.TableActivations: {Data: []dataset.Row{
			{"id": int64(201), "name": "Eco Trail"},
		}},
		dataset.TableCheckinActivationLinks: {Data: []dataset.Row{
			{"checkin_id": int64(101), "activation_id": int64(201)},
			{"checkin_id": int64(102), "activation_id": int64(201)},
		}},
		dataset.TableRedemptions: {Data: []dataset.Row{
			{"id": int64(301)},
		}},
		dataset.TableRedemptionUserLinks: {Data: []dataset.Row{
			{"redemption_id": int64(301), "user_id": int64(1)},
		}},
		dataset.TableGifts: {Data: []dataset.Row{
			{"id": int64(401), "title": "Tote Bag"},
		}},
		dataset.TableRedemptionGiftLinks: {Data: []dataset.Row{
			{"redemption_id": int64(301), "gift_id": int64(401)},
		}},
		dataset.TableSurveys: {Data: []dataset.Row{
			{"id": int64(501)},
		}},
		dataset.TableSurveyUserLinks: {Data: []dataset.Row{
			{"survey_id": int64(501), "user_id": int64(2)},
		}},
		dataset.TableRatings: {Data: []dataset.Row{
			{"id": int64(601), "rating": float64(5)},
			{"id": int64(602), "rating": float64(4)},
		}},
		dataset.TableRatingActivationLinks: {Data: []dataset.Row{
			{"rating_id": int64(601), "activation_id": int64(201)},
			{"rating_id": int64(602), "activation_id": int64(201)},
		}},
		dataset.TableRatingUserLinks: {Data: []dataset.Row{
			{"rating_id": int64(601), "user_id": int64(1)},
		}},
	}}
}

func ids(rows []dataset.Row) []int64 {
	var out []int64
	for _, row := range rows {
		if id, ok := row.ID(); ok {
			out = append(out, id)
		}
	}
	return out
}

func TestCheckinsByUser(t *testing.T) {
	snap := relationsSnapshot()
	assert.ElementsMatch(t, []int64{101, 102}, ids(CheckinsByUser(snap, 1)))
	assert.Empty(t, CheckinsByUser(snap, 2))
	assert.Empty(t, CheckinsByUser(snap, 99))
}

func TestActivationsByCheckin(t *testing.T) {
	got := ActivationsByCheckin(relationsSnapshot(), 101)
	assert.Equal(t, []int64{201}, ids(got))
}

func TestUsersByActivation(t *testing.T) {
	got := UsersByActivation(relationsSnapshot(), 201)
	assert.Equal(t, []int64{1}, ids(got), "two check-ins by the same user count once")
	assert.Empty(t, UsersByActivation(relationsSnapshot(), 999))
}

func TestUsersByGift(t *testing.T) {
	got := UsersByGift(relationsSnapshot(), 401)
	assert.Equal(t, []int64{1}, ids(got))
}

func TestRatingsLookups(t *testing.T) {
	snap := relationsSnapshot()
	assert.ElementsMatch(t, []int64{601, 602}, ids(RatingsByActivation(snap, 201)))
	assert.Equal(t, []int64{601}, ids(RatingsByUser(snap, 1)))
	assert.Equal(t, []int64{501}, ids(SurveysByUser(snap, 2)))
}

func TestProfile(t *testing.T) {
	got, ok := Profile(relationsSnapshot(), 1, now)
	require.True(t, ok)

	assert.Equal(t, agegroup.From25To40, got.AgeBracket)
	assert.Equal(t, 2, got.Checkins)
	assert.Equal(t, 1, got.Redemptions)
	assert.Equal(t, 0, got.Surveys)
	assert.Equal(t, 1, got.Ratings)

	_, ok = Profile(relationsSnapshot(), 99, now)
	assert.False(t, ok)
}

func TestStatsForActivation(t *testing.T) {
	got, ok := StatsForActivation(relationsSnapshot(), 201)
	require.True(t, ok)

	assert.Equal(t, 2, got.Checkins)
	assert.Equal(t, 1, got.DistinctUsers)
	assert.Equal(t, 4.5, got.AvgRating)
	assert.Equal(t, 2, got.Ratings)

	_, ok = StatsForActivation(relationsSnapshot(), 999)
	assert.False(t, ok)
}

func TestLookupsOnEmptySnapshot(t *testing.T) {
	empty := &dataset.Snapshot{Tables: map[string]*dataset.Table{}}
	assert.Empty(t, CheckinsByUser(empty, 1))
	assert.Empty(t, UsersByActivation(empty, 1))
	_, ok := Profile(empty, 1, now)
	assert.False(t, ok)
}
