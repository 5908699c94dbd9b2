// Package relations provides entity navigation over a dataset snapshot:
// given one entity id, walk a link table to the rows on the other side.
// All lookups are pure reads; unknown ids and missing tables return empty
// results.
package relations

import (
	"math"
	"time"

	"eventpulse/internal/agegroup"
	"eventpulse/internal/dataset"
)

// linkedRows walks a link table from one side to the other: it collects every
// link whose matchField equals id and resolves wantField against wantTable.
func linkedRows(snap *dataset.Snapshot, linkTable, matchField string, id int64, wantField, wantTable string) []dataset.Row {
	wanted := make(map[int64]struct{})
	for _, link := range snap.Rows(linkTable) {
		v, ok := link.Int64(matchField)
		if !ok || v != id {
			continue
		}
		if w, ok := link.Int64(wantField); ok {
			wanted[w] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return nil
	}

	var out []dataset.Row
	for _, row := range snap.Rows(wantTable) {
		if rowID, ok := row.ID(); ok {
			if _, hit := wanted[rowID]; hit {
				out = append(out, row)
			}
		}
	}
	return out
}

// CheckinsByUser returns the check-in rows of one user.
func CheckinsByUser(snap *dataset.Snapshot, userID int64) []dataset.Row {
	return linkedRows(snap, dataset.TableCheckinUserLinks,
		dataset.FieldUserID, userID, dataset.FieldCheckinID, dataset.TableCheckins)
}

// ActivationsByCheckin returns the activations one check-in belongs to.
func ActivationsByCheckin(snap *dataset.Snapshot, checkinID int64) []dataset.Row {
	return linkedRows(snap, dataset.TableCheckinActivationLinks,
		dataset.FieldCheckinID, checkinID, dataset.FieldActivationID, dataset.TableActivations)
}

// UsersByActivation returns the distinct users who checked in at an
// activation, walking checkin-activation links into checkin-user links.
func UsersByActivation(snap *dataset.Snapshot, activationID int64) []dataset.Row {
	checkins := make(map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableCheckinActivationLinks) {
		v, ok := link.Int64(dataset.FieldActivationID)
		if !ok || v != activationID {
			continue
		}
		if c, ok := link.Int64(dataset.FieldCheckinID); ok {
			checkins[c] = struct{}{}
		}
	}

	users := make(map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableCheckinUserLinks) {
		c, ok := link.Int64(dataset.FieldCheckinID)
		if !ok {
			continue
		}
		if _, hit := checkins[c]; !hit {
			continue
		}
		if u, ok := link.Int64(dataset.FieldUserID); ok {
			users[u] = struct{}{}
		}
	}

	var out []dataset.Row
	for _, row := range snap.Rows(dataset.TableUsers) {
		if id, ok := row.ID(); ok {
			if _, hit := users[id]; hit {
				out = append(out, row)
			}
		}
	}
	return out
}

// RedemptionsByUser returns the redemption rows of one user.
func RedemptionsByUser(snap *dataset.Snapshot, userID int64) []dataset.Row {
	return linkedRows(snap, dataset.TableRedemptionUserLinks,
		dataset.FieldUserID, userID, dataset.FieldRedemptionID, dataset.TableRedemptions)
}

// UsersByGift returns the distinct users who redeemed a gift, walking
// redemption-gift links into redemption-user links.
func UsersByGift(snap *dataset.Snapshot, giftID int64) []dataset.Row {
	redemptions := make(map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableRedemptionGiftLinks) {
		v, ok := link.Int64(dataset.FieldGiftID)
		if !ok || v != giftID {
			continue
		}
		if r, ok := link.Int64(dataset.FieldRedemptionID); ok {
			redemptions[r] = struct{}{}
		}
	}

	users := make(map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableRedemptionUserLinks) {
		r, ok := link.Int64(dataset.FieldRedemptionID)
		if !ok {
			continue
		}
		if _, hit := redemptions[r]; !hit {
			continue
		}
		if u, ok := link.Int64(dataset.FieldUserID); ok {
			users[u] = struct{}{}
		}
	}

	var out []dataset.Row
	for _, row := range snap.Rows(dataset.TableUsers) {
		if id, ok := row.ID(); ok {
			if _, hit := users[id]; hit {
				out = append(out, row)
			}
		}
	}
	return out
}

// RatingsByActivation returns the rating rows linked to an activation.
func RatingsByActivation(snap *dataset.Snapshot, activationID int64) []dataset.Row {
	return linkedRows(snap, dataset.TableRatingActivationLinks,
		dataset.FieldActivationID, activationID, dataset.FieldRatingID, dataset.TableRatings)
}

// RatingsByUser returns the rating rows one user submitted.
func RatingsByUser(snap *dataset.Snapshot, userID int64) []dataset.Row {
	return linkedRows(snap, dataset.TableRatingUserLinks,
		dataset.FieldUserID, userID, dataset.FieldRatingID, dataset.TableRatings)
}

// SurveysByUser returns the survey rows one user submitted.
func SurveysByUser(snap *dataset.Snapshot, userID int64) []dataset.Row {
	return linkedRows(snap, dataset.TableSurveyUserLinks,
		dataset.FieldUserID, userID, dataset.FieldSurveyID, dataset.TableSurveys)
}

// UserProfile is one user's engagement summary.
type UserProfile struct {
	User        dataset.Row
	AgeBracket  agegroup.Bracket
	Checkins    int
	Redemptions int
	Surveys     int
	Ratings     int
}

// Profile assembles a user's profile at the given reference time. Reports
// false when the user id is unknown.
func Profile(snap *dataset.Snapshot, userID int64, now time.Time) (UserProfile, bool) {
	var user dataset.Row
	for _, row := range snap.Rows(dataset.TableUsers) {
		if id, ok := row.ID(); ok && id == userID {
			user = row
			break
		}
	}
	if user == nil {
		return UserProfile{}, false
	}

	birth, _ := user.Time(dataset.FieldBirthDate)
	return UserProfile{
		User:        user,
		AgeBracket:  agegroup.Classify(birth, now),
		Checkins:    len(CheckinsByUser(snap, userID)),
		Redemptions: len(RedemptionsByUser(snap, userID)),
		Surveys:     len(SurveysByUser(snap, userID)),
		Ratings:     len(RatingsByUser(snap, userID)),
	}, true
}

// ActivationStats is one activation's engagement summary.
type ActivationStats struct {
	Activation    dataset.Row
	Checkins      int
	DistinctUsers int
	AvgRating     float64
	Ratings       int
}

// StatsForActivation assembles an activation's stats. Reports false when the
// activation id is unknown.
func StatsForActivation(snap *dataset.Snapshot, activationID int64) (ActivationStats, bool) {
	var activation dataset.Row
	for _, row := range snap.Rows(dataset.TableActivations) {
		if id, ok := row.ID(); ok && id == activationID {
			activation = row
			break
		}
	}
	if activation == nil {
		return ActivationStats{}, false
	}

	checkins := make(map[int64]struct{})
	for _, link := range snap.Rows(dataset.TableCheckinActivationLinks) {
		v, ok := link.Int64(dataset.FieldActivationID)
		if !ok || v != activationID {
			continue
		}
		if c, ok := link.Int64(dataset.FieldCheckinID); ok {
			checkins[c] = struct{}{}
		}
	}

	stats := ActivationStats{
		Activation:    activation,
		Checkins:      len(checkins),
		DistinctUsers: len(UsersByActivation(snap, activationID)),
	}

	var sum float64
	for _, rating := range RatingsByActivation(snap, activationID) {
		if v, ok := rating.Float64(dataset.FieldRating); ok {
			sum += v
			stats.Ratings++
		}
	}
	if stats.Ratings > 0 {
		stats.AvgRating = math.Round(sum/float64(stats.Ratings)*100) / 100
	}
	return stats, true
}
