// Package filter narrows a dataset snapshot to the rows matching a Criteria
// while keeping every link table consistent with every entity table it
// references (referential closure: no surviving link may point at a dropped
// entity row).
//
// Filtering runs in a fixed step order:
//
//  1. compute the user eligibility set (account flag AND age brackets)
//  2. apply the date window to check-ins, redemptions and surveys
//  3. restrict to the selected activation, transitively narrowing the
//     check-ins, their users, and those users' redemptions
//  4. cascade the user eligibility set onto every user-linked table
//
// Step 3 must run before step 4: a user excluded by eligibility who attended
// the selected activation would otherwise survive in one branch but not the
// other. Missing tables or fields make the affected step a no-op; filtering
// never fails.
package filter

import (
	"time"

	"eventpulse/internal/agegroup"
	"eventpulse/internal/dataset"
)

// Apply returns a filtered deep copy of the snapshot. The input snapshot and
// the criteria are never mutated. An empty criteria returns a plain deep copy
// of the input. The reference time feeds age classification.
func Apply(snap *dataset.Snapshot, c Criteria, now time.Time) *dataset.Snapshot {
	out := snap.Clone()
	if out == nil || c.IsZero() {
		return out
	}

	eligible := eligibleUsers(out, c, now)

	if c.hasDateConstraint() {
		applyDateWindow(out, c)
	}

	if c.ActivationID != 0 {
		applyActivation(out, c.ActivationID)
	}

	if eligible != nil {
		applyUserEligibility(out, eligible)
	}

	return out
}

type idSet map[int64]struct{}

func (s idSet) has(id int64) bool {
	_, ok := s[id]
	return ok
}

// eligibleUsers computes step 1: the intersection of the account-flag filter
// and the age-bracket filter. A nil result means "unconstrained".
func eligibleUsers(snap *dataset.Snapshot, c Criteria, now time.Time) idSet {
	if !c.hasUserConstraint() {
		return nil
	}

	var eligible idSet

	if c.HasAccount != nil {
		eligible = make(idSet)
		for _, user := range snap.Rows(dataset.TableUsers) {
			has, ok := user.Bool(dataset.FieldHasAccount)
			if !ok || has != *c.HasAccount {
				continue
			}
			if id, ok := user.ID(); ok {
				eligible[id] = struct{}{}
			}
		}
	}

	if len(c.Brackets) > 0 {
		wanted := make(map[agegroup.Bracket]struct{}, len(c.Brackets))
		for _, b := range c.Brackets {
			wanted[b] = struct{}{}
		}

		byBracket := make(idSet)
		for _, user := range snap.Rows(dataset.TableUsers) {
			birth, _ := user.Time(dataset.FieldBirthDate)
			if _, ok := wanted[agegroup.Classify(birth, now)]; !ok {
				continue
			}
			if id, ok := user.ID(); ok {
				byBracket[id] = struct{}{}
			}
		}

		if eligible == nil {
			eligible = byBracket
		} else {
			for id := range eligible {
				if !byBracket.has(id) {
					delete(eligible, id)
				}
			}
		}
	}

	return eligible
}

// applyDateWindow narrows the dated entity tables to the criteria window and
// cascades onto their link tables. Rows without a created_at value are kept
// (nothing to filter on); rows with an unparseable one are dropped.
func applyDateWindow(snap *dataset.Snapshot, c Criteria) {
	for _, table := range []string{dataset.TableCheckins, dataset.TableRedemptions, dataset.TableSurveys} {
		if snap.Table(table) == nil {
			continue
		}
		keepRows(snap, table, func(row dataset.Row) bool {
			raw, ok := row.String(dataset.FieldCreatedAt)
			if !ok || raw == "" {
				return true
			}
			t, ok := dataset.ParseTime(raw)
			if !ok {
				return false
			}
			return c.inWindow(t)
		})
		cascadeLinks(snap, table)
	}
}

// applyActivation implements step 3. The restriction is transitive: the
// selected activation narrows check-ins, the check-ins narrow their users,
// and those users narrow the visible redemptions, even though activations and
// redemptions share no direct link table.
func applyActivation(snap *dataset.Snapshot, activationID int64) {
	if snap.Table(dataset.TableCheckinActivationLinks) == nil {
		return
	}

	keepRows(snap, dataset.TableCheckinActivationLinks, func(link dataset.Row) bool {
		id, ok := link.Int64(dataset.FieldActivationID)
		return ok && id == activationID
	})

	checkinIDs := collectField(snap, dataset.TableCheckinActivationLinks, dataset.FieldCheckinID)
	restrictEntity(snap, dataset.TableCheckins, checkinIDs)

	if snap.Table(dataset.TableCheckinUserLinks) == nil {
		return
	}
	userIDs := collectField(snap, dataset.TableCheckinUserLinks, dataset.FieldUserID)

	if snap.Table(dataset.TableRedemptionUserLinks) == nil {
		return
	}
	keepRows(snap, dataset.TableRedemptionUserLinks, func(link dataset.Row) bool {
		id, ok := link.Int64(dataset.FieldUserID)
		return ok && userIDs.has(id)
	})
	redemptionIDs := collectField(snap, dataset.TableRedemptionUserLinks, dataset.FieldRedemptionID)
	restrictEntity(snap, dataset.TableRedemptions, redemptionIDs)
}

// applyUserEligibility implements step 4: the eligibility set narrows the
// users table, every user link table, and transitively the entities reachable
// through those links.
func applyUserEligibility(snap *dataset.Snapshot, eligible idSet) {
	restrictEntity(snap, dataset.TableUsers, eligible)

	cascades := []struct {
		linkTable string
		entity    string
		entityFK  string
	}{
		{dataset.TableCheckinUserLinks, dataset.TableCheckins, dataset.FieldCheckinID},
		{dataset.TableRedemptionUserLinks, dataset.TableRedemptions, dataset.FieldRedemptionID},
		{dataset.TableSurveyUserLinks, dataset.TableSurveys, dataset.FieldSurveyID},
	}

	for _, c := range cascades {
		if snap.Table(c.linkTable) == nil {
			continue
		}
		ids := collectField(snap, c.linkTable, c.entityFK)
		restrictEntity(snap, c.entity, ids)
	}
}

// keepRows filters a table in place.
func keepRows(snap *dataset.Snapshot, table string, keep func(dataset.Row) bool) {
	rows := snap.Rows(table)
	if rows == nil {
		return
	}
	kept := rows[:0]
	for _, row := range rows {
		if keep(row) {
			kept = append(kept, row)
		}
	}
	snap.SetRows(table, kept)
}

// restrictEntity narrows an entity table to the given id set and re-filters
// every link table referencing it against the ids that actually survived.
func restrictEntity(snap *dataset.Snapshot, entity string, keep idSet) {
	if snap.Table(entity) == nil {
		return
	}
	keepRows(snap, entity, func(row dataset.Row) bool {
		id, ok := row.ID()
		return ok && keep.has(id)
	})
	cascadeLinks(snap, entity)
}

// cascadeLinks drops every link row whose foreign key no longer resolves in
// the entity table. This is what keeps referential closure after any
// narrowing of an entity table.
func cascadeLinks(snap *dataset.Snapshot, entity string) {
	surviving := idSet(snap.IDSet(entity))
	for _, ref := range dataset.LinksFor(entity) {
		if snap.Table(ref.Table) == nil {
			continue
		}
		keepRows(snap, ref.Table, func(link dataset.Row) bool {
			id, ok := link.Int64(ref.Field)
			return ok && surviving.has(id)
		})
	}
}

// collectField gathers the values of one foreign-key field across a table.
func collectField(snap *dataset.Snapshot, table, field string) idSet {
	ids := make(idSet)
	for _, row := range snap.Rows(table) {
		if id, ok := row.Int64(field); ok {
			ids[id] = struct{}{}
		}
	}
	return ids
}
