package metrics

import (
	"fmt"
	"sort"

	"eventpulse/internal/dataset"
)

// ActivationDays is one row of the per-activation daily check-in matrix.
type ActivationDays struct {
	Name  string
	Type  string
	ByDay map[string]int
	Total int
}

// ActivationDayMatrix crosses activations with calendar days.
type ActivationDayMatrix struct {
	Days        []string // sorted YYYY-MM-DD keys covering every activation
	Activations []ActivationDays
}

// CheckinsByActivationByDay counts unique check-ins per activation per UTC
// day. Activations sharing a name pool into one row, mirroring how duplicate
// snapshot entries for the same physical activation are presented. Rows sort
// by total descending, name ascending on ties.
func CheckinsByActivationByDay(snap *dataset.Snapshot) ActivationDayMatrix {
	checkinDays := make(map[int64]string)
	for _, checkin := range snap.Rows(dataset.TableCheckins) {
		t, ok := checkin.Time(dataset.FieldCreatedAt)
		if !ok {
			continue
		}
		if id, ok := checkin.ID(); ok {
			checkinDays[id] = dataset.DayKey(t)
		}
	}

	activations := make(map[int64]dataset.Row)
	for _, row := range snap.Rows(dataset.TableActivations) {
		if id, ok := row.ID(); ok {
			activations[id] = row
		}
	}

	type cell map[string]map[int64]struct{} // day -> unique checkin ids
	byName := make(map[string]cell)
	types := make(map[string]string)
	daySet := make(map[string]struct{})

	for _, link := range snap.Rows(dataset.TableCheckinActivationLinks) {
		checkinID, ok := link.Int64(dataset.FieldCheckinID)
		if !ok {
			continue
		}
		day, dated := checkinDays[checkinID]
		if !dated {
			continue
		}
		activationID, ok := link.Int64(dataset.FieldActivationID)
		if !ok {
			continue
		}
		activation, known := activations[activationID]
		if !known {
			continue
		}

		name, _ := activation.String(dataset.FieldName)
		if name == "" {
			name = fmt.Sprintf("Activation %d", activationID)
		}
		if _, seen := byName[name]; !seen {
			byName[name] = make(cell)
			types[name], _ = activation.String(dataset.FieldType)
		}
		if byName[name][day] == nil {
			byName[name][day] = make(map[int64]struct{})
		}
		byName[name][day][checkinID] = struct{}{}
		daySet[day] = struct{}{}
	}

	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	rows := make([]ActivationDays, 0, len(byName))
	for name, cells := range byName {
		row := ActivationDays{Name: name, Type: types[name], ByDay: make(map[string]int, len(days))}
		for _, day := range days {
			count := len(cells[day])
			row.ByDay[day] = count
			row.Total += count
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Name < rows[j].Name
	})

	return ActivationDayMatrix{Days: days, Activations: rows}
}
