// Package dataset holds the raw table snapshot the analytics engine works on:
// a mapping from table name to an ordered list of JSON-shaped rows, as exported
// by the event platform. Entity tables carry an id plus timestamps; link tables
// carry exactly two foreign keys. The snapshot is read-only after load; every
// consumer that needs to narrow it works on a deep copy.
package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// Entity table names. These are a fixed contract with the snapshot exporter;
// schema drift is tolerated (missing tables read as empty), never validated.
const (
	TableUsers       = "users"
	TableCheckins    = "checkins"
	TableRedemptions = "redemptions"
	TableActivations = "activations"
	TableSurveys     = "surveys"
	TableGifts       = "gifts"
	TableRatings     = "ratings"
)

// Link table names, following the exporter's {entity}_{entity}_lnk convention.
const (
	TableCheckinActivationLinks = "checkins_activation_lnk"
	TableCheckinUserLinks       = "checkins_user_lnk"
	TableRedemptionUserLinks    = "redemptions_user_lnk"
	TableRedemptionGiftLinks    = "redemptions_gift_lnk"
	TableSurveyUserLinks        = "surveys_user_lnk"
	TableRatingActivationLinks  = "ratings_activation_lnk"
	TableRatingUserLinks        = "ratings_user_lnk"
)

// Common field names.
const (
	FieldID          = "id"
	FieldCreatedAt   = "created_at"
	FieldPublishedAt = "published_at"
	FieldBirthDate   = "birth_date"
	FieldHasAccount  = "has_account"
	FieldResponses   = "responses"
	FieldRating      = "rating"
	FieldName        = "name"
	FieldType        = "type"
	FieldLocation    = "location"
	FieldPoints      = "points"
	FieldTitle       = "title"
	FieldStock       = "stock"

	FieldUserID       = "user_id"
	FieldCheckinID    = "checkin_id"
	FieldActivationID = "activation_id"
	FieldRedemptionID = "redemption_id"
	FieldGiftID       = "gift_id"
	FieldSurveyID     = "survey_id"
	FieldRatingID     = "rating_id"
)

// Row is a single record: field name to JSON value (string, number, bool,
// null, or a nested array of objects). Typed access goes through the
// extraction helpers in extract.go.
type Row map[string]any

// Table is an ordered sequence of rows.
type Table struct {
	Data []Row `json:"data"`
}

// Snapshot maps table names to tables. The zero value (or a nil map) behaves
// as an empty dataset everywhere.
type Snapshot struct {
	Tables map[string]*Table `json:"tables"`
}

// Decode reads a snapshot from JSON of the shape {"tables": {name: {"data": [...]}}}.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.Tables == nil {
		snap.Tables = make(map[string]*Table)
	}
	return &snap, nil
}

// DecodeFile reads a snapshot from a JSON file on disk.
func DecodeFile(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Table returns the named table, or nil if the snapshot does not carry it.
func (s *Snapshot) Table(name string) *Table {
	if s == nil || s.Tables == nil {
		return nil
	}
	return s.Tables[name]
}

// Rows returns the rows of the named table; absent tables read as empty.
func (s *Snapshot) Rows(name string) []Row {
	t := s.Table(name)
	if t == nil {
		return nil
	}
	return t.Data
}

// SetRows replaces the rows of the named table in place. A no-op when the
// table is absent, so cascade passes can blindly narrow optional tables.
func (s *Snapshot) SetRows(name string, rows []Row) {
	t := s.Table(name)
	if t == nil {
		return
	}
	t.Data = rows
}

// IDSet collects the id field of every row in the named table.
func (s *Snapshot) IDSet(name string) map[int64]struct{} {
	rows := s.Rows(name)
	ids := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		if id, ok := row.Int64(FieldID); ok {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// UniqueValues returns the sorted distinct non-empty values of a field as
// strings. Used by filter front ends to populate pickers.
func (s *Snapshot) UniqueValues(table, field string) []string {
	rows := s.Rows(table)
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		v, ok := row.String(field)
		if !ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Clone returns an independent deep copy of the snapshot. Mutating the copy
// never touches the original (snapshot isolation).
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{Tables: make(map[string]*Table, len(s.Tables))}
	for name, table := range s.Tables {
		if table == nil {
			out.Tables[name] = nil
			continue
		}
		rows := make([]Row, len(table.Data))
		for i, row := range table.Data {
			rows[i] = cloneRow(row)
		}
		out.Tables[name] = &Table{Data: rows}
	}
	return out
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}
		return out
	case Row:
		return map[string]any(cloneRow(val))
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		// Scalars (string, float64, int64, bool, nil) are immutable.
		return v
	}
}
