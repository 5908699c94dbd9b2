package dataset

// LinkEnd is one side of a many-to-many link table: the foreign-key field and
// the entity table it references.
type LinkEnd struct {
	Field  string
	Entity string
}

// LinkSpec describes a link table. Link rows have no identity beyond the two
// foreign keys.
type LinkSpec struct {
	Table string
	Ends  [2]LinkEnd
}

// Links enumerates every link table of the snapshot contract. The filter
// engine walks this list to keep referential closure: whenever an entity
// table is narrowed, every link table referencing it is narrowed too.
var Links = []LinkSpec{
	{
		Table: TableCheckinActivationLinks,
		Ends: [2]LinkEnd{
			{Field: FieldCheckinID, Entity: TableCheckins},
			{Field: FieldActivationID, Entity: TableActivations},
		},
	},
	{
		Table: TableCheckinUserLinks,
		Ends: [2]LinkEnd{
			{Field: FieldCheckinID, Entity: TableCheckins},
			{Field: FieldUserID, Entity: TableUsers},
		},
	},
	{
		Table: TableRedemptionUserLinks,
		Ends: [2]LinkEnd{
			{Field: FieldRedemptionID, Entity: TableRedemptions},
			{Field: FieldUserID, Entity: TableUsers},
		},
	},
	{
		Table: TableRedemptionGiftLinks,
		Ends: [2]LinkEnd{
			{Field: FieldRedemptionID, Entity: TableRedemptions},
			{Field: FieldGiftID, Entity: TableGifts},
		},
	},
	{
		Table: TableSurveyUserLinks,
		Ends: [2]LinkEnd{
			{Field: FieldSurveyID, Entity: TableSurveys},
			{Field: FieldUserID, Entity: TableUsers},
		},
	},
	{
		Table: TableRatingActivationLinks,
		Ends: [2]LinkEnd{
			{Field: FieldRatingID, Entity: TableRatings},
			{Field: FieldActivationID, Entity: TableActivations},
		},
	},
	{
		Table: TableRatingUserLinks,
		Ends: [2]LinkEnd{
			{Field: FieldRatingID, Entity: TableRatings},
			{Field: FieldUserID, Entity: TableUsers},
		},
	},
}

// LinkRef points from an entity table into one link table that references it.
type LinkRef struct {
	Table string
	Field string
}

// LinksFor returns every link table referencing the given entity table,
// along with the foreign-key field on that side.
func LinksFor(entity string) []LinkRef {
	var refs []LinkRef
	for _, spec := range Links {
		for _, end := range spec.Ends {
			if end.Entity == entity {
				refs = append(refs, LinkRef{Table: spec.Table, Field: end.Field})
			}
		}
	}
	return refs
}
