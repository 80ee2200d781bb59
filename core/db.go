package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// AllowedOrderings drops orderings on fields that are not in `allowed` ({json name: column}).
// the field of every kept ordering is replaced by its column.
func AllowedOrderings(orderings []DBOrdering, allowed map[string]string) []DBOrdering {
	kept := make([]DBOrdering, 0, len(orderings))
	for _, ord := range orderings {
		col, ok := allowed[strings.ToLower(ord.Field)]
		if !ok {
			continue
		}
		kept = append(kept, DBOrdering{Field: col, Ascending: ord.Ascending})
	}
	return kept
}
