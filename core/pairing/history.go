package pairing

// History is the set of previously formed pairs.
type History map[Pair]struct{}

func NewHistory(pairs ...Pair) History {
	h := make(History, len(pairs))
	for _, p := range pairs {
		h[NewPair(p.A, p.B)] = struct{}{}
	}
	return h
}

// HistoryFromRecords builds the History of the given records.
func HistoryFromRecords(records []Record) History {
	h := make(History, len(records))
	for _, r := range records {
		h[r.Pair()] = struct{}{}
	}
	return h
}

func (h History) Add(a, b int) { h[NewPair(a, b)] = struct{}{} }

func (h History) Contains(a, b int) bool {
	_, ok := h[NewPair(a, b)]
	return ok
}

func (h History) Len() int { return len(h) }

// CoversAll reports whether every pairwise combination of the roster is historical,
// ie. no novel pair can be formed at all.
func (h History) CoversAll(roster []Student) bool {
	if len(roster) < 2 || len(h) == 0 {
		return false
	}
	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			if roster[i].ID == roster[j].ID {
				continue
			}
			if !h.Contains(roster[i].ID, roster[j].ID) {
				return false
			}
		}
	}
	return true
}

// AllHistorical reports whether every pair of the assignment was already formed.
// an assignment without pairs is not historical.
func (h History) AllHistorical(a Assignment) bool {
	if len(a.Matches) == 0 {
		return false
	}
	for _, m := range a.Matches {
		if !h.Contains(m.Student1.ID, m.Student2.ID) {
			return false
		}
	}
	return true
}
