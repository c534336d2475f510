package domain

import "sort"

// Peak maps a peak identifier to its display name.
type Peak struct {
	ID   string `json:"peak_id" validate:"required"`
	Name string `json:"peak_name"`
}

// PeakLookup is a deduplicated peak table sorted by ID.
type PeakLookup []Peak

// NewPeakLookup deduplicates peaks on ID, keeping the first occurrence, and
// sorts the result by ID ascending. conflicts lists the IDs that appeared
// again with a different name.
func NewPeakLookup(peaks []Peak) (lookup PeakLookup, conflicts []string) {
	seen := make(map[string]string, len(peaks))
	for _, p := range peaks {
		if p.ID == "" {
			continue
		}
		if name, ok := seen[p.ID]; ok {
			if name != p.Name {
				conflicts = append(conflicts, p.ID)
			}
			continue
		}
		seen[p.ID] = p.Name
		lookup = append(lookup, p)
	}

	sort.Slice(lookup, func(i, j int) bool {
		return lookup[i].ID < lookup[j].ID
	})

	return lookup, conflicts
}

// Name returns the display name for id, or id itself when unknown.
func (l PeakLookup) Name(id string) string {
	i := sort.Search(len(l), func(i int) bool { return l[i].ID >= id })
	if i < len(l) && l[i].ID == id && l[i].Name != "" {
		return l[i].Name
	}
	return id
}

// Filter returns the entries whose IDs are in ids, keeping lookup order.
func (l PeakLookup) Filter(ids []string) PeakLookup {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out PeakLookup
	for _, p := range l {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
