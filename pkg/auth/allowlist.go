package auth

// AllowList is the set of provider user IDs permitted to reach the panel.
// Membership is exact string equality; IDs are not trimmed or case-folded.
type AllowList struct {
	ids map[string]struct{}
}

// NewAllowList builds an AllowList from ids. Order and duplicates are irrelevant.
func NewAllowList(ids []string) AllowList {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return AllowList{ids: set}
}

// Contains reports whether id is on the list. The empty ID is never allowed.
func (a AllowList) Contains(id string) bool {
	if id == "" {
		return false
	}
	_, ok := a.ids[id]
	return ok
}

// Len returns the number of distinct IDs.
func (a AllowList) Len() int { return len(a.ids) }
