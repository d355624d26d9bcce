package models

// ComparisonResult aggregates everything known about a commit range.
//
// Every field is independently optional. From and To are nil when the
// metadata query failed. Changes is nil when the name-status query failed
// and a non-nil empty slice when the range has no changes.
type ComparisonResult struct {
	FromRef     string       `json:"from_ref"`
	ToRef       string       `json:"to_ref"`
	From        *CommitInfo  `json:"from,omitempty"`
	To          *CommitInfo  `json:"to,omitempty"`
	Changes     []FileChange `json:"changes"`
	StatText    string       `json:"stat_text,omitempty"`
	UnifiedDiff string       `json:"unified_diff,omitempty"`
}

// HasChanges reports whether the change list was retrieved.
func (r *ComparisonResult) HasChanges() bool {
	return r.Changes != nil
}

// TotalChanges returns the number of changed paths
func (r *ComparisonResult) TotalChanges() int {
	return len(r.Changes)
}

// FromShort returns the short identifier for the source side, preferring
// the resolved hash over the user supplied reference.
func (r *ComparisonResult) FromShort() string {
	if r.From != nil {
		return r.From.ShortHash()
	}
	return ShortRef(r.FromRef)
}

// ToShort returns the short identifier for the target side.
func (r *ComparisonResult) ToShort() string {
	if r.To != nil {
		return r.To.ShortHash()
	}
	return ShortRef(r.ToRef)
}

// Complete reports whether every sub-query produced a value.
func (r *ComparisonResult) Complete() bool {
	return r.From != nil && r.To != nil && r.Changes != nil
}

// Empty reports whether no sub-query produced anything, which usually
// means neither reference could be resolved.
func (r *ComparisonResult) Empty() bool {
	return r.From == nil && r.To == nil && r.Changes == nil && r.StatText == "" && r.UnifiedDiff == ""
}
