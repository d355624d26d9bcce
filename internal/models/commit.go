package models

// CommitInfo is the metadata of a single commit as reported by the backend.
// It is created once from a query response and never mutated.
type CommitInfo struct {
	Hash    string `json:"hash"`
	Author  string `json:"author"`
	Email   string `json:"email"`
	Date    string `json:"date"`
	Message string `json:"message"`
}

// ShortHash returns a shortened commit hash (first 8 characters)
func (c *CommitInfo) ShortHash() string {
	return ShortRef(c.Hash)
}

// ShortRef shortens any reference to at most 8 characters.
func ShortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}

// LogEntry is one line of the recent-commit log.
type LogEntry struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

// ShortHash returns a shortened commit hash (first 8 characters)
func (e LogEntry) ShortHash() string {
	return ShortRef(e.Hash)
}
