package models

import (
	"strconv"
	"strings"
)

// ChangeStatus is the kind of change recorded for a path.
type ChangeStatus int

const (
	StatusUnknown ChangeStatus = iota
	StatusAdded
	StatusModified
	StatusDeleted
	StatusRenamed
	StatusCopied
)

var statusLabels = map[ChangeStatus]string{
	StatusAdded:    "Added",
	StatusModified: "Modified",
	StatusDeleted:  "Deleted",
	StatusRenamed:  "Renamed",
	StatusCopied:   "Copied",
}

// String returns the display label, or "Unknown" for passthrough codes.
func (s ChangeStatus) String() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return "Unknown"
}

// FileChange is one entry of a name-status listing.
type FileChange struct {
	Status ChangeStatus `json:"status"`
	// Code is the raw backend status code, e.g. "M" or "R087".
	Code    string `json:"code"`
	Path    string `json:"path"`
	OldPath string `json:"old_path,omitempty"` // rename/copy source
	Score   int    `json:"score,omitempty"`    // similarity percentage for renames/copies
}

// Label returns the human label, falling back to the raw code for
// statuses that are not recognised.
func (c FileChange) Label() string {
	if c.Status == StatusUnknown {
		return c.Code
	}
	return c.Status.String()
}

// DisplayPath renders renames and copies as "old → new".
func (c FileChange) DisplayPath() string {
	if c.OldPath != "" && c.OldPath != c.Path {
		return c.OldPath + " → " + c.Path
	}
	return c.Path
}

// ParseStatusCode maps a backend status code to a ChangeStatus.
// Renames and copies carry a similarity score ("R100"); it is returned
// separately. Unrecognised codes yield StatusUnknown.
func ParseStatusCode(code string) (ChangeStatus, int) {
	switch code {
	case "A":
		return StatusAdded, 0
	case "M":
		return StatusModified, 0
	case "D":
		return StatusDeleted, 0
	}
	if len(code) == 0 {
		return StatusUnknown, 0
	}
	var st ChangeStatus
	switch code[0] {
	case 'R':
		st = StatusRenamed
	case 'C':
		st = StatusCopied
	default:
		return StatusUnknown, 0
	}
	if len(code) == 1 {
		return st, 0
	}
	score, err := strconv.Atoi(code[1:])
	if err != nil {
		return StatusUnknown, 0
	}
	return st, score
}

// ParseStatusLabel is the inverse of FileChange.Label.
func ParseStatusLabel(label string) (ChangeStatus, string) {
	for st, l := range statusLabels {
		if strings.EqualFold(l, label) {
			return st, statusCodes[st]
		}
	}
	return StatusUnknown, label
}

var statusCodes = map[ChangeStatus]string{
	StatusAdded:    "A",
	StatusModified: "M",
	StatusDeleted:  "D",
	StatusRenamed:  "R",
	StatusCopied:   "C",
}
