package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatusCode(t *testing.T) {
	tests := []struct {
		code      string
		wantState ChangeStatus
		wantScore int
	}{
		{"A", StatusAdded, 0},
		{"M", StatusModified, 0},
		{"D", StatusDeleted, 0},
		{"R", StatusRenamed, 0},
		{"R087", StatusRenamed, 87},
		{"C100", StatusCopied, 100},
		{"T", StatusUnknown, 0},
		{"U", StatusUnknown, 0},
		{"Rxx", StatusUnknown, 0},
		{"", StatusUnknown, 0},
	}
	for _, tt := range tests {
		st, score := ParseStatusCode(tt.code)
		assert.Equal(t, tt.wantState, st, "code %q", tt.code)
		assert.Equal(t, tt.wantScore, score, "code %q", tt.code)
	}
}

func TestFileChange_LabelPassthrough(t *testing.T) {
	c := FileChange{Status: StatusUnknown, Code: "T", Path: "link"}
	assert.Equal(t, "T", c.Label())

	c = FileChange{Status: StatusModified, Code: "M", Path: "main.go"}
	assert.Equal(t, "Modified", c.Label())
}

func TestFileChange_DisplayPath(t *testing.T) {
	c := FileChange{Status: StatusRenamed, Code: "R100", OldPath: "a.go", Path: "b.go"}
	assert.Equal(t, "a.go → b.go", c.DisplayPath())

	c = FileChange{Status: StatusAdded, Code: "A", Path: "new.go"}
	assert.Equal(t, "new.go", c.DisplayPath())
}

func TestParseStatusLabel(t *testing.T) {
	st, code := ParseStatusLabel("Deleted")
	assert.Equal(t, StatusDeleted, st)
	assert.Equal(t, "D", code)

	st, code = ParseStatusLabel("X")
	assert.Equal(t, StatusUnknown, st)
	assert.Equal(t, "X", code)
}

func TestComparisonResult_Shorts(t *testing.T) {
	r := &ComparisonResult{
		FromRef: "HEAD~2",
		ToRef:   "0123456789abcdef",
		From:    &CommitInfo{Hash: "fedcba9876543210fedcba9876543210fedcba98"},
	}
	assert.Equal(t, "fedcba98", r.FromShort())
	assert.Equal(t, "01234567", r.ToShort())
	assert.False(t, r.HasChanges())
	assert.False(t, r.Complete())

	r.Changes = []FileChange{}
	assert.True(t, r.HasChanges())
	assert.Equal(t, 0, r.TotalChanges())
}
