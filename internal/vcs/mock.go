package vcs

import (
	"context"
	"sync"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// MockBackend is a mock implementation of Backend for testing.
// It is safe for concurrent use.
type MockBackend struct {
	// Commits stores commit metadata by reference
	Commits map[string]*models.CommitInfo
	// Changes, Stats and Diffs are keyed by "ref1..ref2"
	Changes map[string][]models.FileChange
	Stats   map[string]string
	Diffs   map[string]string
	Log     []models.LogEntry

	// Per-query errors; CommitInfoErr is keyed by reference
	CommitInfoErr  map[string]error
	ChangeListErr  error
	DiffStatErr    error
	UnifiedDiffErr error
	RecentLogErr   error

	mu          sync.Mutex
	calls       map[string]int
	LastDiffOpt DiffOptions
}

// NewMockBackend creates an empty MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Commits:       make(map[string]*models.CommitInfo),
		Changes:       make(map[string][]models.FileChange),
		Stats:         make(map[string]string),
		Diffs:         make(map[string]string),
		CommitInfoErr: make(map[string]error),
		calls:         make(map[string]int),
	}
}

// AddCommit registers commit metadata under one or more references.
func (m *MockBackend) AddCommit(info *models.CommitInfo, refs ...string) {
	m.Commits[info.Hash] = info
	for _, ref := range refs {
		m.Commits[ref] = info
	}
}

// SetRange registers the answers for a range query.
func (m *MockBackend) SetRange(ref1, ref2 string, changes []models.FileChange, stat, diff string) {
	key := rangeArg(ref1, ref2)
	m.Changes[key] = changes
	m.Stats[key] = stat
	m.Diffs[key] = diff
}

// Calls returns how often the named query ran.
func (m *MockBackend) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *MockBackend) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
}

// CommitInfo returns the registered commit or an unknown-revision error.
func (m *MockBackend) CommitInfo(ctx context.Context, ref string) (*models.CommitInfo, error) {
	m.record(opCommitInfo)
	if err := m.CommitInfoErr[ref]; err != nil {
		return nil, err
	}
	info, ok := m.Commits[ref]
	if !ok {
		return nil, queryErrorf(opCommitInfo, "fatal: ambiguous argument '%s': unknown revision", ref)
	}
	c := *info
	return &c, nil
}

// DiffStat returns the registered stat text.
func (m *MockBackend) DiffStat(ctx context.Context, ref1, ref2 string) (string, error) {
	m.record(opDiffStat)
	if m.DiffStatErr != nil {
		return "", m.DiffStatErr
	}
	return m.Stats[rangeArg(ref1, ref2)], nil
}

// ChangeList returns a copy of the registered changes, empty if none.
func (m *MockBackend) ChangeList(ctx context.Context, ref1, ref2 string) ([]models.FileChange, error) {
	m.record(opChangeList)
	if m.ChangeListErr != nil {
		return nil, m.ChangeListErr
	}
	changes := m.Changes[rangeArg(ref1, ref2)]
	out := make([]models.FileChange, len(changes))
	copy(out, changes)
	return out, nil
}

// UnifiedDiff returns the registered patch text.
func (m *MockBackend) UnifiedDiff(ctx context.Context, ref1, ref2 string, opts DiffOptions) (string, error) {
	m.record(opUnifiedDiff)
	m.mu.Lock()
	m.LastDiffOpt = opts
	m.mu.Unlock()
	if m.UnifiedDiffErr != nil {
		return "", m.UnifiedDiffErr
	}
	return m.Diffs[rangeArg(ref1, ref2)], nil
}

// RecentLog returns at most count registered entries.
func (m *MockBackend) RecentLog(ctx context.Context, count int) ([]models.LogEntry, error) {
	m.record(opRecentLog)
	if m.RecentLogErr != nil {
		return nil, m.RecentLogErr
	}
	if count > len(m.Log) {
		count = len(m.Log)
	}
	if count < 0 {
		count = 0
	}
	out := make([]models.LogEntry, count)
	copy(out, m.Log[:count])
	return out, nil
}
