package vcs

import (
	"strings"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// commitFormat is the pretty format requested for commit metadata.
const commitFormat = "%H|%an|%ae|%ad|%s"

// logFormat is the pretty format requested for the recent log.
const logFormat = "%H|%s"

// parseCommitInfo parses one "hash|author|email|date|subject" record from
// the last non-blank line of out. The subject may itself contain pipes; it
// keeps everything after the fourth separator.
func parseCommitInfo(out string) (*models.CommitInfo, error) {
	line := strings.TrimSpace(out)
	if i := strings.LastIndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[i+1:])
	}
	parts := strings.SplitN(line, "|", 5)
	if len(parts) < 5 {
		return nil, queryErrorf(opCommitInfo, "malformed commit metadata: expected 5 fields, got %d", len(parts))
	}
	return &models.CommitInfo{
		Hash:    parts[0],
		Author:  parts[1],
		Email:   parts[2],
		Date:    parts[3],
		Message: parts[4],
	}, nil
}

// parseNameStatus parses NUL-terminated name-status output (-z): a status
// code followed by one path, or two for renames and copies. Paths are
// taken verbatim, so tabs, quotes and newlines in names survive.
func parseNameStatus(out string) []models.FileChange {
	changes := make([]models.FileChange, 0)
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); {
		code := strings.TrimSpace(fields[i])
		i++
		if code == "" {
			continue
		}

		status, score := models.ParseStatusCode(code)
		change := models.FileChange{Status: status, Code: code, Score: score}
		if code[0] == 'R' || code[0] == 'C' {
			if i < len(fields) {
				change.OldPath = fields[i]
				i++
			}
		}
		if i < len(fields) {
			change.Path = fields[i]
			i++
		}
		changes = append(changes, change)
	}
	return changes
}

// parseLog parses "hash|subject" lines.
func parseLog(out string) []models.LogEntry {
	entries := make([]models.LogEntry, 0)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		entry := models.LogEntry{Hash: parts[0]}
		if len(parts) > 1 {
			entry.Message = parts[1]
		}
		entries = append(entries, entry)
	}
	return entries
}
