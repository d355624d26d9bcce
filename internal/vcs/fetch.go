package vcs

import (
	"context"
	"log/slog"

	"github.com/kilupskalvis/commitdiff/internal/models"
)

// FetchChangeList runs the name-status query and folds a failure into an
// empty list. The failure is logged, not returned, so callers cannot tell
// "no changes" from "query failed"; use Backend.ChangeList when that
// distinction matters.
func FetchChangeList(ctx context.Context, b Backend, logger *slog.Logger, ref1, ref2 string) []models.FileChange {
	changes, err := b.ChangeList(ctx, ref1, ref2)
	if err != nil {
		logger.Warn("change list unavailable", "from", ref1, "to", ref2, "error", err)
		return []models.FileChange{}
	}
	return changes
}
