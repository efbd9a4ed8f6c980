package interfaces

import (
	"context"

	"github.com/ternarybob/helpsync/internal/models"
)

// RunReporter receives the outcome of a completed sync run. Implementations
// must not fail the run; delivery problems are logged and swallowed.
type RunReporter interface {
	Report(ctx context.Context, report *models.RunReport)
}
