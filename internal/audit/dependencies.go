package audit

import (
	"context"

	"github.com/temirov/actions-audit/internal/codesearch"
)

// ItemCollector retrieves every code search hit for an organization.
type ItemCollector interface {
	CollectItems(executionContext context.Context, organization string) ([]codesearch.Item, error)
}
