package audit

import (
	"fmt"

	"github.com/temirov/actions-audit/internal/actions"
)

const findingLineTemplateConstant = "%s: %s \"%s\""

// CommandOptions captures the parameters for a single audit run.
type CommandOptions struct {
	Organization string
	Trusted      []string
}

// Finding describes one reference to an action published under an untrusted namespace.
type Finding struct {
	Repository string
	Namespace  string
	ActionName string
	Path       string
}

// String renders the finding as `<repo>: <namespace>/<action> "<path>"`.
func (finding Finding) String() string {
	reference := actions.ActionReference{Namespace: finding.Namespace, Name: finding.ActionName}
	return fmt.Sprintf(findingLineTemplateConstant, finding.Repository, reference, finding.Path)
}

// Summary reports what an audit run examined and found.
type Summary struct {
	ItemCount          int
	FindingCount       int
	MalformedLineCount int
}
