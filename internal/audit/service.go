package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/actions-audit/internal/actions"
	"github.com/temirov/actions-audit/internal/codesearch"
)

const (
	fragmentLineSeparatorConstant            = "\n"
	collectorNotConfiguredMessageConstant    = "item collector not configured"
	outputWriterNotConfiguredMessageConstant = "output writer not configured"
	organizationRequiredMessageConstant      = "organization must be provided"
	collectItemsErrorTemplateConstant        = "unable to search organization %s: %w"
	writeFindingErrorTemplateConstant        = "unable to write finding: %w"
	auditStartedMessageConstant              = "auditing workflow action references"
	auditCompletedMessageConstant            = "audit complete"
	malformedReferenceMessageConstant        = "skipping malformed action reference"
	logFieldOrganizationConstant             = "organization"
	logFieldTrustedCountConstant             = "trusted_count"
	logFieldItemCountConstant                = "item_count"
	logFieldFindingCountConstant             = "finding_count"
	logFieldMalformedLineCountConstant       = "malformed_line_count"
	logFieldRepositoryConstant               = "repository"
	logFieldPathConstant                     = "path"
)

var (
	// ErrCollectorNotConfigured indicates the service was constructed without an item collector.
	ErrCollectorNotConfigured = errors.New(collectorNotConfiguredMessageConstant)
	// ErrOutputWriterNotConfigured indicates the service was constructed without an output writer.
	ErrOutputWriterNotConfigured = errors.New(outputWriterNotConfiguredMessageConstant)
	// ErrOrganizationRequired indicates the audit was started without an organization.
	ErrOrganizationRequired = errors.New(organizationRequiredMessageConstant)
)

// Service searches an organization for workflow action references and reports untrusted ones.
type Service struct {
	logger       *zap.Logger
	collector    ItemCollector
	outputWriter io.Writer
}

// NewService constructs a Service using the provided dependencies.
func NewService(logger *zap.Logger, collector ItemCollector, outputWriter io.Writer) (*Service, error) {
	if collector == nil {
		return nil, ErrCollectorNotConfigured
	}
	if outputWriter == nil {
		return nil, ErrOutputWriterNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, collector: collector, outputWriter: outputWriter}, nil
}

// Run collects every search hit for the organization and writes one line per untrusted action reference.
func (service *Service) Run(executionContext context.Context, options CommandOptions) (Summary, error) {
	organization := strings.TrimSpace(options.Organization)
	if len(organization) == 0 {
		return Summary{}, ErrOrganizationRequired
	}

	trustSet := actions.NewTrustSet(options.Trusted)
	service.logger.Info(
		auditStartedMessageConstant,
		zap.String(logFieldOrganizationConstant, organization),
		zap.Int(logFieldTrustedCountConstant, trustSet.Len()),
	)

	items, collectError := service.collector.CollectItems(executionContext, organization)
	if collectError != nil {
		return Summary{}, fmt.Errorf(collectItemsErrorTemplateConstant, organization, collectError)
	}

	summary, reportError := service.ReportItems(items, trustSet)
	if reportError != nil {
		return summary, reportError
	}

	service.logger.Info(
		auditCompletedMessageConstant,
		zap.String(logFieldOrganizationConstant, organization),
		zap.Int(logFieldItemCountConstant, summary.ItemCount),
		zap.Int(logFieldFindingCountConstant, summary.FindingCount),
		zap.Int(logFieldMalformedLineCountConstant, summary.MalformedLineCount),
	)

	return summary, nil
}

// ReportItems writes findings in item, match, then line order. Nothing is sorted or deduplicated.
func (service *Service) ReportItems(items []codesearch.Item, trustSet actions.TrustSet) (Summary, error) {
	summary := Summary{ItemCount: len(items)}

	for _, item := range items {
		for _, textMatch := range item.TextMatches {
			for _, line := range strings.Split(textMatch.Fragment, fragmentLineSeparatorConstant) {
				if !actions.UsesNonLocalAction(line) {
					continue
				}

				reference, parseError := actions.ParseActionReference(line)
				if parseError != nil {
					summary.MalformedLineCount++
					service.logger.Warn(
						malformedReferenceMessageConstant,
						zap.String(logFieldRepositoryConstant, item.Repository.FullName),
						zap.String(logFieldPathConstant, item.Path),
						zap.Error(parseError),
					)
					continue
				}

				if !trustSet.IsUntrusted(reference.Namespace) {
					continue
				}

				finding := Finding{
					Repository: item.Repository.FullName,
					Namespace:  reference.Namespace,
					ActionName: reference.Name,
					Path:       item.Path,
				}
				if _, writeError := fmt.Fprintln(service.outputWriter, finding.String()); writeError != nil {
					return summary, fmt.Errorf(writeFindingErrorTemplateConstant, writeError)
				}
				summary.FindingCount++
			}
		}
	}

	return summary, nil
}
