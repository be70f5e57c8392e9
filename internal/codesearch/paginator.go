package codesearch

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	pageFetchErrorTemplateConstant      = "unable to fetch page %d: %w"
	fetcherNotConfiguredMessageConstant = "page fetcher not configured"
	pageLimitReachedMessageConstant     = "page limit reached before an empty page, results may be truncated"
	incompleteResultsMessageConstant    = "code search reported incomplete results"
	paginationCompleteMessageConstant   = "code search pagination complete"
	logFieldMaxPagesConstant            = "max_pages"
	logFieldTotalCountConstant          = "total_count"
	logFieldPageCountConstant           = "page_count"
	logFieldOrganizationConstant        = "organization"
)

// PageFetcher retrieves a single page of search results.
type PageFetcher interface {
	FetchPage(executionContext context.Context, organization string, pageNumber int) (Page, error)
}

// Paginator accumulates search items across pages until the API returns an empty page.
type Paginator struct {
	logger   *zap.Logger
	fetcher  PageFetcher
	maxPages int
}

// NewPaginator constructs a Paginator. maxPages <= 0 disables the page cap.
func NewPaginator(logger *zap.Logger, fetcher PageFetcher, maxPages int) (*Paginator, error) {
	if fetcher == nil {
		return nil, errors.New(fetcherNotConfiguredMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Paginator{logger: logger, fetcher: fetcher, maxPages: maxPages}, nil
}

// CollectItems walks pages starting at 1 and returns every item in page order.
// Items are not deduplicated; a result set that shifts between requests may repeat or skip items.
func (paginator *Paginator) CollectItems(executionContext context.Context, organization string) ([]Item, error) {
	collectedItems := []Item{}
	pageNumber := firstPageNumberConstant

	for {
		if paginator.maxPages > 0 && pageNumber > paginator.maxPages {
			paginator.logger.Warn(
				pageLimitReachedMessageConstant,
				zap.String(logFieldOrganizationConstant, organization),
				zap.Int(logFieldMaxPagesConstant, paginator.maxPages),
			)
			break
		}

		page, fetchError := paginator.fetcher.FetchPage(executionContext, organization, pageNumber)
		if fetchError != nil {
			return nil, fmt.Errorf(pageFetchErrorTemplateConstant, pageNumber, fetchError)
		}

		if page.IncompleteResults {
			paginator.logger.Warn(
				incompleteResultsMessageConstant,
				zap.Int(logFieldPageConstant, pageNumber),
				zap.Int(logFieldTotalCountConstant, page.TotalCount),
			)
		}

		if len(page.Items) == 0 {
			break
		}

		collectedItems = append(collectedItems, page.Items...)
		pageNumber++
	}

	paginator.logger.Debug(
		paginationCompleteMessageConstant,
		zap.String(logFieldOrganizationConstant, organization),
		zap.Int(logFieldPageCountConstant, pageNumber-firstPageNumberConstant),
		zap.Int(logFieldItemCountConstant, len(collectedItems)),
	)

	return collectedItems, nil
}
