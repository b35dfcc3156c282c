package holded

import (
	"context"
	"strings"

	"github.com/solucions-socials/platform/pkg/common/logger"
)

// PageFetcher returns one page of results. Pages start at 1.
type PageFetcher[T any] func(ctx context.Context, page, limit int) ([]T, error)

// PageFailureMode decides what a failing page does to a walk.
type PageFailureMode int

const (
	// PageFailureBestEffort stops the walk and returns what was collected so far.
	PageFailureBestEffort PageFailureMode = iota
	// PageFailureFailFast aborts the walk with the page error.
	PageFailureFailFast
)

func ParsePageFailureMode(s string) PageFailureMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail_fast", "fail-fast", "failfast":
		return PageFailureFailFast
	default:
		return PageFailureBestEffort
	}
}

func (m PageFailureMode) String() string {
	if m == PageFailureFailFast {
		return "fail_fast"
	}
	return "best_effort"
}

type PageOptions struct {
	PageSize  int
	MaxPages  int
	OnFailure PageFailureMode
	// Resource names the walked collection in logs.
	Resource string
}

const (
	DefaultPageSize = 100
	DefaultMaxPages = 1000
)

// FetchAllPages walks pages until one comes back shorter than the page size.
func FetchAllPages[T any](ctx context.Context, fetch PageFetcher[T], opts PageOptions) ([]T, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var all []T
	for page := 1; page <= maxPages; page++ {
		items, err := fetch(ctx, page, pageSize)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return all, ctxErr
			}
			if opts.OnFailure == PageFailureFailFast {
				return all, err
			}
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"resource":  opts.Resource,
				"page":      page,
				"collected": len(all),
			}).Warn("page fetch failed, returning partial results")
			return all, nil
		}

		all = append(all, items...)
		if len(items) < pageSize {
			return all, nil
		}
	}

	logger.Log.WithFields(map[string]interface{}{
		"resource":  opts.Resource,
		"max_pages": maxPages,
		"collected": len(all),
	}).Warn("page limit reached, stopping walk")
	return all, nil
}
