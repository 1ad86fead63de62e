package query

import (
	"context"
	"time"

	"syslog-collector/internal/model"
	"syslog-collector/internal/storage"

	"github.com/sirupsen/logrus"
)

// Status distinguishes the outcomes a page can carry beyond its records.
type Status string

const (
	StatusOK           Status = "ok"
	StatusInvalidRange Status = "invalid_range"
	StatusUnavailable  Status = "store_unavailable"
)

// RecordPage is one page of a filtered listing.
type RecordPage struct {
	Records     []model.TrafficRecord `json:"records"`
	TotalCount  int64                 `json:"total_count"`
	Page        int                   `json:"page"`
	TotalPages  int                   `json:"total_pages"`
	HasPrevious bool                  `json:"has_previous"`
	HasNext     bool                  `json:"has_next"`
	Status      Status                `json:"status"`
}

// AggregatePage is one page of composite aggregation buckets.
type AggregatePage struct {
	Buckets    []storage.AggregateBucket `json:"buckets"`
	TotalCount int64                     `json:"total_count"`
	Page       int                       `json:"page"`
	HasNext    bool                      `json:"has_next"`
	Status     Status                    `json:"status"`
}

// Engine serves filtered, paginated and aggregated views over the record
// store. It is read-only; ingestion writes never pass through here.
type Engine struct {
	store             *storage.Store
	logger            *logrus.Logger
	recordPageSize    int
	aggregatePageSize int
	timeout           time.Duration

	// now is swappable for tests of the time-range selectors.
	now func() time.Time
}

func NewEngine(store *storage.Store, logger *logrus.Logger, recordPageSize, aggregatePageSize int, timeout time.Duration) *Engine {
	return &Engine{
		store:             store,
		logger:            logger,
		recordPageSize:    recordPageSize,
		aggregatePageSize: aggregatePageSize,
		timeout:           timeout,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// ListRecords returns the requested page of matching records, newest first.
// Out-of-range page numbers clamp to the valid range; a future custom time
// range yields a distinguished invalid-range result.
func (e *Engine) ListRecords(ctx context.Context, criteria Criteria, page int) RecordPage {
	result := RecordPage{
		Records: []model.TrafficRecord{},
		Page:    1,
		Status:  StatusOK,
	}

	filter, ok := buildFilter(criteria, e.now(), e.logger)
	if !ok {
		result.TotalPages = 1
		result.Status = StatusInvalidRange
		return result
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	total, err := e.store.Count(queryCtx, filter)
	if err != nil {
		e.logger.Errorf("Record count failed: %v", err)
		result.TotalPages = 1
		result.Status = StatusUnavailable
		return result
	}

	totalPages := int((total + int64(e.recordPageSize) - 1) / int64(e.recordPageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	page = clampPage(page, totalPages)

	records, _, err := e.store.Search(queryCtx, filter, (page-1)*e.recordPageSize, e.recordPageSize)
	if err != nil {
		e.logger.Errorf("Record search failed: %v", err)
		result.TotalPages = 1
		result.Status = StatusUnavailable
		return result
	}

	result.Records = records
	result.TotalCount = total
	result.Page = page
	result.TotalPages = totalPages
	result.HasPrevious = page > 1
	result.HasNext = page < totalPages
	return result
}

// AggregateRecords returns the requested page of composite aggregation
// buckets. The cursor scheme walks forward from the first page accumulating
// an after-key per step, so reaching page N costs N store round trips;
// callers wanting depth should narrow the filter instead. A page past the
// last bucket comes back empty, not as an error.
func (e *Engine) AggregateRecords(ctx context.Context, criteria Criteria, page int) AggregatePage {
	result := AggregatePage{
		Buckets: []storage.AggregateBucket{},
		Status:  StatusOK,
	}

	if page < 1 {
		page = 1
	}
	result.Page = page

	filter, ok := buildFilter(criteria, e.now(), e.logger)
	if !ok {
		result.Status = StatusInvalidRange
		return result
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	total, err := e.store.Count(queryCtx, filter)
	if err != nil {
		e.logger.Errorf("Aggregate count failed: %v", err)
		result.Status = StatusUnavailable
		return result
	}
	result.TotalCount = total

	var afterKey *storage.BucketKey
	for step := 1; step <= page; step++ {
		buckets, next, err := e.store.Aggregate(queryCtx, filter, afterKey, e.aggregatePageSize)
		if err != nil {
			e.logger.Errorf("Aggregation failed: %v", err)
			result.Status = StatusUnavailable
			return result
		}

		if step == page {
			result.Buckets = buckets
			result.HasNext = next != nil
			return result
		}

		if len(buckets) == 0 || next == nil {
			// The walk ran out before the requested page.
			return result
		}
		afterKey = next
	}

	return result
}

func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
