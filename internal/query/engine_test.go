package query

import (
	"context"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"syslog-collector/internal/model"
	"syslog-collector/internal/storage"
	"syslog-collector/internal/utils"
)

func newTestEngine(t *testing.T, recordPageSize, aggregatePageSize int) (*Engine, *storage.Store) {
	t.Helper()
	logger := utils.NewLogger("ERROR", "")
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewEngine(store, logger, recordPageSize, aggregatePageSize, 5*time.Second), store
}

func insertRecord(t *testing.T, store *storage.Store, ts time.Time, srcIP, action string) {
	t.Helper()
	key := utils.IPKey(net.ParseIP(srcIP))
	record := &model.TrafficRecord{
		Timestamp:   &ts,
		SourceIP:    &srcIP,
		SourceIPKey: &key,
		Action:      &action,
		RawMessage:  "test message",
		ReceivedAt:  ts,
	}
	if err := store.Insert(context.Background(), record); err != nil {
		t.Fatalf("expected insert to succeed, got %v", err)
	}
}

func TestListRecordsClampsPageNumbers(t *testing.T) {
	engine, store := newTestEngine(t, 2, 20)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		insertRecord(t, store, base.Add(time.Duration(i)*time.Minute), "10.0.0.1", "accept")
	}

	tests := []struct {
		name        string
		requested   int
		wantPage    int
		wantLen     int
		wantHasPrev bool
		wantHasNext bool
	}{
		{"zero clamps to first", 0, 1, 2, false, true},
		{"negative clamps to first", -3, 1, 2, false, true},
		{"beyond end clamps to last", 99, 2, 1, true, false},
		{"valid page passes through", 2, 2, 1, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := engine.ListRecords(context.Background(), Criteria{}, tt.requested)
			if page.Status != StatusOK {
				t.Fatalf("expected ok status, got %q", page.Status)
			}
			if page.Page != tt.wantPage {
				t.Fatalf("expected page %d, got %d", tt.wantPage, page.Page)
			}
			if len(page.Records) != tt.wantLen {
				t.Fatalf("expected %d records, got %d", tt.wantLen, len(page.Records))
			}
			if page.HasPrevious != tt.wantHasPrev || page.HasNext != tt.wantHasNext {
				t.Fatalf("expected prev=%v next=%v, got prev=%v next=%v",
					tt.wantHasPrev, tt.wantHasNext, page.HasPrevious, page.HasNext)
			}
			if page.TotalCount != 3 || page.TotalPages != 2 {
				t.Fatalf("expected total 3 over 2 pages, got %d over %d", page.TotalCount, page.TotalPages)
			}
		})
	}
}

func TestListRecordsEmptyStoreReturnsOnePage(t *testing.T) {
	engine, _ := newTestEngine(t, 50, 20)

	page := engine.ListRecords(context.Background(), Criteria{}, 1)
	if page.Status != StatusOK {
		t.Fatalf("expected ok status, got %q", page.Status)
	}
	if page.TotalPages != 1 || page.Page != 1 {
		t.Fatalf("expected single empty page, got page %d of %d", page.Page, page.TotalPages)
	}
	if len(page.Records) != 0 || page.HasNext || page.HasPrevious {
		t.Fatalf("expected empty page without neighbors, got %+v", page)
	}
}

func TestListRecordsRejectsFutureCustomRange(t *testing.T) {
	engine, store := newTestEngine(t, 50, 20)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }
	insertRecord(t, store, now.Add(-time.Hour), "10.0.0.1", "accept")

	criteria := Criteria{
		DateRange: RangeCustom,
		FromDate:  "2026-03-11",
		ToDate:    "2026-03-12",
	}
	page := engine.ListRecords(context.Background(), criteria, 1)
	if page.Status != StatusInvalidRange {
		t.Fatalf("expected invalid range status, got %q", page.Status)
	}
	if len(page.Records) != 0 {
		t.Fatalf("expected no records for invalid range, got %d", len(page.Records))
	}
}

func TestListRecordsRejectsUnparseableCustomRange(t *testing.T) {
	engine, _ := newTestEngine(t, 50, 20)

	criteria := Criteria{
		DateRange: RangeCustom,
		FromDate:  "not-a-date",
	}
	page := engine.ListRecords(context.Background(), criteria, 1)
	if page.Status != StatusInvalidRange {
		t.Fatalf("expected invalid range status, got %q", page.Status)
	}
}

func TestListRecordsDateRangeSelectors(t *testing.T) {
	engine, store := newTestEngine(t, 50, 20)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }

	insertRecord(t, store, now.Add(-time.Hour), "10.0.0.1", "accept")     // today
	insertRecord(t, store, now.Add(-26*time.Hour), "10.0.0.2", "accept")  // yesterday
	insertRecord(t, store, now.AddDate(0, 0, -5), "10.0.0.3", "accept")   // within 7 days
	insertRecord(t, store, now.AddDate(0, 0, -20), "10.0.0.4", "accept")  // within 30 days
	insertRecord(t, store, now.AddDate(0, 0, -40), "10.0.0.5", "accept")  // older

	tests := []struct {
		selector string
		want     int64
	}{
		{RangeToday, 1},
		{RangeYesterday, 1},
		{RangeLast7Days, 3},
		{RangeLast30Days, 4},
		{RangeNone, 5},
	}
	for _, tt := range tests {
		t.Run("range "+tt.selector, func(t *testing.T) {
			page := engine.ListRecords(context.Background(), Criteria{DateRange: tt.selector}, 1)
			if page.Status != StatusOK {
				t.Fatalf("expected ok status, got %q", page.Status)
			}
			if page.TotalCount != tt.want {
				t.Fatalf("expected %d records, got %d", tt.want, page.TotalCount)
			}
		})
	}
}

func TestYesterdayExcludesMidnightToday(t *testing.T) {
	engine, store := newTestEngine(t, 50, 20)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }

	midnight := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	insertRecord(t, store, midnight, "10.0.0.1", "accept")

	page := engine.ListRecords(context.Background(), Criteria{DateRange: RangeYesterday}, 1)
	if page.TotalCount != 0 {
		t.Fatalf("expected a midnight record to fall outside yesterday, got %d", page.TotalCount)
	}

	page = engine.ListRecords(context.Background(), Criteria{DateRange: RangeToday}, 1)
	if page.TotalCount != 1 {
		t.Fatalf("expected a midnight record to count as today, got %d", page.TotalCount)
	}
}

func TestQueriesAgainstClosedStore(t *testing.T) {
	engine, store := newTestEngine(t, 50, 20)
	if err := store.Close(); err != nil {
		t.Fatalf("expected store to close, got %v", err)
	}

	page := engine.ListRecords(context.Background(), Criteria{}, 1)
	if page.Status != StatusUnavailable {
		t.Fatalf("expected unavailable status from closed store, got %q", page.Status)
	}
	if len(page.Records) != 0 || page.TotalCount != 0 {
		t.Fatalf("expected empty page from closed store, got %+v", page)
	}

	agg := engine.AggregateRecords(context.Background(), Criteria{}, 1)
	if agg.Status != StatusUnavailable {
		t.Fatalf("expected unavailable status from closed store, got %q", agg.Status)
	}
	if len(agg.Buckets) != 0 {
		t.Fatalf("expected no buckets from closed store, got %d", len(agg.Buckets))
	}
}

func TestListRecordsSkipsInvalidTermsButKeepsQuery(t *testing.T) {
	engine, store := newTestEngine(t, 50, 20)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	insertRecord(t, store, base, "10.0.0.1", "accept")
	insertRecord(t, store, base, "10.0.0.2", "accept")

	// The bogus address is dropped, leaving the valid term to filter.
	criteria := Criteria{SourceIPs: []string{"not-an-ip", "10.0.0.1"}}
	page := engine.ListRecords(context.Background(), criteria, 1)
	if page.Status != StatusOK {
		t.Fatalf("expected ok status, got %q", page.Status)
	}
	if page.TotalCount != 1 {
		t.Fatalf("expected the valid term to match one record, got %d", page.TotalCount)
	}
}

func TestAggregateRecordsWalksToRequestedPage(t *testing.T) {
	engine, store := newTestEngine(t, 50, 2)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		insertRecord(t, store, base, fmt.Sprintf("10.0.0.%d", i), "accept")
	}

	page := engine.AggregateRecords(context.Background(), Criteria{}, 3)
	if page.Status != StatusOK {
		t.Fatalf("expected ok status, got %q", page.Status)
	}
	if page.Page != 3 {
		t.Fatalf("expected page 3, got %d", page.Page)
	}
	if len(page.Buckets) != 1 {
		t.Fatalf("expected 1 bucket on the final page, got %d", len(page.Buckets))
	}
	if page.Buckets[0].Key.SourceIP != "10.0.0.5" {
		t.Fatalf("expected the last bucket, got %s", page.Buckets[0].Key.SourceIP)
	}
	if page.HasNext {
		t.Fatalf("expected no further pages")
	}
}

func TestAggregateRecordsPastEndIsEmptyNotError(t *testing.T) {
	engine, store := newTestEngine(t, 50, 2)
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		insertRecord(t, store, base, fmt.Sprintf("10.0.0.%d", i), "accept")
	}

	page := engine.AggregateRecords(context.Background(), Criteria{}, 10)
	if page.Status != StatusOK {
		t.Fatalf("expected ok status past the end, got %q", page.Status)
	}
	if len(page.Buckets) != 0 {
		t.Fatalf("expected empty page past the end, got %d buckets", len(page.Buckets))
	}
	if page.HasNext {
		t.Fatalf("expected no next page past the end")
	}
}
