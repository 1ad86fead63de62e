package query

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"syslog-collector/internal/storage"
	"syslog-collector/internal/utils"

	"github.com/sirupsen/logrus"
)

// Time-range selector values accepted in Criteria.DateRange.
const (
	RangeNone       = ""
	RangeToday      = "today"
	RangeYesterday  = "yesterday"
	RangeLast7Days  = "last_7_days"
	RangeLast30Days = "last_30_days"
	RangeCustom     = "custom"
)

// Criteria carries user-supplied filter input, as it arrives from query
// parameters. Invalid individual terms are skipped, not fatal; the one
// exception is a custom time range with future bounds, which invalidates the
// whole query.
type Criteria struct {
	SourceIPs      []string
	DestinationIPs []string
	DestPort       string
	Action         string
	Firewall       string

	DateRange string
	FromDate  string
	FromTime  string
	ToDate    string
	ToTime    string
}

const customDateLayout = "2006-01-02 15:04"

// buildFilter translates criteria into a store filter. The returned bool is
// false when a custom time range is invalid (unparseable or in the future).
func buildFilter(c Criteria, now time.Time, logger *logrus.Logger) (storage.RecordFilter, bool) {
	filter := storage.RecordFilter{
		Action:   c.Action,
		Firewall: c.Firewall,
	}

	filter.Source = ipTerms(c.SourceIPs, logger)
	filter.Destination = ipTerms(c.DestinationIPs, logger)

	if c.DestPort != "" {
		if port, err := strconv.Atoi(c.DestPort); err == nil && port >= 0 && port <= 65535 {
			filter.DestinationPort = &port
		} else {
			logger.Warnf("Ignoring invalid destination port filter %q", c.DestPort)
		}
	}

	switch c.DateRange {
	case RangeNone:
	case RangeToday:
		from := truncateToDay(now)
		filter.From = &from
		filter.To = &now
	case RangeYesterday:
		// The store's upper bound is inclusive; back off a step so a record
		// stamped exactly midnight today stays out of yesterday.
		from := truncateToDay(now.AddDate(0, 0, -1))
		to := truncateToDay(now).Add(-time.Nanosecond)
		filter.From = &from
		filter.To = &to
	case RangeLast7Days:
		from := now.AddDate(0, 0, -7)
		filter.From = &from
		filter.To = &now
	case RangeLast30Days:
		from := now.AddDate(0, 0, -30)
		filter.From = &from
		filter.To = &now
	case RangeCustom:
		from, to, err := resolveCustomRange(c, now)
		if err != nil {
			logger.Warnf("Invalid custom time range: %v", err)
			return filter, false
		}
		if from.After(now) || to.After(now) {
			logger.Warnf("Custom time range reaches into the future: from=%s to=%s", from, to)
			return filter, false
		}
		filter.From = &from
		filter.To = &to
	default:
		logger.Warnf("Ignoring unknown date range selector %q", c.DateRange)
	}

	return filter, true
}

func ipTerms(values []string, logger *logrus.Logger) []storage.IPTerm {
	var terms []storage.IPTerm
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if strings.Contains(v, "/") {
			_, cidr, err := net.ParseCIDR(v)
			if err != nil {
				logger.Warnf("Ignoring invalid CIDR filter %q", v)
				continue
			}
			lo, hi := utils.CIDRRange(cidr)
			terms = append(terms, storage.IPTerm{Lo: lo, Hi: hi})
			continue
		}
		ip := net.ParseIP(v)
		if ip == nil {
			logger.Warnf("Ignoring invalid IP filter %q", v)
			continue
		}
		terms = append(terms, storage.IPTerm{Exact: utils.IPKey(ip)})
	}
	return terms
}

func resolveCustomRange(c Criteria, now time.Time) (time.Time, time.Time, error) {
	if c.FromDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("custom range requires from_date")
	}

	fromTime := c.FromTime
	if fromTime == "" {
		fromTime = "00:00"
	}
	from, err := time.Parse(customDateLayout, c.FromDate+" "+fromTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad from bound: %w", err)
	}

	to := now
	if c.ToDate != "" {
		toTime := c.ToTime
		if toTime == "" {
			toTime = "23:59"
		}
		to, err = time.Parse(customDateLayout, c.ToDate+" "+toTime)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad to bound: %w", err)
		}
	}

	return from, to, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
