package storage

import (
	"context"
	"fmt"
	"strings"
)

// BucketKey identifies one composite aggregation bucket. All dimensions are
// carried as text (ports included) so the tuple has a single total order for
// the cursor comparison; missing dimensions collapse to "".
type BucketKey struct {
	Day             string `json:"day"`
	DeviceID        string `json:"device_id"`
	SourceIP        string `json:"source_ip"`
	DestinationIP   string `json:"destination_ip"`
	DestinationPort string `json:"destination_port"`
	InterfaceIn     string `json:"interface_in"`
	InterfaceOut    string `json:"interface_out"`
	Protocol        string `json:"protocol"`
	Service         string `json:"service"`
	Action          string `json:"action"`
	AppCategory     string `json:"app_category"`
}

// AggregateBucket is one group with its computed metrics.
type AggregateBucket struct {
	Key BucketKey `json:"key"`

	SumBytesSent       int64   `json:"sum_bytes_sent"`
	AvgBytesSent       float64 `json:"avg_bytes_sent"`
	SumBytesReceived   int64   `json:"sum_bytes_received"`
	AvgBytesReceived   float64 `json:"avg_bytes_received"`
	SumPacketsSent     int64   `json:"sum_packets_sent"`
	AvgPacketsSent     float64 `json:"avg_packets_sent"`
	SumPacketsReceived int64   `json:"sum_packets_received"`
	AvgPacketsReceived float64 `json:"avg_packets_received"`
	SumDuration        float64 `json:"sum_duration"`
	AvgDuration        float64 `json:"avg_duration"`
	SessionCount       int64   `json:"session_count"`
}

// dimExprs maps each bucket dimension to its SQL expression, in cursor order.
var dimExprs = []struct {
	alias string
	expr  string
}{
	{"dim_day", "IFNULL(strftime('%Y-%m-%d', timestamp), '')"},
	{"dim_devid", "IFNULL(device_id, '')"},
	{"dim_srcip", "IFNULL(source_ip, '')"},
	{"dim_dstip", "IFNULL(destination_ip, '')"},
	{"dim_dstport", "IFNULL(CAST(destination_port AS TEXT), '')"},
	{"dim_srcintf", "IFNULL(interface_in, '')"},
	{"dim_dstintf", "IFNULL(interface_out, '')"},
	{"dim_proto", "IFNULL(protocol, '')"},
	{"dim_service", "IFNULL(service, '')"},
	{"dim_action", "IFNULL(action, '')"},
	{"dim_appcat", "IFNULL(app_category, '')"},
}

func (k *BucketKey) values() []interface{} {
	return []interface{}{
		k.Day, k.DeviceID, k.SourceIP, k.DestinationIP, k.DestinationPort,
		k.InterfaceIn, k.InterfaceOut, k.Protocol, k.Service, k.Action, k.AppCategory,
	}
}

// filterSQL renders filter as a WHERE fragment for raw queries. An empty
// fragment means no predicate.
func filterSQL(filter RecordFilter) (string, []interface{}) {
	var parts []string
	var args []interface{}

	if clause, clauseArgs := ipTermClause("source_ip_key", filter.Source); clause != "" {
		parts = append(parts, clause)
		args = append(args, clauseArgs...)
	}
	if clause, clauseArgs := ipTermClause("destination_ip_key", filter.Destination); clause != "" {
		parts = append(parts, clause)
		args = append(args, clauseArgs...)
	}
	if filter.DestinationPort != nil {
		parts = append(parts, "destination_port = ?")
		args = append(args, *filter.DestinationPort)
	}
	if filter.Action != "" {
		parts = append(parts, "LOWER(action) = LOWER(?)")
		args = append(args, filter.Action)
	}
	if filter.Firewall != "" {
		parts = append(parts, "firewall_name = ?")
		args = append(args, filter.Firewall)
	}
	if filter.From != nil {
		parts = append(parts, "timestamp >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		parts = append(parts, "timestamp <= ?")
		args = append(args, *filter.To)
	}

	if len(parts) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(parts, " AND "), args
}

// Aggregate returns up to size buckets grouped by the fixed dimension tuple,
// resuming after afterKey when given. The second return is the cursor for the
// next page, nil when this page was short (no further pages exist).
func (s *Store) Aggregate(ctx context.Context, filter RecordFilter, afterKey *BucketKey, size int) ([]AggregateBucket, *BucketKey, error) {
	aliases := make([]string, len(dimExprs))
	selects := make([]string, len(dimExprs))
	for i, d := range dimExprs {
		aliases[i] = d.alias
		selects[i] = d.expr + " AS " + d.alias
	}
	dimList := strings.Join(aliases, ", ")

	where, args := filterSQL(filter)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(`,
		IFNULL(SUM(bytes_sent), 0),
		IFNULL(AVG(bytes_sent), 0),
		IFNULL(SUM(bytes_received), 0),
		IFNULL(AVG(bytes_received), 0),
		IFNULL(SUM(packets_sent), 0),
		IFNULL(AVG(packets_sent), 0),
		IFNULL(SUM(packets_received), 0),
		IFNULL(AVG(packets_received), 0),
		IFNULL(SUM(duration), 0),
		IFNULL(AVG(duration), 0),
		COUNT(DISTINCT session_id)
	FROM traffic_records
	`)
	sb.WriteString(where)
	sb.WriteString("\nGROUP BY " + dimList)

	// Keyset cursor: resume strictly after the last key of the previous
	// page, compared as a row value over the full dimension tuple.
	if afterKey != nil {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(dimExprs)), ", ")
		sb.WriteString(fmt.Sprintf("\nHAVING (%s) > (%s)", dimList, placeholders))
		args = append(args, afterKey.values()...)
	}

	sb.WriteString("\nORDER BY " + dimList)
	sb.WriteString("\nLIMIT ?")
	args = append(args, size)

	rows, err := s.db.WithContext(ctx).Raw(sb.String(), args...).Rows()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate traffic records: %w", err)
	}
	defer rows.Close()

	var buckets []AggregateBucket
	for rows.Next() {
		var b AggregateBucket
		k := &b.Key
		err := rows.Scan(
			&k.Day, &k.DeviceID, &k.SourceIP, &k.DestinationIP, &k.DestinationPort,
			&k.InterfaceIn, &k.InterfaceOut, &k.Protocol, &k.Service, &k.Action, &k.AppCategory,
			&b.SumBytesSent, &b.AvgBytesSent,
			&b.SumBytesReceived, &b.AvgBytesReceived,
			&b.SumPacketsSent, &b.AvgPacketsSent,
			&b.SumPacketsReceived, &b.AvgPacketsReceived,
			&b.SumDuration, &b.AvgDuration,
			&b.SessionCount,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan aggregate bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read aggregate buckets: %w", err)
	}

	var next *BucketKey
	if len(buckets) == size {
		last := buckets[len(buckets)-1].Key
		next = &last
	}
	return buckets, next, nil
}
