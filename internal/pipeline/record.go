package pipeline

import (
	"net"
	"strconv"
	"time"

	"syslog-collector/internal/model"
	"syslog-collector/internal/parser"
	"syslog-collector/internal/utils"
)

// BuildRecord maps a parse result onto a TrafficRecord. Individual fields
// that fail validation (bad IP, out-of-range port, negative counter) come out
// nil; the raw message is carried regardless.
func BuildRecord(result *parser.Result) *model.TrafficRecord {
	record := &model.TrafficRecord{
		LogID:      result.StringPtr("logid"),
		Timestamp:  result.Timestamp,
		RawMessage: result.Raw,
		ReceivedAt: time.Now().UTC(),
	}
	if v, ok := result.Field("date"); ok {
		record.Date = v
	}
	if v, ok := result.Field("time"); ok {
		record.Time = v
	}

	record.SourceIP, record.SourceIPKey = validIP(result, "srcip")
	record.DestinationIP, record.DestinationIPKey = validIP(result, "dstip")
	record.NATSourceIP, _ = validIP(result, "transip")

	record.SourcePort = portValue(result.IntPtr("srcport"))
	record.DestinationPort = portValue(result.IntPtr("dstport"))
	record.NATSourcePort = portFromString(result, "transport")

	record.Protocol = result.StringPtr("proto")
	record.Action = result.StringPtr("action")

	record.BytesSent = nonNegative(result.IntPtr("sentbyte"))
	record.BytesReceived = nonNegative(result.IntPtr("rcvdbyte"))
	record.PacketsSent = nonNegative(result.IntPtr("sentpkt"))
	record.PacketsReceived = nonNegative(result.IntPtr("rcvdpkt"))

	record.SessionID = result.StringPtr("sessionid")

	record.Application = result.StringPtr("app")
	record.AppCategory = result.StringPtr("appcat")
	record.Category = result.StringPtr("catdesc")
	record.Service = result.StringPtr("service")

	record.Severity = result.StringPtr("level")
	record.DeviceID = result.StringPtr("devid")
	record.FirewallName = result.StringPtr("devname")
	record.RuleName = result.StringPtr("policyname")
	record.PolicyID = result.IntPtr("policyid")
	record.PolicyUUID = result.StringPtr("poluuid")

	record.InterfaceIn = result.StringPtr("srcintf")
	record.InterfaceOut = result.StringPtr("dstintf")
	record.SrcZone = result.StringPtr("srcintfrole")
	record.DstZone = result.StringPtr("dstintfrole")

	record.CountrySource = result.StringPtr("srccountry")
	record.CountryDestination = result.StringPtr("dstcountry")

	if d := result.FloatPtr("duration"); d != nil && *d >= 0 {
		record.Duration = d
	}

	record.ThreatName = result.StringPtr("attack")
	record.ThreatID = result.StringPtr("attackid")
	record.URL = result.StringPtr("url")
	record.UserName = result.StringPtr("user")

	return record
}

// validIP returns the printable address and its hex key when the raw field
// holds a valid IPv4/IPv6 address.
func validIP(result *parser.Result, key string) (*string, *string) {
	raw, ok := result.Field(key)
	if !ok {
		return nil, nil
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return nil, nil
	}
	ipKey := utils.IPKey(ip)
	return &raw, &ipKey
}

func portValue(v *int64) *int {
	if v == nil || *v < 0 || *v > 65535 {
		return nil
	}
	port := int(*v)
	return &port
}

func portFromString(result *parser.Result, key string) *int {
	raw, ok := result.Field(key)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return portValue(&n)
}

func nonNegative(v *int64) *int64 {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}
