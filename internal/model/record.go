package model

import (
	"time"
)

// TrafficRecord is one ingested firewall log event. Records are created once by
// the ingestion listener and never updated or deleted afterwards.
type TrafficRecord struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// External log identifier, if the source provides one.
	LogID *string `json:"log_id,omitempty"`

	// Timestamp reconstructed from the date and time fields of the message.
	// Nil when the message carried no parseable date/time pair; the raw
	// strings are kept either way.
	Timestamp *time.Time `gorm:"index" json:"timestamp,omitempty"`
	Date      string     `gorm:"size:10" json:"date,omitempty"`
	Time      string     `gorm:"size:8" json:"time,omitempty"`

	SourceIP      *string `gorm:"index" json:"source_ip,omitempty"`
	DestinationIP *string `gorm:"index" json:"destination_ip,omitempty"`

	// Fixed-width hex keys of the 16-byte IP form. Kept alongside the
	// printable addresses so CIDR containment becomes a lexicographic
	// BETWEEN over an indexed column.
	SourceIPKey      *string `gorm:"index;size:32" json:"-"`
	DestinationIPKey *string `gorm:"index;size:32" json:"-"`

	SourcePort      *int `json:"source_port,omitempty"`
	DestinationPort *int `gorm:"index" json:"destination_port,omitempty"`

	Protocol *string `gorm:"size:20" json:"protocol,omitempty"`
	Action   *string `gorm:"size:50" json:"action,omitempty"`

	BytesSent       *int64 `json:"bytes_sent,omitempty"`
	BytesReceived   *int64 `json:"bytes_received,omitempty"`
	PacketsSent     *int64 `json:"packets_sent,omitempty"`
	PacketsReceived *int64 `json:"packets_received,omitempty"`

	SessionID *string `gorm:"index;size:100" json:"session_id,omitempty"`

	Application    *string `gorm:"size:100" json:"application,omitempty"`
	AppCategory    *string `gorm:"size:100" json:"app_category,omitempty"`
	AppSubcategory *string `gorm:"size:100" json:"app_subcategory,omitempty"`
	Category       *string `gorm:"size:100" json:"category,omitempty"`
	Service        *string `gorm:"size:100" json:"service,omitempty"`

	Severity     *string `gorm:"size:20" json:"severity,omitempty"`
	DeviceID     *string `gorm:"size:100" json:"device_id,omitempty"`
	FirewallName *string `gorm:"size:100" json:"firewall_name,omitempty"`
	RuleName     *string `gorm:"size:100" json:"rule_name,omitempty"`
	PolicyID     *int64  `json:"policy_id,omitempty"`
	PolicyUUID   *string `gorm:"size:100" json:"policy_uuid,omitempty"`

	InterfaceIn  *string `gorm:"size:100" json:"interface_in,omitempty"`
	InterfaceOut *string `gorm:"size:100" json:"interface_out,omitempty"`
	SrcZone      *string `gorm:"size:100" json:"src_zone,omitempty"`
	DstZone      *string `gorm:"size:100" json:"dst_zone,omitempty"`

	CountrySource      *string `gorm:"size:100" json:"country_source,omitempty"`
	CountryDestination *string `gorm:"size:100" json:"country_destination,omitempty"`

	NATSourceIP        *string `json:"nat_source_ip,omitempty"`
	NATDestinationIP   *string `json:"nat_destination_ip,omitempty"`
	NATSourcePort      *int    `json:"nat_source_port,omitempty"`
	NATDestinationPort *int    `json:"nat_destination_port,omitempty"`

	// Session duration in seconds.
	Duration *float64 `json:"duration,omitempty"`

	ThreatName *string `gorm:"size:255" json:"threat_name,omitempty"`
	ThreatID   *string `gorm:"size:100" json:"threat_id,omitempty"`
	URL        *string `json:"url,omitempty"`
	UserName   *string `gorm:"size:100" json:"user_name,omitempty"`

	// The untouched datagram payload, retained even when structured parsing
	// partially or fully fails.
	RawMessage string `gorm:"type:text" json:"raw_message"`

	ReceivedAt time.Time `json:"received_at"`
}
