package model

import (
	"time"
)

// Vendor identifiers accepted for parser templates.
const (
	VendorFortinet = "fortinet"
	VendorCisco    = "cisco"
	VendorJuniper  = "juniper"
	VendorPaloAlto = "paloalto"
	VendorOther    = "other"
)

// Device is a known log source. A device is auto-created in unapproved state
// the first time its IP address is seen; only an administrator flips the
// approval flag. The counters are monitoring counters, not an audit ledger.
type Device struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	IPAddress   string `gorm:"uniqueIndex;size:45" json:"ip_address"`
	Hostname    string `gorm:"size:255" json:"hostname"`
	Approved    bool   `gorm:"default:false" json:"approved"`
	Description string `json:"description,omitempty"`

	ParserTemplateID *uint           `json:"parser_template_id,omitempty"`
	ParserTemplate   *ParserTemplate `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	TotalLogsReceived int64      `json:"total_logs_received"`
	TotalLogsSaved    int64      `json:"total_logs_saved"`
	LastLogReceived   *time.Time `json:"last_log_received,omitempty"`
	LastLogSaved      *time.Time `json:"last_log_saved,omitempty"`
	LastLogMessage    string     `gorm:"type:text" json:"last_log_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParserTemplate is a vendor-specific parsing configuration. Devices reference
// templates but never own them.
type ParserTemplate struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"uniqueIndex;size:255" json:"name"`
	Vendor       string    `gorm:"size:50" json:"vendor"`
	Description  string    `json:"description,omitempty"`
	ParsingRules string    `gorm:"type:text" json:"parsing_rules"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ServiceStatus is the singleton row describing the listener process. At most
// one instance ever exists; storage enforces the fixed primary key.
type ServiceStatus struct {
	ID          uint       `gorm:"primaryKey" json:"-"`
	Name        string     `gorm:"size:50" json:"name"`
	Running     bool       `json:"running"`
	PID         *int       `json:"pid,omitempty"`
	LastStarted *time.Time `json:"last_started,omitempty"`
	LastStopped *time.Time `json:"last_stopped,omitempty"`
}
