package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"syslog-collector/internal/model"

	"gorm.io/gorm"
)

// TemplateField describes one parseable field of a vendor template.
type TemplateField struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// TemplateRules is the parsing configuration stored with a template.
type TemplateRules struct {
	Fields   map[string]TemplateField `json:"fields"`
	Patterns map[string]string        `json:"patterns"`
}

// fortinetTemplateName is the (vendor, name) identity of the seeded default.
const fortinetTemplateName = "FortiOS 7.4.0 Default"

func defaultFortinetRules() TemplateRules {
	return TemplateRules{
		Fields: map[string]TemplateField{
			"type":      {"string", "Log type (traffic, event, virus, webfilter, etc.)"},
			"subtype":   {"string", "Log subtype"},
			"level":     {"string", "Severity level"},
			"vd":        {"string", "Virtual domain name"},
			"date":      {"string", "Date the log was recorded"},
			"time":      {"string", "Time the log was recorded"},
			"devname":   {"string", "Device name"},
			"devid":     {"string", "Device ID"},
			"logid":     {"string", "Log ID"},
			"status":    {"string", "Status (success, failure, etc.)"},
			"policyid":  {"integer", "Policy ID if available"},
			"sessionid": {"integer", "Session ID if available"},
			"srcip":     {"ip", "Source IP address"},
			"srcport":   {"integer", "Source port"},
			"srcintf":   {"string", "Source interface"},
			"dstip":     {"ip", "Destination IP address"},
			"dstport":   {"integer", "Destination port"},
			"dstintf":   {"string", "Destination interface"},
			"proto":     {"integer", "Protocol number"},
			"action":    {"string", "Action taken"},
			"service":   {"string", "Service name"},
			"hostname":  {"string", "Hostname"},
			"profile":   {"string", "Security profile"},
			"duration":  {"integer", "Session duration"},
			"sentbyte":  {"integer", "Number of bytes sent"},
			"rcvdbyte":  {"integer", "Number of bytes received"},
			"msg":       {"string", "Message description"},
		},
		Patterns: map[string]string{
			"kv_pair":   `(\w+)="([^"]*)"`,
			"date_time": `date=(\d{4}-\d{2}-\d{2}) time=(\d{2}:\d{2}:\d{2})`,
		},
	}
}

// SeedFortinetTemplate creates or refreshes the default Fortinet parser
// template. Safe to run repeatedly.
func (s *Store) SeedFortinetTemplate(ctx context.Context) (created bool, err error) {
	rules, err := json.Marshal(defaultFortinetRules())
	if err != nil {
		return false, fmt.Errorf("failed to encode template rules: %w", err)
	}

	var existing model.ParserTemplate
	findErr := s.db.WithContext(ctx).
		Where("vendor = ? AND name = ?", model.VendorFortinet, fortinetTemplateName).
		First(&existing).Error

	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		template := model.ParserTemplate{
			Name:         fortinetTemplateName,
			Vendor:       model.VendorFortinet,
			Description:  "Default parser template for FortiOS 7.4.0 syslog messages",
			ParsingRules: string(rules),
		}
		if err := s.db.WithContext(ctx).Create(&template).Error; err != nil {
			return false, fmt.Errorf("failed to create fortinet template: %w", err)
		}
		return true, nil
	}
	if findErr != nil {
		return false, fmt.Errorf("failed to look up fortinet template: %w", findErr)
	}

	existing.ParsingRules = string(rules)
	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return false, fmt.Errorf("failed to update fortinet template: %w", err)
	}
	return false, nil
}
