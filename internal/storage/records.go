package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"syslog-collector/internal/model"

	"gorm.io/gorm"
)

// IPTerm matches one source or destination address criterion: either an
// exact address or a CIDR block, both expressed over the hex IP key columns.
type IPTerm struct {
	Exact string
	Lo    string
	Hi    string
}

// RecordFilter is the predicate set the query engine hands to the store.
// Terms within Source (and within Destination) are OR'd; the categories
// themselves are AND'd.
type RecordFilter struct {
	Source          []IPTerm
	Destination     []IPTerm
	DestinationPort *int
	Action          string
	Firewall        string
	From            *time.Time
	To              *time.Time
}

func ipTermClause(column string, terms []IPTerm) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, t := range terms {
		if t.Exact != "" {
			parts = append(parts, column+" = ?")
			args = append(args, t.Exact)
		} else if t.Lo != "" {
			parts = append(parts, column+" BETWEEN ? AND ?")
			args = append(args, t.Lo, t.Hi)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func (s *Store) applyFilter(db *gorm.DB, filter RecordFilter) *gorm.DB {
	if clause, args := ipTermClause("source_ip_key", filter.Source); clause != "" {
		db = db.Where(clause, args...)
	}
	if clause, args := ipTermClause("destination_ip_key", filter.Destination); clause != "" {
		db = db.Where(clause, args...)
	}
	if filter.DestinationPort != nil {
		db = db.Where("destination_port = ?", *filter.DestinationPort)
	}
	if filter.Action != "" {
		db = db.Where("LOWER(action) = LOWER(?)", filter.Action)
	}
	if filter.Firewall != "" {
		db = db.Where("firewall_name = ?", filter.Firewall)
	}
	if filter.From != nil {
		db = db.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("timestamp <= ?", *filter.To)
	}
	return db
}

// Insert persists one traffic record.
func (s *Store) Insert(ctx context.Context, record *model.TrafficRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert traffic record: %w", err)
	}
	return nil
}

// Search returns one page of matching records, newest first with record id as
// tie-breaker, plus the total match count.
func (s *Store) Search(ctx context.Context, filter RecordFilter, offset, limit int) ([]model.TrafficRecord, int64, error) {
	var total int64
	err := s.applyFilter(s.db.WithContext(ctx).Model(&model.TrafficRecord{}), filter).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count traffic records: %w", err)
	}

	var records []model.TrafficRecord
	err = s.applyFilter(s.db.WithContext(ctx).Model(&model.TrafficRecord{}), filter).
		Order("timestamp DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search traffic records: %w", err)
	}
	return records, total, nil
}

// Count returns the number of records matching filter.
func (s *Store) Count(ctx context.Context, filter RecordFilter) (int64, error) {
	var total int64
	base := s.applyFilter(s.db.WithContext(ctx).Model(&model.TrafficRecord{}), filter)
	if err := base.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count traffic records: %w", err)
	}
	return total, nil
}
