package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"syslog-collector/internal/model"

	"gorm.io/gorm"
)

// FindDeviceByIP returns the device owning ip, or (nil, nil) when unknown.
func (s *Store) FindDeviceByIP(ctx context.Context, ip string) (*model.Device, error) {
	var device model.Device
	err := s.db.WithContext(ctx).Where("ip_address = ?", ip).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up device %s: %w", ip, err)
	}
	return &device, nil
}

// CreateUnapprovedDevice records a first-seen source address. Two listener
// workers can race here on the same new IP; the unique index on ip_address
// collapses the second insert into a re-read of the winner's row.
func (s *Store) CreateUnapprovedDevice(ctx context.Context, ip string) (*model.Device, error) {
	device := &model.Device{
		IPAddress: ip,
		Hostname:  "",
		Approved:  false,
	}
	err := s.db.WithContext(ctx).Create(device).Error
	if err == nil {
		return device, nil
	}
	if isUniqueViolation(err) {
		existing, findErr := s.FindDeviceByIP(ctx, ip)
		if findErr == nil && existing != nil {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("failed to create device %s: %w", ip, err)
}

// RecordReceived bumps the received counter and diagnostic fields for ip.
// Counters are advisory under concurrency; the single UPDATE keeps the
// increment itself atomic.
func (s *Store) RecordReceived(ctx context.Context, ip, message string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&model.Device{}).
		Where("ip_address = ?", ip).
		Updates(map[string]interface{}{
			"total_logs_received": gorm.Expr("total_logs_received + 1"),
			"last_log_received":   now,
			"last_log_message":    message,
		}).Error
}

// RecordSaved bumps the saved counter for ip after a successful persist.
func (s *Store) RecordSaved(ctx context.Context, ip string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Model(&model.Device{}).
		Where("ip_address = ?", ip).
		Updates(map[string]interface{}{
			"total_logs_saved": gorm.Expr("total_logs_saved + 1"),
			"last_log_saved":   now,
		}).Error
}

// ListDevices returns all known devices, approved or not.
func (s *Store) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	err := s.db.WithContext(ctx).Order("hostname, ip_address").Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}
