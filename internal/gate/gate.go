package gate

import (
	"context"

	"syslog-collector/internal/model"

	"github.com/sirupsen/logrus"
)

// DeviceDirectory is the device storage consumed by the gate.
type DeviceDirectory interface {
	FindDeviceByIP(ctx context.Context, ip string) (*model.Device, error)
	CreateUnapprovedDevice(ctx context.Context, ip string) (*model.Device, error)
	RecordReceived(ctx context.Context, ip, message string) error
	RecordSaved(ctx context.Context, ip string) error
}

// Gate decides whether a source address may have its logs persisted. Unknown
// addresses are recorded as unapproved devices exactly once; the gate never
// flips an approval flag itself.
type Gate struct {
	dir    DeviceDirectory
	logger *logrus.Logger
}

func New(dir DeviceDirectory, logger *logrus.Logger) *Gate {
	return &Gate{dir: dir, logger: logger}
}

// Authorize reports whether ip is approved to have its logs saved. A
// first-seen address is registered unapproved; any directory failure resolves
// to unapproved rather than an error, so a degraded store cannot crash the
// ingestion path.
func (g *Gate) Authorize(ctx context.Context, ip string) bool {
	device, err := g.dir.FindDeviceByIP(ctx, ip)
	if err != nil {
		g.logger.Errorf("Device lookup failed for %s: %v", ip, err)
		return false
	}
	if device != nil {
		return device.Approved
	}

	g.logger.Infof("First sighting of device %s, registering unapproved", ip)
	created, err := g.dir.CreateUnapprovedDevice(ctx, ip)
	if err != nil {
		g.logger.Errorf("Failed to register device %s: %v", ip, err)
		return false
	}
	return created.Approved
}

// RecordReceived notes a log receipt for ip. Receipts are counted even for
// unapproved devices; the counter tracks rejected traffic volume too.
func (g *Gate) RecordReceived(ctx context.Context, ip, message string) {
	if err := g.dir.RecordReceived(ctx, ip, message); err != nil {
		g.logger.Errorf("Failed to record receipt for %s: %v", ip, err)
	}
}

// RecordSaved notes a successful persist for ip.
func (g *Gate) RecordSaved(ctx context.Context, ip string) {
	if err := g.dir.RecordSaved(ctx, ip); err != nil {
		g.logger.Errorf("Failed to record save for %s: %v", ip, err)
	}
}
