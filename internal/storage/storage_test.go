package storage

import (
	"context"
	"path/filepath"
	"testing"

	"syslog-collector/internal/utils"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"), utils.NewLogger("ERROR", ""))
	if err != nil {
		t.Fatalf("expected store to open, got %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateUnapprovedDeviceIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.CreateUnapprovedDevice(ctx, "10.0.0.9")
	if err != nil {
		t.Fatalf("expected first create to succeed, got %v", err)
	}
	if first.Approved {
		t.Fatalf("expected new device to be unapproved")
	}

	// A second create for the same IP resolves to the existing row.
	second, err := store.CreateUnapprovedDevice(ctx, "10.0.0.9")
	if err != nil {
		t.Fatalf("expected second create to resolve, got %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected one device row, got ids %d and %d", first.ID, second.ID)
	}

	devices, err := store.ListDevices(ctx)
	if err != nil {
		t.Fatalf("expected device listing, got %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected exactly one device, got %d", len(devices))
	}
}

func TestDeviceCounters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.CreateUnapprovedDevice(ctx, "10.0.0.10"); err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	if err := store.RecordReceived(ctx, "10.0.0.10", "raw line one"); err != nil {
		t.Fatalf("expected receipt to record, got %v", err)
	}
	if err := store.RecordReceived(ctx, "10.0.0.10", "raw line two"); err != nil {
		t.Fatalf("expected receipt to record, got %v", err)
	}
	if err := store.RecordSaved(ctx, "10.0.0.10"); err != nil {
		t.Fatalf("expected save to record, got %v", err)
	}

	device, err := store.FindDeviceByIP(ctx, "10.0.0.10")
	if err != nil || device == nil {
		t.Fatalf("expected device lookup, got %v, %v", device, err)
	}
	if device.TotalLogsReceived != 2 {
		t.Fatalf("expected 2 logs received, got %d", device.TotalLogsReceived)
	}
	if device.TotalLogsSaved != 1 {
		t.Fatalf("expected 1 log saved, got %d", device.TotalLogsSaved)
	}
	if device.LastLogMessage != "raw line two" {
		t.Fatalf("expected last message to be the latest receipt, got %q", device.LastLogMessage)
	}
	if device.LastLogReceived == nil || device.LastLogSaved == nil {
		t.Fatalf("expected receipt and save timestamps to be set")
	}
}

func TestFindDeviceByIPUnknownIsNotAnError(t *testing.T) {
	store := openTestStore(t)

	device, err := store.FindDeviceByIP(context.Background(), "203.0.113.77")
	if err != nil {
		t.Fatalf("expected no error for unknown device, got %v", err)
	}
	if device != nil {
		t.Fatalf("expected nil device for unknown IP")
	}
}

func TestServiceStatusSingleton(t *testing.T) {
	store := openTestStore(t)

	first, err := store.ServiceStatus()
	if err != nil {
		t.Fatalf("expected status row, got %v", err)
	}
	if first.Running {
		t.Fatalf("expected initial status to be stopped")
	}

	if err := store.MarkServiceStarted(4242); err != nil {
		t.Fatalf("expected start mark to succeed, got %v", err)
	}

	second, err := store.ServiceStatus()
	if err != nil {
		t.Fatalf("expected status row, got %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same singleton row, got ids %d and %d", first.ID, second.ID)
	}
	if !second.Running || second.PID == nil || *second.PID != 4242 {
		t.Fatalf("expected running status with pid 4242, got %+v", second)
	}

	if err := store.MarkServiceStopped(); err != nil {
		t.Fatalf("expected stop mark to succeed, got %v", err)
	}
	third, _ := store.ServiceStatus()
	if third.Running || third.PID != nil {
		t.Fatalf("expected stopped status with no pid, got %+v", third)
	}

	var count int64
	store.DB().Table("service_statuses").Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one status row, got %d", count)
	}
}

func TestSeedFortinetTemplateIsRepeatable(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.SeedFortinetTemplate(ctx)
	if err != nil {
		t.Fatalf("expected seed to succeed, got %v", err)
	}
	if !created {
		t.Fatalf("expected first seed to create the template")
	}

	created, err = store.SeedFortinetTemplate(ctx)
	if err != nil {
		t.Fatalf("expected repeat seed to succeed, got %v", err)
	}
	if created {
		t.Fatalf("expected repeat seed to update, not create")
	}

	var count int64
	store.DB().Table("parser_templates").Count(&count)
	if count != 1 {
		t.Fatalf("expected one template row, got %d", count)
	}
}
