package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"syslog-collector/internal/gate"
	"syslog-collector/internal/metrics"
	"syslog-collector/internal/model"
	"syslog-collector/internal/parser"
	"syslog-collector/internal/utils"
)

type fakeDirectory struct {
	mu       sync.Mutex
	devices  map[string]*model.Device
	received int
	saved    int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{devices: make(map[string]*model.Device)}
}

func (f *fakeDirectory) approve(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[ip] = &model.Device{IPAddress: ip, Approved: true}
}

func (f *fakeDirectory) FindDeviceByIP(ctx context.Context, ip string) (*model.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices[ip], nil
}

func (f *fakeDirectory) CreateUnapprovedDevice(ctx context.Context, ip string) (*model.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := &model.Device{IPAddress: ip, Approved: false}
	f.devices[ip] = d
	return d, nil
}

func (f *fakeDirectory) RecordReceived(ctx context.Context, ip, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received++
	return nil
}

func (f *fakeDirectory) RecordSaved(ctx context.Context, ip string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved++
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	records []*model.TrafficRecord
	fail    bool
}

func (f *fakeStore) Insert(ctx context.Context, record *model.TrafficRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.records = append(f.records, record)
	return nil
}

func newTestProcessor(dir *fakeDirectory, store *fakeStore) *Processor {
	logger := utils.NewLogger("ERROR", "")
	g := gate.New(dir, logger)
	return NewProcessor(g, parser.DefaultRegistry(), store, metrics.NewCollectorMetrics(), logger, "fortinet", time.Second)
}

const sampleLine = `date=2024-03-01 time=10:15:30 devname="FG100F" devid="FG100F0000000001" ` +
	`logid="0000000013" type="traffic" srcip=10.0.0.5 srcport=54321 dstip=192.0.2.10 dstport=443 ` +
	`proto=6 action="accept" sentbyte=1200 rcvdbyte=4800 sessionid=98765`

func TestProcessPersistsApprovedTraffic(t *testing.T) {
	dir := newFakeDirectory()
	dir.approve("10.0.0.5")
	store := &fakeStore{}
	p := newTestProcessor(dir, store)

	p.Process(context.Background(), "10.0.0.5", []byte(sampleLine))

	if len(store.records) != 1 {
		t.Fatalf("expected one persisted record, got %d", len(store.records))
	}
	if dir.received != 1 || dir.saved != 1 {
		t.Fatalf("expected received=1 saved=1, got received=%d saved=%d", dir.received, dir.saved)
	}

	record := store.records[0]
	if record.SourceIP == nil || *record.SourceIP != "10.0.0.5" {
		t.Fatalf("expected parsed source IP, got %v", record.SourceIP)
	}
	if record.DestinationPort == nil || *record.DestinationPort != 443 {
		t.Fatalf("expected parsed destination port, got %v", record.DestinationPort)
	}
	if record.RawMessage != sampleLine {
		t.Fatalf("expected raw message retained")
	}
}

func TestProcessDropsUnapprovedButCountsReceipt(t *testing.T) {
	dir := newFakeDirectory()
	store := &fakeStore{}
	p := newTestProcessor(dir, store)

	p.Process(context.Background(), "10.0.0.9", []byte(sampleLine))

	if len(store.records) != 0 {
		t.Fatalf("expected no persisted records for unapproved device, got %d", len(store.records))
	}
	if dir.received != 1 {
		t.Fatalf("expected receipt counted for unapproved device, got %d", dir.received)
	}
	if dir.saved != 0 {
		t.Fatalf("expected no save for unapproved device, got %d", dir.saved)
	}
	if dir.devices["10.0.0.9"] == nil || dir.devices["10.0.0.9"].Approved {
		t.Fatalf("expected unapproved device registered")
	}
}

func TestProcessDropsUndecodablePayload(t *testing.T) {
	dir := newFakeDirectory()
	dir.approve("10.0.0.5")
	store := &fakeStore{}
	p := newTestProcessor(dir, store)

	p.Process(context.Background(), "10.0.0.5", []byte{0xff, 0xfe, 0x80})

	if len(store.records) != 0 {
		t.Fatalf("expected undecodable payload dropped, got %d records", len(store.records))
	}
	if dir.received != 0 {
		t.Fatalf("expected no receipt for undecodable payload, got %d", dir.received)
	}
}

func TestProcessPersistsUnparseablePayload(t *testing.T) {
	dir := newFakeDirectory()
	dir.approve("10.0.0.5")
	store := &fakeStore{}
	p := newTestProcessor(dir, store)

	p.Process(context.Background(), "10.0.0.5", []byte("free-form text with no structure"))

	if len(store.records) != 1 {
		t.Fatalf("expected unparseable payload persisted, got %d records", len(store.records))
	}
	if store.records[0].RawMessage != "free-form text with no structure" {
		t.Fatalf("expected raw message retained, got %q", store.records[0].RawMessage)
	}
	if store.records[0].SourceIP != nil {
		t.Fatalf("expected no structured fields")
	}
}

func TestProcessSurvivesPersistFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.approve("10.0.0.5")
	store := &fakeStore{fail: true}
	p := newTestProcessor(dir, store)

	p.Process(context.Background(), "10.0.0.5", []byte(sampleLine))

	if dir.saved != 0 {
		t.Fatalf("expected no save counted on persist failure, got %d", dir.saved)
	}
	if dir.received != 1 {
		t.Fatalf("expected receipt still counted, got %d", dir.received)
	}
}
