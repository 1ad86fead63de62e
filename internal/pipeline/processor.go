package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"syslog-collector/internal/gate"
	"syslog-collector/internal/metrics"
	"syslog-collector/internal/model"
	"syslog-collector/internal/parser"

	"github.com/sirupsen/logrus"
)

// RecordStore is the persistence sink for parsed records.
type RecordStore interface {
	Insert(ctx context.Context, record *model.TrafficRecord) error
}

// Processor runs one datagram through the ingestion pipeline: authorization,
// parsing, record construction, persistence, counter updates.
type Processor struct {
	gate         *gate.Gate
	parsers      *parser.Registry
	store        RecordStore
	metrics      *metrics.CollectorMetrics
	logger       *logrus.Logger
	vendor       string
	writeTimeout time.Duration
}

func NewProcessor(g *gate.Gate, parsers *parser.Registry, store RecordStore, m *metrics.CollectorMetrics, logger *logrus.Logger, vendor string, writeTimeout time.Duration) *Processor {
	return &Processor{
		gate:         g,
		parsers:      parsers,
		store:        store,
		metrics:      m,
		logger:       logger,
		vendor:       vendor,
		writeTimeout: writeTimeout,
	}
}

// Process handles one datagram from sourceIP. It never returns an error:
// every failure mode is a logged, counted drop so the listener keeps running.
func (p *Processor) Process(ctx context.Context, sourceIP string, payload []byte) {
	start := time.Now()
	defer func() {
		p.metrics.ProcessingTime.Observe(time.Since(start).Seconds())
	}()

	if !utf8.Valid(payload) {
		p.logger.Warnf("Dropping undecodable datagram from %s (%d bytes)", sourceIP, len(payload))
		p.metrics.DatagramsDropped.WithLabelValues("decode").Inc()
		return
	}
	raw := strings.TrimSpace(string(payload))

	p.metrics.DatagramsReceived.WithLabelValues(sourceIP).Inc()

	approved := p.gate.Authorize(ctx, sourceIP)

	// Receipt is recorded before the approval branch: the received counter
	// tracks rejected traffic volume as well.
	p.gate.RecordReceived(ctx, sourceIP, raw)

	if !approved {
		p.logger.Debugf("Dropping log from unapproved device %s", sourceIP)
		p.metrics.UnapprovedDropped.WithLabelValues(sourceIP).Inc()
		return
	}

	vendorParser, ok := p.parsers.Lookup(p.vendor)
	if !ok {
		p.logger.Errorf("No parser registered for vendor %q, dropping datagram from %s", p.vendor, sourceIP)
		p.metrics.DatagramsDropped.WithLabelValues("no_parser").Inc()
		return
	}

	result := vendorParser.Parse(raw)
	if len(result.Fields) == 0 {
		// Still persisted: the raw message is retained for reprocessing.
		p.metrics.ParseEmpty.Inc()
	}

	record := BuildRecord(result)

	insertCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	if err := p.store.Insert(insertCtx, record); err != nil {
		p.logger.WithFields(logrus.Fields{
			"source": sourceIP,
			"raw":    raw,
		}).Errorf("Failed to persist record: %v", err)
		p.metrics.PersistErrors.Inc()
		p.metrics.DatagramsDropped.WithLabelValues("persist").Inc()
		return
	}

	p.metrics.RecordsPersisted.WithLabelValues(sourceIP).Inc()
	p.gate.RecordSaved(ctx, sourceIP)
}
