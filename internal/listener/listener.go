package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"

	"syslog-collector/internal/pipeline"

	"github.com/sirupsen/logrus"
)

// maxDatagramSize covers the largest possible UDP payload.
const maxDatagramSize = 65535

// Listener owns the ingestion UDP socket. Each datagram is handed to an
// independent worker goroutine, bounded by the pool size; ordering between
// datagrams is not guaranteed.
type Listener struct {
	host      string
	port      int
	processor *pipeline.Processor
	logger    *logrus.Logger

	workers int
	sem     chan struct{}
	wg      sync.WaitGroup

	mu   sync.Mutex
	conn *net.UDPConn
}

func New(host string, port, workers int, processor *pipeline.Processor, logger *logrus.Logger) *Listener {
	if workers <= 0 {
		workers = 1
	}
	return &Listener{
		host:      host,
		port:      port,
		processor: processor,
		logger:    logger,
		workers:   workers,
		sem:       make(chan struct{}, workers),
	}
}

// ListenAndServe binds the socket and serves until ctx is cancelled. Bind
// failure is fatal and classified; once serving, no datagram error stops the
// loop. On cancellation the socket stops accepting, in-flight workers drain,
// and the socket is released.
func (l *Listener) ListenAndServe(ctx context.Context) error {
	addr := &net.UDPAddr{IP: net.ParseIP(l.host), Port: l.port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return classifyBindError(err, l.host, l.port)
	}

	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()

	l.logger.Infof("Syslog listener started on %s:%d/udp (%d workers)", l.host, l.port, l.workers)

	// Closing the socket is what unblocks ReadFromUDP.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			l.logger.Errorf("Read error on ingestion socket: %v", err)
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		sourceIP := remote.IP.String()

		l.sem <- struct{}{}
		l.wg.Add(1)
		go func() {
			defer func() {
				<-l.sem
				l.wg.Done()
			}()
			// Detached from ctx so shutdown drains in-flight writes
			// instead of cancelling them mid-persist.
			l.processor.Process(context.WithoutCancel(ctx), sourceIP, payload)
		}()
	}

	l.logger.Info("Syslog listener stopping, draining in-flight datagrams...")
	l.wg.Wait()
	l.logger.Info("Syslog listener stopped")
	return nil
}

// classifyBindError distinguishes the two common fatal bind failures.
func classifyBindError(err error, host string, port int) error {
	if errors.Is(err, syscall.EADDRINUSE) {
		return fmt.Errorf("cannot bind %s:%d/udp: port already in use: %w", host, port, err)
	}
	if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
		return fmt.Errorf("cannot bind %s:%d/udp: permission denied (privileged port?): %w", host, port, err)
	}
	return fmt.Errorf("cannot bind %s:%d/udp: %w", host, port, err)
}
