package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"syslog-collector/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps the SQLite database behind the device directory, record store
// and service status interfaces. Writes come only from ingestion, reads only
// from the query engine; SQLite in WAL mode keeps the two from serializing
// each other.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// Open opens (creating if necessary) the collector database at path and
// migrates the schema.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// Concurrent inserts from the listener workers must not starve readers.
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	if err := db.AutoMigrate(
		&model.ParserTemplate{},
		&model.Device{},
		&model.TrafficRecord{},
		&model.ServiceStatus{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// serviceStatusID pins the singleton row.
const serviceStatusID = 1

// ServiceStatus returns the singleton status row, creating it stopped on
// first access.
func (s *Store) ServiceStatus() (*model.ServiceStatus, error) {
	var status model.ServiceStatus
	err := s.db.
		Where(model.ServiceStatus{ID: serviceStatusID}).
		Attrs(model.ServiceStatus{Name: "Syslog Receiver"}).
		FirstOrCreate(&status).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load service status: %w", err)
	}
	return &status, nil
}

// MarkServiceStarted records the listener process as running.
func (s *Store) MarkServiceStarted(pid int) error {
	status, err := s.ServiceStatus()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	status.Running = true
	status.PID = &pid
	status.LastStarted = &now
	return s.db.Save(status).Error
}

// MarkServiceStopped records the listener process as stopped.
func (s *Store) MarkServiceStopped() error {
	status, err := s.ServiceStatus()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	status.Running = false
	status.PID = nil
	status.LastStopped = &now
	return s.db.Save(status).Error
}

// isUniqueViolation reports whether err is a unique-constraint failure. GORM
// surfaces gorm.ErrDuplicatedKey for translated dialects; the SQLite driver
// also reports the raw constraint message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
