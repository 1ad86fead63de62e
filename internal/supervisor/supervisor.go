package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// Supervisor controls the ingestion service as an OS process. The core
// pipeline never depends on signals or pidfiles; this is the only place that
// does.
type Supervisor interface {
	Start() error
	Stop() error
	Restart() error
	IsRunning() bool
	PID() int
}

// PidfileSupervisor tracks the listener process through a pidfile and plain
// signals.
type PidfileSupervisor struct {
	pidFile string
	command []string
	logger  *logrus.Logger
}

func NewPidfileSupervisor(pidFile string, command []string, logger *logrus.Logger) *PidfileSupervisor {
	return &PidfileSupervisor{
		pidFile: pidFile,
		command: command,
		logger:  logger,
	}
}

// Start spawns the configured listener command and records its pid. A
// no-op when the process is already running.
func (s *PidfileSupervisor) Start() error {
	if s.IsRunning() {
		return nil
	}
	if len(s.command) == 0 {
		return fmt.Errorf("no listener command configured")
	}

	cmd := exec.Command(s.command[0], s.command[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start listener process: %w", err)
	}

	pid := cmd.Process.Pid
	if err := s.writePid(pid); err != nil {
		return err
	}

	// Reap the child when it exits so it never lingers as a zombie.
	go func() {
		_ = cmd.Wait()
	}()

	s.logger.Infof("Started listener process, pid %d", pid)
	return nil
}

// Stop signals the recorded process with SIGTERM and clears the pidfile.
func (s *PidfileSupervisor) Stop() error {
	pid := s.PID()
	if pid == 0 {
		return nil
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}

	if err := os.Remove(s.pidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove pidfile: %w", err)
	}

	s.logger.Infof("Stopped listener process, pid %d", pid)
	return nil
}

// Restart stops the process, waits for the socket to be released, and starts
// a fresh one.
func (s *PidfileSupervisor) Restart() error {
	if err := s.Stop(); err != nil {
		return err
	}
	time.Sleep(2 * time.Second)
	return s.Start()
}

// IsRunning reports whether the recorded pid names a live process.
func (s *PidfileSupervisor) IsRunning() bool {
	pid := s.PID()
	if pid == 0 {
		return false
	}
	// Signal 0 probes existence without delivering anything.
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}

// PID returns the recorded pid, or 0 when none is recorded.
func (s *PidfileSupervisor) PID() int {
	data, err := os.ReadFile(s.pidFile)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// WritePid records pid for an in-process listener (the serve command records
// itself so an external control surface can verify liveness).
func (s *PidfileSupervisor) WritePid(pid int) error {
	return s.writePid(pid)
}

func (s *PidfileSupervisor) writePid(pid int) error {
	if err := os.WriteFile(s.pidFile, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("failed to write pidfile %s: %w", s.pidFile, err)
	}
	return nil
}

// ClearPid removes the pidfile, ignoring a missing file.
func (s *PidfileSupervisor) ClearPid() error {
	if err := os.Remove(s.pidFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
