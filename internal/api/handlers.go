package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"syslog-collector/internal/query"
	"syslog-collector/internal/storage"
	"syslog-collector/internal/supervisor"

	"github.com/sirupsen/logrus"
)

type Handlers struct {
	engine     *query.Engine
	store      *storage.Store
	supervisor supervisor.Supervisor
	logger     *logrus.Logger
}

func NewHandlers(engine *query.Engine, store *storage.Store, sup supervisor.Supervisor, logger *logrus.Logger) *Handlers {
	return &Handlers{
		engine:     engine,
		store:      store,
		supervisor: sup,
		logger:     logger,
	}
}

func criteriaFromRequest(r *http.Request) query.Criteria {
	q := r.URL.Query()
	return query.Criteria{
		SourceIPs:      q["source_ip"],
		DestinationIPs: q["dest_ip"],
		DestPort:       q.Get("dest_port"),
		Action:         q.Get("action"),
		Firewall:       q.Get("firewall"),
		DateRange:      q.Get("date_range"),
		FromDate:       q.Get("from_date"),
		FromTime:       q.Get("from_time"),
		ToDate:         q.Get("to_date"),
		ToTime:         q.Get("to_time"),
	}
}

func pageFromRequest(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// GetLogs serves the filtered paginated record listing.
func (h *Handlers) GetLogs(w http.ResponseWriter, r *http.Request) {
	page := h.engine.ListRecords(r.Context(), criteriaFromRequest(r), pageFromRequest(r))
	writeJSON(w, http.StatusOK, page)
}

// GetAggregatedLogs serves the composite aggregation listing.
func (h *Handlers) GetAggregatedLogs(w http.ResponseWriter, r *http.Request) {
	page := h.engine.AggregateRecords(r.Context(), criteriaFromRequest(r), pageFromRequest(r))
	writeJSON(w, http.StatusOK, page)
}

// GetDevices lists all known devices, approved or not.
func (h *Handlers) GetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.store.ListDevices(r.Context())
	if err != nil {
		h.logger.Errorf("Failed to list devices: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"devices": devices,
		"total":   len(devices),
	})
}

// GetServiceStatus reports the singleton status row reconciled against the
// supervisor's liveness probe.
func (h *Handlers) GetServiceStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.store.ServiceStatus()
	if err != nil {
		h.logger.Errorf("Failed to load service status: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load service status")
		return
	}

	running := h.supervisor.IsRunning()
	if status.Running != running {
		status.Running = running
	}
	writeJSON(w, http.StatusOK, status)
}

// StartService starts the ingestion process via the supervisor.
func (h *Handlers) StartService(w http.ResponseWriter, r *http.Request) {
	if err := h.supervisor.Start(); err != nil {
		h.logger.Errorf("Failed to start listener: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.MarkServiceStarted(h.supervisor.PID()); err != nil {
		h.logger.Errorf("Failed to update service status: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "started"})
}

// StopService stops the ingestion process via the supervisor.
func (h *Handlers) StopService(w http.ResponseWriter, r *http.Request) {
	if err := h.supervisor.Stop(); err != nil {
		h.logger.Errorf("Failed to stop listener: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.MarkServiceStopped(); err != nil {
		h.logger.Errorf("Failed to update service status: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "stopped"})
}

// RestartService restarts the ingestion process via the supervisor.
func (h *Handlers) RestartService(w http.ResponseWriter, r *http.Request) {
	if err := h.supervisor.Restart(); err != nil {
		h.logger.Errorf("Failed to restart listener: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.store.MarkServiceStarted(h.supervisor.PID()); err != nil {
		h.logger.Errorf("Failed to update service status: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "restarted"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
