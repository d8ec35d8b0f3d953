package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"kpi-analytics-service/app/src/domain"
	"kpi-analytics-service/app/src/infra"
	"kpi-analytics-service/app/src/shared/constants"
)

const (
	queryCellIDs = "cell_ids"
	queryFrom    = "from"
	queryTo      = "to"
)

// handler contains the HTTP handlers and shared dependencies for the REST API.
type handler struct {
	service domain.AnalyticsService
	logger  *infra.Logger
}

func registerRoutes(router *chi.Mux, h *handler) {
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if h.logger != nil {
			h.logger.Println(r.Context(), "health check OK")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/kpis/ingest", h.handleIngest)
		api.Post("/kpis/ingest/batch", h.handleIngestBatch)
		api.Get("/kpis", h.handleQueryKPIs)
		api.Post("/generate/synthetic", h.handleGenerateSynthetic)
		api.Get("/analytics/summary", h.handleSummary)
		api.Post("/anomaly/detect", h.handleDetect)
		api.Post("/alerts", h.handleCreateAlert)
		api.Get("/alerts", h.handleListAlerts)
		api.Get("/status", h.handleStatus)
	})
}

type measurementPayload struct {
	Timestamp         string   `json:"timestamp"`
	CellID            string   `json:"cell_id"`
	TrafficProfile    string   `json:"traffic_profile"`
	LatencyMs         float64  `json:"latency_ms"`
	ThroughputMbps    float64  `json:"throughput_mbps"`
	PacketLossPct     float64  `json:"packet_loss_pct"`
	JitterMs          *float64 `json:"jitter_ms,omitempty"`
	SignalStrengthDbm *float64 `json:"signal_strength_dbm,omitempty"`
	ActiveUsers       *int     `json:"active_users,omitempty"`
}

type batchPayload struct {
	Measurements []measurementPayload `json:"measurements"`
}

type syntheticPayload struct {
	CellIDs         []string `json:"cell_ids"`
	TrafficProfiles []string `json:"traffic_profiles"`
	StartTime       string   `json:"start_time"`
	DurationHours   float64  `json:"duration_hours"`
	IntervalSeconds int      `json:"interval_seconds"`
	AnomalyRate     float64  `json:"anomaly_rate"`
	Seed            int64    `json:"seed"`
}

type detectPayload struct {
	CellIDs []string `json:"cell_ids"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Methods []string `json:"methods"`
}

type alertPayload struct {
	Timestamp      string  `json:"timestamp"`
	CellID         string  `json:"cell_id"`
	Severity       string  `json:"severity"`
	Metric         string  `json:"metric"`
	CurrentValue   float64 `json:"current_value"`
	ThresholdValue float64 `json:"threshold_value"`
	Message        string  `json:"message"`
	Acknowledged   bool    `json:"acknowledged"`
}

type alertResponse struct {
	ID             string  `json:"id"`
	Timestamp      string  `json:"timestamp"`
	CellID         string  `json:"cell_id"`
	Severity       string  `json:"severity"`
	Metric         string  `json:"metric"`
	CurrentValue   float64 `json:"current_value"`
	ThresholdValue float64 `json:"threshold_value"`
	Message        string  `json:"message"`
	Acknowledged   bool    `json:"acknowledged"`
}

type anomalyResponse struct {
	Timestamp    string   `json:"timestamp"`
	CellID       string   `json:"cell_id"`
	Metric       string   `json:"metric"`
	Value        float64  `json:"value"`
	IsAnomaly    bool     `json:"is_anomaly"`
	AnomalyScore float64  `json:"anomaly_score"`
	Method       string   `json:"method"`
	Threshold    *float64 `json:"threshold,omitempty"`
	Baseline     *float64 `json:"baseline,omitempty"`
}

type summaryResponse struct {
	Metric         string  `json:"metric"`
	CellID         string  `json:"cell_id"`
	TrafficProfile string  `json:"traffic_profile"`
	Mean           float64 `json:"mean"`
	Median         float64 `json:"median"`
	StdDev         float64 `json:"std_dev"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	P95            float64 `json:"p95"`
	P99            float64 `json:"p99"`
	SampleCount    int     `json:"sample_count"`
	TimeRange      string  `json:"time_range"`
}

type statusResponse struct {
	Status             string `json:"status"`
	Timestamp          string `json:"timestamp"`
	ActiveAlerts       int    `json:"active_alerts"`
	TotalAlerts        int    `json:"total_alerts"`
	RecentMeasurements int    `json:"recent_measurements"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (h *handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	var payload measurementPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m, err := toMeasurement(payload)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.Ingest(r.Context(), m); err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"status": "accepted"})
}

func (h *handler) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var payload batchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(payload.Measurements) == 0 {
		h.writeError(w, http.StatusBadRequest, "measurements must not be empty")
		return
	}

	ms := make([]domain.Measurement, len(payload.Measurements))
	for i, p := range payload.Measurements {
		m, err := toMeasurement(p)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		ms[i] = m
	}

	if err := h.service.IngestBatch(r.Context(), ms); err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"accepted": len(ms)})
}

func (h *handler) handleGenerateSynthetic(w http.ResponseWriter, r *http.Request) {
	var payload syntheticPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req := domain.SyntheticRequest{
		CellIDs:         payload.CellIDs,
		DurationHours:   payload.DurationHours,
		IntervalSeconds: payload.IntervalSeconds,
		AnomalyRate:     payload.AnomalyRate,
		Seed:            payload.Seed,
	}
	for _, name := range payload.TrafficProfiles {
		profile, err := domain.ParseTrafficProfile(name)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.TrafficProfiles = append(req.TrafficProfiles, profile)
	}
	if payload.StartTime != "" {
		start, err := time.Parse(time.RFC3339, payload.StartTime)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid start_time")
			return
		}
		req.StartTime = start
	}

	count, err := h.service.GenerateSynthetic(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"generated": count})
}

func (h *handler) handleQueryKPIs(w http.ResponseWriter, r *http.Request) {
	filter, err := measurementFilterFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.service.QueryMeasurements(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload := make([]measurementPayload, len(results))
	for i, m := range results {
		payload[i] = toMeasurementPayload(m)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"count": len(payload), "measurements": payload})
}

func (h *handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := measurementFilterFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload := make([]summaryResponse, len(summaries))
	for i, s := range summaries {
		payload[i] = summaryResponse{
			Metric:         s.Metric,
			CellID:         s.CellID,
			TrafficProfile: string(s.TrafficProfile),
			Mean:           s.Mean,
			Median:         s.Median,
			StdDev:         s.StdDev,
			Min:            s.Min,
			Max:            s.Max,
			P95:            s.P95,
			P99:            s.P99,
			SampleCount:    s.SampleCount,
			TimeRange:      s.TimeRange,
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"summaries": payload})
}

func (h *handler) handleDetect(w http.ResponseWriter, r *http.Request) {
	var payload detectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	filter := domain.MeasurementFilter{CellIDs: payload.CellIDs}
	var err error
	if filter.From, filter.To, err = parseRange(payload.From, payload.To); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.service.DetectAnomalies(r.Context(), filter, payload.Methods)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	out := make(map[string][]anomalyResponse, len(results))
	total := 0
	for method, records := range results {
		converted := make([]anomalyResponse, len(records))
		for i, record := range records {
			converted[i] = toAnomalyResponse(record)
		}
		out[method] = converted
		total += len(records)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"total_anomalies": total, "results": out})
}

func (h *handler) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var payload alertPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	alert := domain.Alert{
		CellID:         payload.CellID,
		Severity:       domain.AlertSeverity(payload.Severity),
		Metric:         payload.Metric,
		CurrentValue:   payload.CurrentValue,
		ThresholdValue: payload.ThresholdValue,
		Message:        payload.Message,
		Acknowledged:   payload.Acknowledged,
	}
	if payload.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, payload.Timestamp)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid timestamp")
			return
		}
		alert.Timestamp = ts
	} else {
		alert.Timestamp = time.Now().UTC()
	}

	created, err := h.service.CreateAlert(r.Context(), alert)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toAlertResponse(created))
}

func (h *handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	filter := domain.AlertFilter{CellID: params.Get("cell_id")}

	if severity := params.Get("severity"); severity != "" {
		parsed, err := domain.ParseAlertSeverity(severity)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Severity = parsed
	}
	if ack := params.Get("acknowledged"); ack != "" {
		value, err := strconv.ParseBool(ack)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid acknowledged flag")
			return
		}
		filter.Acknowledged = &value
	}
	if limit := params.Get("limit"); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil || value < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = value
	}

	alerts, err := h.service.ListAlerts(r.Context(), filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload := make([]alertResponse, len(alerts))
	for i, alert := range alerts {
		payload[i] = toAlertResponse(alert)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"count": len(payload), "alerts": payload})
}

func (h *handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, statusResponse{
		Status:             status.Status,
		Timestamp:          status.Timestamp.UTC().Format(constants.TimeFormat),
		ActiveAlerts:       status.ActiveAlerts,
		TotalAlerts:        status.TotalAlerts,
		RecentMeasurements: status.RecentMeasurements,
	})
}

func measurementFilterFromQuery(r *http.Request) (domain.MeasurementFilter, error) {
	params := r.URL.Query()
	filter := domain.MeasurementFilter{}

	if raw := params.Get(queryCellIDs); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.CellIDs = append(filter.CellIDs, id)
			}
		}
	}

	var err error
	filter.From, filter.To, err = parseRange(params.Get(queryFrom), params.Get(queryTo))
	return filter, err
}

func parseRange(fromParam, toParam string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error

	if fromParam != "" {
		if from, err = time.Parse(time.RFC3339, fromParam); err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid from timestamp")
		}
	}
	if toParam != "" {
		if to, err = time.Parse(time.RFC3339, toParam); err != nil {
			return time.Time{}, time.Time{}, errors.New("invalid to timestamp")
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, errors.New("from must be before to")
	}
	return from, to, nil
}

func (h *handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidMeasurement), errors.Is(err, domain.ErrInvalidAlert):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not found")
	default:
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message, Code: status})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func toMeasurement(p measurementPayload) (domain.Measurement, error) {
	m := domain.Measurement{
		CellID:            p.CellID,
		TrafficProfile:    domain.TrafficProfile(p.TrafficProfile),
		LatencyMs:         p.LatencyMs,
		ThroughputMbps:    p.ThroughputMbps,
		PacketLossPct:     p.PacketLossPct,
		JitterMs:          p.JitterMs,
		SignalStrengthDbm: p.SignalStrengthDbm,
		ActiveUsers:       p.ActiveUsers,
	}
	if p.Timestamp == "" {
		return domain.Measurement{}, errors.New("timestamp is required")
	}
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		return domain.Measurement{}, errors.New("invalid timestamp")
	}
	m.Timestamp = ts
	return m, nil
}

func toMeasurementPayload(m domain.Measurement) measurementPayload {
	return measurementPayload{
		Timestamp:         m.Timestamp.UTC().Format(constants.TimeFormat),
		CellID:            m.CellID,
		TrafficProfile:    string(m.TrafficProfile),
		LatencyMs:         m.LatencyMs,
		ThroughputMbps:    m.ThroughputMbps,
		PacketLossPct:     m.PacketLossPct,
		JitterMs:          m.JitterMs,
		SignalStrengthDbm: m.SignalStrengthDbm,
		ActiveUsers:       m.ActiveUsers,
	}
}

func toAnomalyResponse(record domain.AnomalyRecord) anomalyResponse {
	return anomalyResponse{
		Timestamp:    record.Timestamp.UTC().Format(constants.TimeFormat),
		CellID:       record.CellID,
		Metric:       record.Metric,
		Value:        record.Value,
		IsAnomaly:    record.IsAnomaly,
		AnomalyScore: record.AnomalyScore,
		Method:       record.Method,
		Threshold:    record.Threshold,
		Baseline:     record.Baseline,
	}
}

func toAlertResponse(alert domain.Alert) alertResponse {
	return alertResponse{
		ID:             alert.ID,
		Timestamp:      alert.Timestamp.UTC().Format(constants.TimeFormat),
		CellID:         alert.CellID,
		Severity:       string(alert.Severity),
		Metric:         alert.Metric,
		CurrentValue:   alert.CurrentValue,
		ThresholdValue: alert.ThresholdValue,
		Message:        alert.Message,
		Acknowledged:   alert.Acknowledged,
	}
}
