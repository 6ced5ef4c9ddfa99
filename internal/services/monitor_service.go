package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/rcn/internal/dedup"
)

// MonitorService posts engine anomalies (mint failures, sweep errors) to a
// webhook. Alerts are rate-limited through an injected TTL dedup store so a
// flapping failure produces one alert per window, not one per request.
type MonitorService struct {
	webhookURL string
	store      dedup.Store
	ttl        time.Duration
	client     *http.Client
}

// NewMonitorService constructs the monitor. An empty webhook URL degrades to
// log-only alerts.
func NewMonitorService(webhookURL string, store dedup.Store, ttl time.Duration) *MonitorService {
	return &MonitorService{
		webhookURL: webhookURL,
		store:      store,
		ttl:        ttl,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type alertPayload struct {
	Key     string         `json:"key"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// Alert sends a deduplicated alert. key groups repeats of the same anomaly.
// Alerting is best-effort and never fails the calling operation.
func (m *MonitorService) Alert(ctx context.Context, key, message string, fields map[string]any) {
	if m == nil {
		return
	}

	first, err := m.store.Once(ctx, key, m.ttl)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("alert dedup store unavailable")
		first = true
	}
	if !first {
		return
	}

	log.Warn().Str("key", key).Fields(fields).Msg(message)

	if m.webhookURL == "" {
		return
	}

	payload, err := json.Marshal(alertPayload{Key: key, Message: message, Fields: fields, SentAt: time.Now()})
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("alert webhook delivery failed")
		return
	}
	resp.Body.Close()
}
