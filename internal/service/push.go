package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"kitchen_sync/internal/config"
	"kitchen_sync/internal/domain"
	"kitchen_sync/pkg/logger"
)

// PushSender — внешний канал доставки, когда живого соединения нет.
type PushSender interface {
	SendPush(ctx context.Context, subjectID string, envelope domain.NotificationEnvelope) error
}

type httpPushSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
	log      logger.Logger
}

func NewPushSender(cfg config.PushConfig, log logger.Logger) PushSender {
	return &httpPushSender{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
		log:      log,
	}
}

func (s *httpPushSender) SendPush(ctx context.Context, subjectID string, envelope domain.NotificationEnvelope) error {
	if s.endpoint == "" {
		return fmt.Errorf("push endpoint not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"subject_id": subjectID,
		"type":       envelope.Type,
		"payload":    envelope.Payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("Push delivery request failed", "subject_id", subjectID, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push delivery failed with status %d", resp.StatusCode)
	}

	return nil
}
