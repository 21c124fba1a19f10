// internal/dispatch/orchestrator.go
package dispatch

import (
	"context"
	"strings"
	"time"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/common/metrics"
	"evocrm/internal/gateway/evolution"
	"evocrm/internal/models"
)

// CredentialResolver yields the stored gateway credential for a user.
// A (nil, nil) return means the user has no credential configured.
type CredentialResolver interface {
	Get(ctx context.Context, userID string) (*models.Credential, error)
}

// Sender is the slice of the gateway client the orchestrator needs.
type Sender interface {
	SendText(ctx context.Context, instance, apiKey, number, text string, delayMs int, linkPreview bool) (*evolution.SendResult, error)
	SendMedia(ctx context.Context, instance, apiKey, number string, media models.MediaContent, delayMs int) (*evolution.SendResult, error)
}

// Orchestrator fans a dispatch request out to its recipients one at a time
// under the calling user's credential. A failed recipient never aborts the
// batch; every recipient gets exactly one result, in request order.
type Orchestrator struct {
	credentials CredentialResolver
	gateway     Sender
	delayMs     int
	linkPreview bool
	logger      logger.Logger
}

func NewOrchestrator(credentials CredentialResolver, gateway Sender, delayMs int, linkPreview bool, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		credentials: credentials,
		gateway:     gateway,
		delayMs:     delayMs,
		linkPreview: linkPreview,
		logger:      log,
	}
}

// Dispatch validates the request, resolves the user's credential and sends to
// each recipient in order. The returned slice always has one entry per
// recipient, aligned with the request.
func (o *Orchestrator) Dispatch(ctx context.Context, userID string, req *models.DispatchRequest) ([]models.DispatchResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cred, err := o.credentials.Get(ctx, userID)
	if err != nil {
		return nil, errors.NewDatabaseError(err)
	}
	if cred == nil {
		return nil, errors.NewCredentialsNotFoundError(userID)
	}

	operation := "text"
	if req.IsMedia() {
		operation = "media"
	}

	metrics.DispatchesActive.WithLabelValues(operation).Inc()
	defer metrics.DispatchesActive.WithLabelValues(operation).Dec()
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	o.logger.Info("dispatch started", map[string]interface{}{
		"user_id":    userID,
		"operation":  operation,
		"instance":   cred.InstanceName,
		"recipients": len(req.Recipients),
	})

	results := make([]models.DispatchResult, 0, len(req.Recipients))
	for i, recipient := range req.Recipients {
		if i > 0 && o.delayMs > 0 {
			if err := sleepCtx(ctx, time.Duration(o.delayMs)*time.Millisecond); err != nil {
				// Cancellation mid-batch: the remaining recipients were
				// never attempted, record them as errors and stop.
				for _, remaining := range req.Recipients[i:] {
					results = append(results, errorResult(remaining, 0, err.Error()))
					metrics.DispatchRecipients.WithLabelValues(operation, models.DeliveryStatusError).Inc()
				}
				return results, nil
			}
		}

		result := o.sendOne(ctx, cred, recipient, req)
		metrics.DispatchRecipients.WithLabelValues(operation, result.DeliveryStatus).Inc()
		results = append(results, result)
	}

	o.logger.Info("dispatch finished", map[string]interface{}{
		"user_id":   userID,
		"operation": operation,
		"results":   len(results),
	})
	return results, nil
}

func (o *Orchestrator) sendOne(ctx context.Context, cred *models.Credential, recipient string, req *models.DispatchRequest) models.DispatchResult {
	var sent *evolution.SendResult
	var err error

	if req.IsMedia() {
		sent, err = o.gateway.SendMedia(ctx, cred.InstanceName, cred.APIKey, recipient, *req.Media, o.delayMs)
	} else {
		sent, err = o.gateway.SendText(ctx, cred.InstanceName, cred.APIKey, recipient, req.Text, o.delayMs, o.linkPreview)
	}

	if err != nil {
		httpCode := 0
		if sent != nil {
			httpCode = sent.HTTPCode
		}
		o.logger.Warn("recipient send failed", map[string]interface{}{
			"recipient": recipient,
			"http_code": httpCode,
			"error":     err.Error(),
		})
		return errorResult(recipient, httpCode, err.Error())
	}

	return models.DispatchResult{
		Recipient:      recipient,
		DeliveryStatus: sent.Status,
		MessageID:      sent.MessageID,
		HTTPCode:       sent.HTTPCode,
	}
}

func validateRequest(req *models.DispatchRequest) error {
	if req == nil || len(req.Recipients) == 0 {
		return errors.NewValidationFailedError("at least one recipient is required")
	}
	for _, r := range req.Recipients {
		if strings.TrimSpace(r) == "" {
			return errors.NewValidationFailedError("recipients must not be blank")
		}
	}

	if req.IsMedia() {
		m := req.Media
		switch {
		case m.MediaType == "":
			return errors.NewValidationFailedError("media.mediatype is required")
		case m.MimeType == "":
			return errors.NewValidationFailedError("media.mimetype is required")
		case m.Base64 == "":
			return errors.NewValidationFailedError("media content is required")
		case m.FileName == "":
			return errors.NewValidationFailedError("media.fileName is required")
		}
		return nil
	}

	if strings.TrimSpace(req.Text) == "" {
		return errors.NewValidationFailedError("message text is required")
	}
	return nil
}

func errorResult(recipient string, httpCode int, detail string) models.DispatchResult {
	return models.DispatchResult{
		Recipient:      recipient,
		DeliveryStatus: models.DeliveryStatusError,
		HTTPCode:       httpCode,
		ErrorDetail:    detail,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
