// internal/templates/service.go
package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"evocrm/internal/common/errors"
	"evocrm/internal/common/logger"
	"evocrm/internal/models"
)

// Payload schemas mirror what the gateway's send endpoints accept, so a
// template that validates here will not be rejected at dispatch time.
const textPayloadSchema = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

const mediaPayloadSchema = `{
	"type": "object",
	"required": ["mediatype", "mimetype", "media", "fileName"],
	"properties": {
		"mediatype": {"type": "string", "enum": ["image", "video", "audio", "document"]},
		"mimetype": {"type": "string", "minLength": 1},
		"media": {"type": "string", "minLength": 1},
		"fileName": {"type": "string", "minLength": 1},
		"caption": {"type": "string"}
	},
	"additionalProperties": false
}`

// Repository is the slice of the template store the service needs.
type Repository interface {
	Create(ctx context.Context, tpl *models.Template) (*models.Template, error)
	GetByID(ctx context.Context, userID, id string) (*models.Template, error)
	List(ctx context.Context, userID string) ([]models.Template, error)
	Update(ctx context.Context, tpl *models.Template) (*models.Template, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// Service validates and manages message templates.
type Service struct {
	repo        Repository
	textSchema  *gojsonschema.Schema
	mediaSchema *gojsonschema.Schema
	logger      logger.Logger
}

func NewService(repo Repository, log logger.Logger) (*Service, error) {
	textSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(textPayloadSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile text payload schema: %w", err)
	}
	mediaSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(mediaPayloadSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile media payload schema: %w", err)
	}
	return &Service{repo: repo, textSchema: textSchema, mediaSchema: mediaSchema, logger: log}, nil
}

func (s *Service) Create(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	if err := s.validate(tpl); err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, tpl)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.Template, error) {
	tpl, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, errors.NewTemplateNotFoundError(id)
	}
	return tpl, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Template, error) {
	return s.repo.List(ctx, userID)
}

func (s *Service) Update(ctx context.Context, tpl *models.Template) (*models.Template, error) {
	if err := s.validate(tpl); err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, tpl)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.NewTemplateNotFoundError(tpl.ID)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	deleted, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.NewTemplateNotFoundError(id)
	}
	return nil
}

// BuildDispatch turns a stored template into a dispatch request for the given
// recipients.
func (s *Service) BuildDispatch(tpl *models.Template, recipients []string) (*models.DispatchRequest, error) {
	req := &models.DispatchRequest{Recipients: recipients}

	switch tpl.Type {
	case models.TemplateTypeText:
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(tpl.Payload, &payload); err != nil {
			return nil, errors.NewInternalError(fmt.Errorf("stored template payload is unreadable: %w", err))
		}
		req.Text = payload.Text
	case models.TemplateTypeMedia:
		var media models.MediaContent
		if err := json.Unmarshal(tpl.Payload, &media); err != nil {
			return nil, errors.NewInternalError(fmt.Errorf("stored template payload is unreadable: %w", err))
		}
		req.Media = &media
	default:
		return nil, errors.NewValidationFailedError(fmt.Sprintf("unknown template type %q", tpl.Type))
	}
	return req, nil
}

func (s *Service) validate(tpl *models.Template) error {
	if strings.TrimSpace(tpl.Name) == "" {
		return errors.NewValidationFailedError("template name is required")
	}

	var schema *gojsonschema.Schema
	switch tpl.Type {
	case models.TemplateTypeText:
		schema = s.textSchema
	case models.TemplateTypeMedia:
		schema = s.mediaSchema
	default:
		return errors.NewValidationFailedError(fmt.Sprintf("template type must be %q or %q",
			models.TemplateTypeText, models.TemplateTypeMedia))
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(tpl.Payload))
	if err != nil {
		return errors.NewValidationFailedError("template payload is not valid JSON")
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return errors.NewValidationFailedError(strings.Join(details, "; "))
	}
	return nil
}
