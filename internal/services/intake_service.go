package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"scheduling-service/internal/authz"
	"scheduling-service/internal/identity"
	"scheduling-service/internal/metrics"
	"scheduling-service/internal/models"
	"scheduling-service/internal/nats"
	"scheduling-service/internal/parser"
)

// Defaults applied when extraction yields nothing usable
const (
	DefaultCaseTitle     = "未設定の案件"
	DefaultCandidateName = "候補者名未設定"
	DefaultStage         = "1st Interview"
	DefaultStatus        = "Scheduling"
)

// IntakeService turns raw recruitment emails into cases. Extraction is best
// effort: a failed or malformed parse still produces a case with defaults.
type IntakeService struct {
	cases          CaseRepository
	tenants        TenantRepository
	parser         parser.Parser
	engine         *authz.Engine
	natsClient     *nats.Client
	minEmailLength int
	logger         *logrus.Logger
}

// NewIntakeService creates a new intake service
func NewIntakeService(cases CaseRepository, tenants TenantRepository, p parser.Parser, engine *authz.Engine, natsClient *nats.Client, minEmailLength int, logger *logrus.Logger) *IntakeService {
	return &IntakeService{
		cases:          cases,
		tenants:        tenants,
		parser:         p,
		engine:         engine,
		natsClient:     natsClient,
		minEmailLength: minEmailLength,
		logger:         logger,
	}
}

// WebhookRequest is the payload accepted from the mail forwarding hook
type WebhookRequest struct {
	EmailText     string `json:"email_text"`
	Body          string `json:"body"`
	TenantID      string `json:"tenant_id"`
	Title         string `json:"title"`
	CandidateName string `json:"candidate_name"`
	Stage         string `json:"stage"`
	Status        string `json:"status"`
}

// CreateCaseFromEmail materializes a case from email text pasted by a
// signed-in user. The case lands in the caller's tenant regardless of
// anything the extraction claims.
func (s *IntakeService) CreateCaseFromEmail(ctx context.Context, ident *identity.Identity, profile *models.Profile, emailText string) (*models.Case, error) {
	res := authz.Resource{}
	if profile != nil {
		res.TenantID = profile.TenantID
	}
	if dec := s.engine.Authorize(ident, profile, res, authz.ActionCreateCase); !dec.Allowed {
		return nil, NewAuthorizationError(dec.Reason)
	}
	if profile.TenantID == nil {
		return nil, NewAuthorizationError(authz.ReasonNoTenant)
	}

	emailText = strings.TrimSpace(emailText)
	if len([]rune(emailText)) < s.minEmailLength {
		return nil, NewValidationError("email_text", fmt.Sprintf("email text must be at least %d characters", s.minEmailLength))
	}

	parsed := s.extract(ctx, emailText)

	c := &models.Case{
		PublicID:      NewPublicID(),
		TenantID:      profile.TenantID,
		CreatedBy:     &profile.ID,
		Title:         orDefault(parsed.Title, DefaultCaseTitle),
		CandidateName: orDefault(parsed.CandidateName, DefaultCandidateName),
		RawEmailBody:  emailText,
		Stage:         orDefault(parsed.Stage, DefaultStage),
		Status:        orDefault(parsed.Status, DefaultStatus),
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	metrics.CasesCreated.WithLabelValues("manual").Inc()
	s.publishCaseCreated(c, "manual")
	return c, nil
}

// CreateCaseFromWebhook materializes a case from a forwarded email. Explicit
// fields in the payload win over extraction results.
func (s *IntakeService) CreateCaseFromWebhook(ctx context.Context, req WebhookRequest) (*models.Case, error) {
	emailText := strings.TrimSpace(req.EmailText)
	if emailText == "" {
		emailText = strings.TrimSpace(req.Body)
	}
	if len([]rune(emailText)) < s.minEmailLength {
		return nil, NewValidationError("email_text", fmt.Sprintf("email text must be at least %d characters", s.minEmailLength))
	}

	var tenantID *uuid.UUID
	if strings.TrimSpace(req.TenantID) != "" {
		id, err := uuid.Parse(req.TenantID)
		if err != nil {
			return nil, NewValidationError("tenant_id", "tenant_id is not a valid uuid")
		}
		tenant, err := s.tenants.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if tenant == nil {
			return nil, NewNotFoundError("tenant")
		}
		tenantID = &tenant.ID
	}

	parsed := s.extract(ctx, emailText)

	c := &models.Case{
		PublicID:      NewPublicID(),
		TenantID:      tenantID,
		Title:         orDefault(req.Title, orDefault(parsed.Title, DefaultCaseTitle)),
		CandidateName: orDefault(req.CandidateName, orDefault(parsed.CandidateName, DefaultCandidateName)),
		RawEmailBody:  emailText,
		Stage:         orDefault(req.Stage, orDefault(parsed.Stage, DefaultStage)),
		Status:        orDefault(req.Status, orDefault(parsed.Status, DefaultStatus)),
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	metrics.CasesCreated.WithLabelValues("zapier_webhook").Inc()
	s.publishCaseCreated(c, "zapier_webhook")
	return c, nil
}

// extract runs the email parser, downgrading any failure to empty results.
func (s *IntakeService) extract(ctx context.Context, emailText string) parser.ParsedEmail {
	parsed, err := s.parser.Extract(ctx, emailText)
	if err != nil {
		s.logger.WithError(err).Warn("Email extraction failed, falling back to defaults")
		return parser.ParsedEmail{}
	}
	return parsed
}

func (s *IntakeService) publishCaseCreated(c *models.Case, source string) {
	if s.natsClient == nil {
		return
	}
	event := &nats.CaseCreatedEvent{
		CaseID:        c.ID.String(),
		PublicID:      c.PublicID,
		Title:         c.Title,
		CandidateName: c.CandidateName,
		Source:        source,
	}
	if c.TenantID != nil {
		event.TenantID = c.TenantID.String()
	}
	s.natsClient.PublishCaseCreated(event)
}

// NewPublicID generates the opaque token used in candidate-facing URLs
func NewPublicID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
