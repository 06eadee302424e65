// internal/workers/registration/create-church-record/handler.go
package createchurchrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cerrors "church-workers/internal/common/errors"
	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "create-church-record"

	// Below this risk score the church is validated without human review.
	autoValidationThreshold = 0.25
)

const registrationSchema = `{
	"type": "object",
	"required": ["churchName", "contactEmail"],
	"properties": {
		"churchName": {"type": "string", "minLength": 3, "maxLength": 200},
		"contactEmail": {"type": "string", "format": "email"},
		"denomination": {"type": "string", "maxLength": 100},
		"legalRepresentative": {"type": "string", "maxLength": 200},
		"websiteUrl": {"type": "string", "format": "uri"}
	}
}`

const duplicateCheckQuery = `
	SELECT EXISTS(
		SELECT 1 FROM churches
		WHERE LOWER(name) = LOWER($1) OR contact_email = $2
	)`

const churchInsertQuery = `
	INSERT INTO churches (
		id, name, contact_email, denomination, legal_representative,
		website_url, pastor_id, risk_score, status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

const auditInsertQuery = `
	INSERT INTO audit_log (id, entity_type, entity_id, action, details, created_at)
	VALUES ($1, 'church', $2, 'church_registered', $3, NOW())`

type Handler struct {
	config     *Config
	db         *sql.DB
	schema     *gojsonschema.Schema
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(registrationSchema))
	if err != nil {
		// The schema is a compile-time constant: a parse failure is a
		// programming error, not a runtime condition.
		panic(fmt.Sprintf("invalid registration schema: %v", err))
	}

	scopedLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		schema:     schema,
		logger:     scopedLog,
		errHandler: cerrors.NewErrorHandler(scopedLog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		// Report on a fresh context; the job context may already be expired.
		h.errHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validateRegistration(&input.Registration); err != nil {
		return nil, err
	}

	var exists bool
	err := h.db.QueryRowContext(ctx, duplicateCheckQuery,
		input.Registration.ChurchName, input.Registration.ContactEmail).Scan(&exists)
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("church_duplicate_check", err)
	}
	if exists {
		return nil, cerrors.NewDuplicateChurchError(input.Registration.ChurchName)
	}

	derivation := deriveStatus(input.RiskAssessment.RiskScore)

	churchID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, churchInsertQuery,
		churchID,
		input.Registration.ChurchName,
		input.Registration.ContactEmail,
		input.Registration.Denomination,
		input.Registration.LegalRepresentative,
		input.Registration.WebsiteURL,
		input.PastorID,
		input.RiskAssessment.RiskScore,
		derivation.Status,
		createdAt,
	)
	if err != nil {
		return nil, cerrors.NewDatabaseInsertFailedError(err)
	}

	h.writeAuditEntry(ctx, churchID, input)

	h.logger.Info("church record created", map[string]interface{}{
		"churchId":  churchID,
		"pastorId":  input.PastorID,
		"status":    derivation.Status,
		"riskScore": input.RiskAssessment.RiskScore,
	})

	return &Output{
		ChurchID:              churchID,
		Status:                derivation.Status,
		Message:               derivation.Message,
		EstimatedApprovalTime: derivation.EstimatedApprovalTime,
		NextSteps:             derivation.NextSteps,
		CreatedAt:             createdAt,
	}, nil
}

func (h *Handler) validateRegistration(reg *models.ChurchRegistrationInput) error {
	doc, err := json.Marshal(reg)
	if err != nil {
		return cerrors.NewRegistrationValidationFailedError(err.Error())
	}

	result, err := h.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return cerrors.NewRegistrationValidationFailedError(err.Error())
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return cerrors.NewRegistrationValidationFailedError(strings.Join(msgs, "; "))
	}

	return nil
}

// deriveStatus maps the risk score to the onboarding outcome.
func deriveStatus(riskScore float64) statusDerivation {
	if riskScore < autoValidationThreshold {
		return statusDerivation{
			Status:                models.ChurchStatusValidated,
			Message:               "¡Excelente! Tu iglesia ha sido validada automáticamente.",
			EstimatedApprovalTime: "Inmediato",
			NextSteps: []string{
				"✅ Iglesia validada por IA",
				"📧 Revisa tu email",
				"👥 Comienza a registrar miembros",
				"🎯 Explora funciones de IA",
			},
		}
	}

	return statusDerivation{
		Status:                models.ChurchStatusPendingValidation,
		Message:               "Tu iglesia está en proceso de validación.",
		EstimatedApprovalTime: "24-48 horas",
		NextSteps: []string{
			"📋 Revisión manual en progreso",
			"📧 Recibirás actualización pronto",
		},
	}
}

// writeAuditEntry records the registration. Audit failures never fail
// the job: the church row already committed.
func (h *Handler) writeAuditEntry(ctx context.Context, churchID string, input *Input) {
	details, _ := json.Marshal(map[string]interface{}{
		"churchName":     input.Registration.ChurchName,
		"pastorId":       input.PastorID,
		"riskScore":      input.RiskAssessment.RiskScore,
		"recommendation": input.RiskAssessment.Recommendation,
	})

	if _, err := h.db.ExecContext(ctx, auditInsertQuery, uuid.New().String(), churchID, details); err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"churchId": churchID,
			"error":    err.Error(),
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
