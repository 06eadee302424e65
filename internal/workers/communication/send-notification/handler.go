// internal/workers/communication/send-notification/handler.go
package sendnotification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	caws "church-workers/internal/common/aws"
	cerrors "church-workers/internal/common/errors"
	"church-workers/internal/common/logger"
	"church-workers/internal/common/metrics"
	"church-workers/internal/models"
	"church-workers/pkg/registry"
)

const (
	TaskType = "send-notification"
)

const (
	pastorContactQuery = `SELECT email, phone FROM pastors WHERE id = $1`
	memberContactQuery = `SELECT email, phone FROM members WHERE id = $1`

	notificationInsertQuery = `
		INSERT INTO notifications (id, recipient_id, recipient_type, type, channel, status, payload, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	errHandler *cerrors.ErrorHandler
	sesClient  SESService
	snsClient  SNSService
	templates  map[string]models.NotificationTemplate
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) (*Handler, error) {
	templates, err := registry.LoadTemplates(config.TemplateRegistry)
	if err != nil {
		return nil, fmt.Errorf("load notification templates: %w", err)
	}

	ctx := context.Background()
	sesClient, err := caws.NewSESClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := caws.NewSNSClient(ctx, config.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	scopedLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		logger:     scopedLog,
		errHandler: cerrors.NewErrorHandler(scopedLog),
		sesClient:  sesClient,
		snsClient:  snsClient,
		templates:  templates,
	}, nil
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
	template, exists := h.templates[input.NotificationType]
	if !exists {
		return nil, cerrors.NewTemplateNotFoundError(input.NotificationType)
	}

	notificationID := uuid.New().String()
	sentAt := time.Now().UTC().Format(time.RFC3339)

	email, phone, err := h.getRecipientContact(ctx, input.RecipientID, input.RecipientType)
	if err != nil {
		h.logger.Warn("recipient not found", map[string]interface{}{
			"recipientId": input.RecipientID,
			"type":        input.RecipientType,
		})
		return &Output{
			NotificationID: notificationID,
			Status:         StatusDisabled,
			Channels:       []string{},
			SentAt:         sentAt,
		}, nil
	}

	data := map[string]interface{}{
		"recipientId":      input.RecipientID,
		"notificationType": input.NotificationType,
		"churchId":         input.ChurchID,
		"priority":         input.Priority,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	subject := renderTemplate(template.Subject, data)
	body := renderTemplate(template.Body, data)
	htmlBody := body
	if template.HTMLBody != "" {
		htmlBody = renderTemplate(template.HTMLBody, data)
	}

	channels := []string{}

	if h.config.EmailEnabled && email != "" {
		if err := h.sendEmail(ctx, email, subject, body, htmlBody); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err,
				"email": email,
			})
			metrics.NotificationsDelivered.WithLabelValues(ChannelEmail, StatusFailed).Inc()
			h.recordNotification(ctx, notificationID, input, ChannelEmail, StatusFailed, sentAt)
			return &Output{NotificationID: notificationID, Status: StatusFailed, Channels: channels, SentAt: sentAt}, nil
		}
		metrics.NotificationsDelivered.WithLabelValues(ChannelEmail, StatusSent).Inc()
		h.recordNotification(ctx, notificationID, input, ChannelEmail, StatusSent, sentAt)
		channels = append(channels, ChannelEmail)
	}

	if h.config.SMSEnabled && phone != "" && input.Priority == h.config.SMSPriority {
		if err := h.sendSMS(ctx, phone, body); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error": err,
				"phone": phone,
			})
			metrics.NotificationsDelivered.WithLabelValues(ChannelSMS, StatusFailed).Inc()
			h.recordNotification(ctx, notificationID, input, ChannelSMS, StatusFailed, sentAt)
			return &Output{NotificationID: notificationID, Status: StatusFailed, Channels: channels, SentAt: sentAt}, nil
		}
		metrics.NotificationsDelivered.WithLabelValues(ChannelSMS, StatusSent).Inc()
		h.recordNotification(ctx, notificationID, input, ChannelSMS, StatusSent, sentAt)
		channels = append(channels, ChannelSMS)
	}

	status := StatusDisabled
	if len(channels) > 0 {
		status = StatusSent
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"notificationId": notificationID,
		"type":           input.NotificationType,
		"status":         status,
		"channels":       channels,
	})

	return &Output{
		NotificationID: notificationID,
		Status:         status,
		Channels:       channels,
		SentAt:         sentAt,
	}, nil
}

func (h *Handler) getRecipientContact(ctx context.Context, recipientID, recipientType string) (string, string, error) {
	var query string
	switch recipientType {
	case RecipientTypePastor:
		query = pastorContactQuery
	case RecipientTypeMember:
		query = memberContactQuery
	default:
		return "", "", fmt.Errorf("invalid recipient type: %s", recipientType)
	}

	var email string
	var phone sql.NullString
	if err := h.db.QueryRowContext(ctx, query, recipientID).Scan(&email, &phone); err != nil {
		return "", "", err
	}
	return email, phone.String, nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body, htmlBody string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
				Html: &types.Content{Data: aws.String(htmlBody)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// recordNotification writes the delivery attempt for auditing. A write
// failure does not change the delivery outcome.
func (h *Handler) recordNotification(ctx context.Context, id string, input *Input, channel, status, sentAt string) {
	payload, _ := json.Marshal(input.Metadata)

	_, err := h.db.ExecContext(ctx, notificationInsertQuery,
		id,
		input.RecipientID,
		input.RecipientType,
		input.NotificationType,
		channel,
		status,
		payload,
		sentAt,
	)
	if err != nil {
		h.logger.Warn("failed to record notification", map[string]interface{}{
			"error":          err,
			"notificationId": id,
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

// renderTemplate substitutes {{key}} placeholders and strips any that
// remain unresolved.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
