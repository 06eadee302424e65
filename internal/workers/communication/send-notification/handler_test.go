// internal/workers/communication/send-notification/handler_test.go
package sendnotification

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

type mockSES struct {
	err   error
	calls []*ses.SendEmailInput
}

func (m *mockSES) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	m.calls = append(m.calls, input)
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	err   error
	calls []*sns.PublishInput
}

func (m *mockSNS) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, input)
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

func createTestConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "noreply@iglesia.app",
		SMSPriority:  "critica",
		Timeout:      5 * time.Second,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testTemplates() map[string]models.NotificationTemplate {
	return map[string]models.NotificationTemplate{
		TypeChurchValidation: {
			ID:      "tmpl-church-validation",
			Type:    TypeChurchValidation,
			Subject: "Validación de {{churchName}}",
			Body:    "Hola {{pastorName}}, el registro de {{churchName}} fue procesado.",
			Version: "1.0",
		},
		TypeFollowupAction: {
			ID:       "tmpl-followup-action",
			Type:     TypeFollowupAction,
			Subject:  "Seguimiento pastoral requerido",
			Body:     "El miembro {{memberName}} necesita seguimiento. Prioridad: {{priority}}.",
			HTMLBody: "<p>El miembro <b>{{memberName}}</b> necesita seguimiento.</p>",
			Version:  "1.0",
		},
	}
}

func newTestHandler(t *testing.T, config *Config, db *sql.DB, sesMock *mockSES, snsMock *mockSNS) *Handler {
	return &Handler{
		config:    config,
		db:        db,
		logger:    logger.NewTestLogger(t),
		sesClient: sesMock,
		snsClient: snsMock,
		templates: testTemplates(),
	}
}

func expectNotificationInsert(mock sqlmock.Sqlmock) {
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute_EmailOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	sesMock := &mockSES{}
	snsMock := &mockSNS{}

	mock.ExpectQuery("SELECT email, phone FROM pastors").
		WithArgs("pastor-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
			AddRow("pastor@iglesia.app", "+5215512345678"))
	expectNotificationInsert(mock)

	handler := newTestHandler(t, createTestConfig(), db, sesMock, snsMock)

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "pastor-1",
		RecipientType:    RecipientTypePastor,
		NotificationType: TypeChurchValidation,
		Priority:         "media",
		Metadata: map[string]interface{}{
			"churchName": "Iglesia Central",
			"pastorName": "Juan",
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail}, output.Channels)

	assert.Len(t, sesMock.calls, 1)
	call := sesMock.calls[0]
	assert.Equal(t, "Validación de Iglesia Central", *call.Message.Subject.Data)
	assert.Contains(t, *call.Message.Body.Text.Data, "Hola Juan")
	assert.Equal(t, "noreply@iglesia.app", *call.Source)
	assert.Equal(t, []string{"pastor@iglesia.app"}, call.Destination.ToAddresses)

	// Priority below the threshold keeps SMS quiet.
	assert.Empty(t, snsMock.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CriticalPrioritySendsSMS(t *testing.T) {
	db, mock := setupMockDB(t)
	sesMock := &mockSES{}
	snsMock := &mockSNS{}

	mock.ExpectQuery("SELECT email, phone FROM members").
		WithArgs("member-100").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
			AddRow("ana@example.com", "+5215598765432"))
	expectNotificationInsert(mock)
	expectNotificationInsert(mock)

	handler := newTestHandler(t, createTestConfig(), db, sesMock, snsMock)

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "member-100",
		RecipientType:    RecipientTypeMember,
		NotificationType: TypeFollowupAction,
		Priority:         "critica",
		Metadata:         map[string]interface{}{"memberName": "Ana"},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail, ChannelSMS}, output.Channels)

	assert.Len(t, snsMock.calls, 1)
	assert.Equal(t, "+5215598765432", *snsMock.calls[0].PhoneNumber)
	assert.Contains(t, *snsMock.calls[0].Message, "Ana")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RecipientMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	sesMock := &mockSES{}
	snsMock := &mockSNS{}

	mock.ExpectQuery("SELECT email, phone FROM members").
		WithArgs("member-404").
		WillReturnError(sql.ErrNoRows)

	handler := newTestHandler(t, createTestConfig(), db, sesMock, snsMock)

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "member-404",
		RecipientType:    RecipientTypeMember,
		NotificationType: TypeFollowupAction,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Empty(t, output.Channels)
	assert.Empty(t, sesMock.calls)
	assert.Empty(t, snsMock.calls)
}

func TestHandler_Execute_InvalidRecipientType(t *testing.T) {
	db, _ := setupMockDB(t)
	sesMock := &mockSES{}

	handler := newTestHandler(t, createTestConfig(), db, sesMock, &mockSNS{})

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "bot-1",
		RecipientType:    "robot",
		NotificationType: TypeFollowupAction,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusDisabled, output.Status)
	assert.Empty(t, sesMock.calls)
}

func TestHandler_Execute_TemplateNotFound(t *testing.T) {
	db, _ := setupMockDB(t)

	handler := newTestHandler(t, createTestConfig(), db, &mockSES{}, &mockSNS{})

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "member-100",
		RecipientType:    RecipientTypeMember,
		NotificationType: "unknown_type",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TEMPLATE_NOT_FOUND")
	assert.Nil(t, output)
}

func TestHandler_Execute_EmailFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	sesMock := &mockSES{err: errors.New("ses throttled")}
	snsMock := &mockSNS{}

	mock.ExpectQuery("SELECT email, phone FROM members").
		WithArgs("member-100").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
			AddRow("ana@example.com", "+5215598765432"))
	expectNotificationInsert(mock)

	handler := newTestHandler(t, createTestConfig(), db, sesMock, snsMock)

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "member-100",
		RecipientType:    RecipientTypeMember,
		NotificationType: TypeFollowupAction,
		Priority:         "critica",
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
	assert.Empty(t, output.Channels)

	// No SMS attempt after the email channel fails.
	assert.Empty(t, snsMock.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_NullPhoneSkipsSMS(t *testing.T) {
	db, mock := setupMockDB(t)
	sesMock := &mockSES{}
	snsMock := &mockSNS{}

	mock.ExpectQuery("SELECT email, phone FROM members").
		WithArgs("member-100").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
			AddRow("ana@example.com", nil))
	expectNotificationInsert(mock)

	handler := newTestHandler(t, createTestConfig(), db, sesMock, snsMock)

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "member-100",
		RecipientType:    RecipientTypeMember,
		NotificationType: TypeFollowupAction,
		Priority:         "critica",
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail}, output.Channels)
	assert.Empty(t, snsMock.calls)
}

func TestHandler_Execute_RecordFailureIsNonCritical(t *testing.T) {
	db, mock := setupMockDB(t)
	sesMock := &mockSES{}

	mock.ExpectQuery("SELECT email, phone FROM pastors").
		WithArgs("pastor-1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).
			AddRow("pastor@iglesia.app", ""))
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnError(errors.New("notifications table locked"))

	handler := newTestHandler(t, createTestConfig(), db, sesMock, &mockSNS{})

	output, err := handler.execute(context.Background(), &Input{
		RecipientID:      "pastor-1",
		RecipientType:    RecipientTypePastor,
		NotificationType: TypeChurchValidation,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
}

// ==========================
// Template Rendering Tests
// ==========================

func TestRenderTemplate(t *testing.T) {
	result := renderTemplate("Hola {{name}}, tienes {{count}} avisos.", map[string]interface{}{
		"name":  "Ana",
		"count": 3,
	})
	assert.Equal(t, "Hola Ana, tienes 3 avisos.", result)
}

func TestRenderTemplate_StripsUnresolvedPlaceholders(t *testing.T) {
	result := renderTemplate("Hola {{name}}{{missing}}!", map[string]interface{}{
		"name": "Ana",
	})
	assert.Equal(t, "Hola Ana!", result)
}
