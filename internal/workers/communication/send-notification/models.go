// internal/workers/communication/send-notification/models.go
package sendnotification

type Input struct {
	RecipientID      string                 `json:"recipientId"`
	RecipientType    string                 `json:"recipientType"` // "pastor" or "member"
	NotificationType string                 `json:"notificationType"`
	ChurchID         string                 `json:"churchId,omitempty"`
	Priority         string                 `json:"priority,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeApprovalDecision = "approval_decision"
	TypeChurchValidation = "church_validation"
	TypeFollowupAction   = "followup_action"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Recipient types
const (
	RecipientTypePastor = "pastor"
	RecipientTypeMember = "member"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
