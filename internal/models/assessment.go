// internal/models/assessment.go
package models

// Pastor application decisions.
const (
	DecisionAutoApprove     = "auto_approve"
	DecisionManualReview    = "manual_review"
	DecisionRequestMoreInfo = "request_more_info"
)

// Church risk recommendations. There is no auto-reject path: the worst
// outcome this assessment can produce is a manual review.
const (
	RecommendationApprove = "approve"
	RecommendationReview  = "review"
)

// Church validation statuses derived from the risk score.
const (
	ChurchStatusValidated         = "validated"
	ChurchStatusPendingValidation = "pending_validation"
)

// Follow-up recommendation priorities, highest first.
const (
	PriorityCritica = "critica"
	PriorityAlta    = "alta"
	PriorityMedia   = "media"
	PriorityBaja    = "baja"
)

// PastorAssessment is the verdict on a pastor registration application.
type PastorAssessment struct {
	Score                 float64  `json:"score"`
	Decision              string   `json:"decision"`
	Message               string   `json:"message"`
	PositiveFactors       []string `json:"positiveFactors"`
	NegativeFactors       []string `json:"negativeFactors"`
	EstimatedApprovalTime string   `json:"estimatedApprovalTime"`
	CanCreateChurch       bool     `json:"canCreateChurch"`
}

// ChurchRiskAssessment is the fraud/legitimacy verdict on a church
// registration. RiskScore is clamped to [0, 0.8].
type ChurchRiskAssessment struct {
	RiskScore          float64  `json:"riskScore"`
	RiskFactors        []string `json:"riskFactors"`
	PositiveIndicators []string `json:"positiveIndicators"`
	Recommendation     string   `json:"recommendation"`
	Reasoning          string   `json:"reasoning"`
}

// RiskAnalysis is the abandonment-risk verdict on a member record.
type RiskAnalysis struct {
	Level          string   `json:"level"`
	Score          int      `json:"score"`
	Factors        []string `json:"factors"`
	Recommendation string   `json:"recommendation"`
}

// FollowupRecommendation is one suggested pastoral action for a member.
type FollowupRecommendation struct {
	Action   string `json:"action"`
	Priority string `json:"priority"`
	Channel  string `json:"channel,omitempty"`
	Reason   string `json:"reason"`
	Template string `json:"template,omitempty"`
}

// MinistrySuggestion is a candidate ministry assignment derived from a
// member's spiritual gifts and professional skills.
type MinistrySuggestion struct {
	Ministry string `json:"ministry"`
	Reason   string `json:"reason"`
	FitScore int    `json:"fitScore"`
}

// TrendAnalysis summarizes a member's attendance trajectory over the
// recorded history.
type TrendAnalysis struct {
	Trend            string  `json:"trend"`
	AttendanceTrend  string  `json:"attendanceTrend"`
	CommitmentChange float64 `json:"commitmentChange"`
	Prediction       string  `json:"prediction"`
	FirstHalfRate    float64 `json:"firstHalfRate,omitempty"`
	SecondHalfRate   float64 `json:"secondHalfRate,omitempty"`
}
