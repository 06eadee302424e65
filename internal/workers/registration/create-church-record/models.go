// internal/workers/registration/create-church-record/models.go
package createchurchrecord

import "church-workers/internal/models"

type Input struct {
	PastorID       string                         `json:"pastorId"`
	Registration   models.ChurchRegistrationInput `json:"registration"`
	RiskAssessment models.ChurchRiskAssessment    `json:"riskAssessment"`
}

type Output struct {
	ChurchID              string   `json:"churchId"`
	Status                string   `json:"status"`
	Message               string   `json:"message"`
	EstimatedApprovalTime string   `json:"estimatedApprovalTime"`
	NextSteps             []string `json:"nextSteps"`
	CreatedAt             string   `json:"createdAt"`
}

// statusDerivation is the onboarding outcome shown to the registrant.
type statusDerivation struct {
	Status                string
	Message               string
	EstimatedApprovalTime string
	NextSteps             []string
}
