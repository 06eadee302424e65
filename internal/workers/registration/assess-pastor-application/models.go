// internal/workers/registration/assess-pastor-application/models.go
package assesspastorapplication

import "church-workers/internal/models"

type Input struct {
	Email      string                  `json:"email"`
	FirstName  string                  `json:"firstName"`
	LastName   string                  `json:"lastName"`
	PastorInfo *models.PastoralProfile `json:"pastorInfo,omitempty"`
}

type Output struct {
	Score                 float64  `json:"score"`
	Decision              string   `json:"decision"` // auto_approve, manual_review, request_more_info
	Message               string   `json:"message"`
	PositiveFactors       []string `json:"positiveFactors"`
	NegativeFactors       []string `json:"negativeFactors"`
	EstimatedApprovalTime string   `json:"estimatedApprovalTime"`
	CanCreateChurch       bool     `json:"canCreateChurch"`
}
