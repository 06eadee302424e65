// internal/workers/registration/assess-church-risk/models.go
package assesschurchrisk

import "church-workers/internal/models"

type Input struct {
	ChurchName          string                 `json:"churchName"`
	ContactEmail        string                 `json:"contactEmail"`
	Denomination        string                 `json:"denomination,omitempty"`
	LegalRepresentative string                 `json:"legalRepresentative,omitempty"`
	WebsiteURL          string                 `json:"websiteUrl,omitempty"`
	Metadata            models.RequestMetadata `json:"metadata"`
}

type Output struct {
	RiskScore          float64  `json:"riskScore"`
	RiskFactors        []string `json:"riskFactors"`
	PositiveIndicators []string `json:"positiveIndicators"`
	Recommendation     string   `json:"recommendation"` // approve or review
	Reasoning          string   `json:"reasoning"`
}
