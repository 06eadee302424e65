// internal/workers/member/detect-abandonment-risk/models.go
package detectabandonmentrisk

import "church-workers/internal/models"

type Input struct {
	Member models.MemberRecord `json:"member"`
}

type Output struct {
	MemberID       string   `json:"memberId"`
	RiskLevel      string   `json:"riskLevel"` // bajo, medio, alto, critico
	RiskScore      int      `json:"riskScore"`
	RiskFactors    []string `json:"riskFactors"`
	Recommendation string   `json:"recommendation"`
}
