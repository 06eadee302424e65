// internal/workers/member/update-member-scores/models.go
package updatememberscores

type Input struct {
	MemberID string `json:"memberId"`
	// Trigger records what caused the recompute (attendance_registered,
	// member_updated, manual) and is written to the audit trail.
	Trigger string `json:"trigger,omitempty"`
}

type Output struct {
	MemberID        string   `json:"memberId"`
	CommitmentScore float64  `json:"commitmentScore"`
	RiskLevel       string   `json:"riskLevel"`
	RiskScore       int      `json:"riskScore"`
	RiskFactors     []string `json:"riskFactors,omitempty"`
	Updated         bool     `json:"updated"`
}
