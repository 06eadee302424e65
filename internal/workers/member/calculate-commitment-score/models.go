// internal/workers/member/calculate-commitment-score/models.go
package calculatecommitmentscore

import "church-workers/internal/models"

type Input struct {
	Member models.MemberRecord `json:"member"`
}

type Output struct {
	MemberID        string         `json:"memberId"`
	CommitmentScore float64        `json:"commitmentScore"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
}

type ScoreBreakdown struct {
	Attendance int `json:"attendance"` // max 40
	Ministry   int `json:"ministry"`   // max 30
	Recency    int `json:"recency"`    // max 20
	Engagement int `json:"engagement"` // max 10
}
