// internal/workers/member/generate-followup-recommendations/models.go
package generatefollowuprecommendations

import "church-workers/internal/models"

type Input struct {
	Member models.MemberRecord `json:"member"`
}

type Output struct {
	MemberID        string                          `json:"memberId"`
	Recommendations []models.FollowupRecommendation `json:"recommendations"`
}
