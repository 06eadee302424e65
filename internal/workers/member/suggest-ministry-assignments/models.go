// internal/workers/member/suggest-ministry-assignments/models.go
package suggestministryassignments

import "church-workers/internal/models"

type Input struct {
	Member models.MemberRecord `json:"member"`
}

type Output struct {
	MemberID    string                      `json:"memberId"`
	Suggestions []models.MinistrySuggestion `json:"suggestions"`
}
