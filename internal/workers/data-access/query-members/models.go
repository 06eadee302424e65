// internal/workers/data-access/query-members/models.go
package querymembers

import "church-workers/internal/models"

type Input struct {
	QueryType string                 `json:"queryType"`
	MemberID  string                 `json:"memberId,omitempty"`
	ChurchID  string                 `json:"churchId,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeMemberByID        = models.QueryTypeMemberByID
	QueryTypeMembersAtRisk     = models.QueryTypeMembersAtRisk
	QueryTypeChurchMemberStats = models.QueryTypeChurchMemberStats
)
