// internal/models/query.go
package models

// QueryType names a registered member data query.
type QueryType string

const (
	QueryTypeMemberByID        QueryType = "member_by_id"
	QueryTypeMembersAtRisk     QueryType = "members_at_risk"
	QueryTypeChurchMemberStats QueryType = "church_member_stats"
)
