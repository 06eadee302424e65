// internal/models/member.go
package models

import "time"

// Member types as stored on the record.
const (
	MemberTypeActivo    = "activo"
	MemberTypeVisitante = "visitante"
	MemberTypeInactivo  = "inactivo"
)

// Abandonment risk levels, ordered from lowest to highest.
const (
	RiskLevelBajo    = "bajo"
	RiskLevelMedio   = "medio"
	RiskLevelAlto    = "alto"
	RiskLevelCritico = "critico"
)

// Small group roles that count as leadership for engagement scoring.
const (
	SmallGroupRoleLider    = "lider"
	SmallGroupRoleAnfitrion = "anfitrion"
)

// MemberRecord is a congregation member as seen by the scoring workers.
// CommitmentScore and RiskLevel are derived fields: they are only written
// by the update-member-scores worker, never by the scorers themselves.
type MemberRecord struct {
	ID       string `json:"id"`
	ChurchID string `json:"churchId"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`

	BirthDate      *time.Time `json:"birthDate,omitempty"`
	MembershipDate *time.Time `json:"membershipDate,omitempty"`
	MemberType     string     `json:"memberType"`

	AttendanceRate float64    `json:"attendanceRate"`
	LastAttendance *time.Time `json:"lastAttendance,omitempty"`

	Ministries     []string `json:"ministries,omitempty"`
	SmallGroupID   string   `json:"smallGroupId,omitempty"`
	SmallGroupRole string   `json:"smallGroupRole,omitempty"`
	SpiritualGifts []string `json:"spiritualGifts,omitempty"`
	Skills         []string `json:"skills,omitempty"`

	CommitmentScore float64 `json:"commitmentScore"`
	RiskLevel       string  `json:"riskLevel"`

	PreferredContactMethod string `json:"preferredContactMethod,omitempty"`
}

// AttendanceRecord is a single service attendance entry, used by the
// trend analysis worker.
type AttendanceRecord struct {
	MemberID    string    `json:"memberId"`
	ServiceDate time.Time `json:"serviceDate"`
	Attended    bool      `json:"attended"`
}
