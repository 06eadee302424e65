// internal/workers/member/analyze-member-trend/models.go
package analyzemembertrend

import "church-workers/internal/models"

type Input struct {
	Member            models.MemberRecord       `json:"member"`
	AttendanceHistory []models.AttendanceRecord `json:"attendanceHistory"`
}

type Output struct {
	MemberID         string  `json:"memberId"`
	Trend            string  `json:"trend"` // improving, stable_positive, stable, declining, critical, insufficient_data
	AttendanceTrend  string  `json:"attendanceTrend"`
	CommitmentChange float64 `json:"commitmentChange"`
	Prediction       string  `json:"prediction"`
	FirstHalfRate    float64 `json:"firstHalfRate,omitempty"`
	SecondHalfRate   float64 `json:"secondHalfRate,omitempty"`
}
