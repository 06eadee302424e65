// internal/workers/data-access/query-members/queries/member.go
package queries

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

func MemberByID(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	memberID, ok := params["memberId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var (
		id, churchID, firstName, lastName, memberType string
		attendanceRate, commitmentScore               float64
		riskLevel                                     string
		lastAttendance, membershipDate                sql.NullTime
		smallGroupID, smallGroupRole                  sql.NullString
		ministries, spiritualGifts                    pq.StringArray
	)

	err := db.QueryRowContext(ctx, `
		SELECT id, church_id, first_name, last_name, member_type,
		       attendance_rate, last_attendance, membership_date,
		       small_group_id, small_group_role, ministries, spiritual_gifts,
		       commitment_score, risk_level
		FROM members
		WHERE id = $1`, memberID).Scan(
		&id, &churchID, &firstName, &lastName, &memberType,
		&attendanceRate, &lastAttendance, &membershipDate,
		&smallGroupID, &smallGroupRole, &ministries, &spiritualGifts,
		&commitmentScore, &riskLevel,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":              id,
		"churchId":        churchID,
		"firstName":       firstName,
		"lastName":        lastName,
		"memberType":      memberType,
		"attendanceRate":  attendanceRate,
		"smallGroupId":    smallGroupID.String,
		"smallGroupRole":  smallGroupRole.String,
		"ministries":      []string(ministries),
		"spiritualGifts":  []string(spiritualGifts),
		"commitmentScore": commitmentScore,
		"riskLevel":       riskLevel,
	}
	if lastAttendance.Valid {
		result["lastAttendance"] = lastAttendance.Time.Format(time.RFC3339)
	}
	if membershipDate.Valid {
		result["membershipDate"] = membershipDate.Time.Format(time.RFC3339)
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

// MembersAtRisk lists a church's members in the alto or critico tiers,
// worst commitment first.
func MembersAtRisk(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	churchID, ok := params["churchId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, first_name, last_name, member_type, attendance_rate,
		       last_attendance, commitment_score, risk_level
		FROM members
		WHERE church_id = $1 AND risk_level IN ('alto', 'critico')
		ORDER BY commitment_score ASC`, churchID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var members []map[string]interface{}
	for rows.Next() {
		var (
			id, firstName, lastName, memberType, riskLevel string
			attendanceRate, commitmentScore                float64
			lastAttendance                                 sql.NullTime
		)
		if err := rows.Scan(&id, &firstName, &lastName, &memberType,
			&attendanceRate, &lastAttendance, &commitmentScore, &riskLevel); err != nil {
			return nil, 0, 0, err
		}

		member := map[string]interface{}{
			"id":              id,
			"firstName":       firstName,
			"lastName":        lastName,
			"memberType":      memberType,
			"attendanceRate":  attendanceRate,
			"commitmentScore": commitmentScore,
			"riskLevel":       riskLevel,
		}
		if lastAttendance.Valid {
			member["lastAttendance"] = lastAttendance.Time.Format(time.RFC3339)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return members, len(members), execTime, nil
}
