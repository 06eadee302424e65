// internal/workers/data-access/query-members/queries/church.go
package queries

import (
	"context"
	"database/sql"
	"time"
)

// ChurchMemberStats aggregates a congregation into a single summary row.
func ChurchMemberStats(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	churchID, ok := params["churchId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var (
		total, active, visitors, inactive, atRisk int
		avgAttendance, avgCommitment              float64
	)

	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE member_type = 'activo'),
		       COUNT(*) FILTER (WHERE member_type = 'visitante'),
		       COUNT(*) FILTER (WHERE member_type = 'inactivo'),
		       COUNT(*) FILTER (WHERE risk_level IN ('alto', 'critico')),
		       COALESCE(AVG(attendance_rate), 0),
		       COALESCE(AVG(commitment_score), 0)
		FROM members
		WHERE church_id = $1`, churchID).Scan(
		&total, &active, &visitors, &inactive, &atRisk,
		&avgAttendance, &avgCommitment,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"churchId":           churchID,
		"totalMembers":       total,
		"activeMembers":      active,
		"visitors":           visitors,
		"inactiveMembers":    inactive,
		"membersAtRisk":      atRisk,
		"avgAttendanceRate":  avgAttendance,
		"avgCommitmentScore": avgCommitment,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}
