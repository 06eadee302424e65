// internal/workers/data-access/query-members/handler_test.go
package querymembers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"church-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_MemberByID(t *testing.T) {
	db, mock := setupMockDB(t)

	lastAttendance := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, church_id, first_name, last_name, member_type`).
		WithArgs("member-100").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "church_id", "first_name", "last_name", "member_type",
			"attendance_rate", "last_attendance", "membership_date",
			"small_group_id", "small_group_role", "ministries", "spiritual_gifts",
			"commitment_score", "risk_level",
		}).AddRow("member-100", "church-1", "Ana", "García", "activo",
			85.0, lastAttendance, nil,
			"sg-1", "lider", "{alabanza}", "{musica}",
			95.0, "bajo"))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		QueryType: "member_by_id",
		MemberID:  "member-100",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)

	data, ok := output.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "member-100", data["id"])
	assert.Equal(t, "activo", data["memberType"])
	assert.Equal(t, []string{"alabanza"}, data["ministries"])
	assert.Equal(t, 95.0, data["commitmentScore"])
	assert.Equal(t, "bajo", data["riskLevel"])
	assert.NotContains(t, data, "membershipDate")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_MembersAtRisk(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, first_name, last_name, member_type, attendance_rate`).
		WithArgs("church-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "member_type", "attendance_rate",
			"last_attendance", "commitment_score", "risk_level",
		}).
			AddRow("member-201", "Luis", "Pérez", "activo", 15.0, nil, 10.0, "critico").
			AddRow("member-202", "Eva", "Ruiz", "visitante", 30.0, nil, 25.0, "alto"))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		QueryType: "members_at_risk",
		ChurchID:  "church-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, output.RowCount)

	members, ok := output.Data.([]map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "member-201", members[0]["id"])
	assert.Equal(t, "critico", members[0]["riskLevel"])
	assert.Equal(t, "alto", members[1]["riskLevel"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ChurchMemberStats(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("church-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"count", "active", "visitors", "inactive", "at_risk",
			"avg_attendance", "avg_commitment",
		}).AddRow(120, 90, 20, 10, 14, 68.5, 61.2))

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		QueryType: "church_member_stats",
		ChurchID:  "church-1",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)

	stats, ok := output.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, 120, stats["totalMembers"])
	assert.Equal(t, 90, stats["activeMembers"])
	assert.Equal(t, 14, stats["membersAtRisk"])
	assert.Equal(t, 68.5, stats["avgAttendanceRate"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_InvalidQueryType(t *testing.T) {
	db, _ := setupMockDB(t)
	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		QueryType: "drop_all_tables",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_QUERY_TYPE")
	assert.Nil(t, output)
}

func TestHandler_Execute_MemberNotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, church_id, first_name, last_name, member_type`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		QueryType: "member_by_id",
		MemberID:  "missing",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MEMBER_NOT_FOUND")
	assert.Nil(t, output)
}

func TestHandler_Execute_MissingParameter(t *testing.T) {
	db, _ := setupMockDB(t)
	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	// member_by_id without a memberId never reaches the database.
	output, err := handler.execute(context.Background(), &Input{
		QueryType: "member_by_id",
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter")
	assert.Nil(t, output)
}

func TestHandler_Execute_NilInput(t *testing.T) {
	db, _ := setupMockDB(t)
	handler := NewHandler(createTestConfig(), db, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), nil)

	assert.Error(t, err)
	assert.Nil(t, output)
}
