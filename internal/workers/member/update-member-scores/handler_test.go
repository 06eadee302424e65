// internal/workers/member/update-member-scores/handler_test.go
package updatememberscores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout:  5 * time.Second,
		CacheTTL: 10 * time.Minute,
	}
}

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func memberColumns() []string {
	return []string{
		"id", "church_id", "first_name", "last_name", "member_type",
		"attendance_rate", "last_attendance", "membership_date",
		"small_group_id", "small_group_role", "ministries", "spiritual_gifts",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_CacheMiss_HealthyMember(t *testing.T) {
	rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	lastAttendance := time.Now().AddDate(0, 0, -3)
	membershipDate := time.Now().AddDate(-2, 0, 0)

	mock.ExpectQuery(`SELECT id, church_id, first_name, last_name, member_type`).
		WithArgs("member-500").
		WillReturnRows(sqlmock.NewRows(memberColumns()).
			AddRow("member-500", "church-1", "Ana", "García", "activo",
				85.0, lastAttendance, membershipDate,
				"sg-1", "lider", "{alabanza,jovenes}", "{musica}"))

	// Attendance 40 + two ministries 30 + recent attendance 20 +
	// gifts and leadership 10 caps the commitment at 100.
	mock.ExpectExec(`UPDATE members`).
		WithArgs(100.0, "bajo", "member-500").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), "member-500", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{MemberID: "member-500"})

	assert.NoError(t, err)
	assert.Equal(t, "member-500", output.MemberID)
	assert.Equal(t, 100.0, output.CommitmentScore)
	assert.Equal(t, "bajo", output.RiskLevel)
	assert.Equal(t, 0, output.RiskScore)
	assert.Empty(t, output.RiskFactors)
	assert.True(t, output.Updated)

	assert.NoError(t, mock.ExpectationsWereMet())

	// The cache entry written during the read-through is dropped again
	// once the new scores commit.
	_, getErr := rdb.Get(context.Background(), "member:profile:member-500").Result()
	assert.Equal(t, redis.Nil, getErr)
}

func TestHandler_Execute_CacheHit_AtRiskMember(t *testing.T) {
	rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	membershipDate := time.Now().AddDate(0, 0, -120)
	member := models.MemberRecord{
		ID:             "member-501",
		ChurchID:       "church-1",
		FirstName:      "Luis",
		LastName:       "Pérez",
		MemberType:     "visitante",
		AttendanceRate: 10,
		MembershipDate: &membershipDate,
	}
	cached, _ := json.Marshal(member)
	err := rdb.Set(context.Background(), "member:profile:member-501", cached, 10*time.Minute).Err()
	assert.NoError(t, err)

	// No SELECT expected: the profile comes from the cache.
	mock.ExpectExec(`UPDATE members`).
		WithArgs(0.0, "critico", "member-501").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(sqlmock.AnyArg(), "member-501", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{
		MemberID: "member-501",
		Trigger:  "attendance_registered",
	})

	assert.NoError(t, err)
	assert.Equal(t, 0.0, output.CommitmentScore)
	assert.Equal(t, "critico", output.RiskLevel)
	assert.Equal(t, 100, output.RiskScore)
	assert.Contains(t, output.RiskFactors, "sin_registro_asistencia")
	assert.Contains(t, output.RiskFactors, "visitante_estancado")

	assert.NoError(t, mock.ExpectationsWereMet())

	_, getErr := rdb.Get(context.Background(), "member:profile:member-501").Result()
	assert.Equal(t, redis.Nil, getErr)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_MemberNotFound(t *testing.T) {
	rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, church_id, first_name, last_name, member_type`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{MemberID: "missing"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MEMBER_NOT_FOUND")
	assert.Nil(t, output)
}

func TestHandler_Execute_EmptyMemberID(t *testing.T) {
	rdb := setupRedis(t)
	db, _ := setupMockDB(t)

	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MEMBER_NOT_FOUND")
	assert.Nil(t, output)
}

func TestHandler_Execute_UpdateFails(t *testing.T) {
	rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	mock.ExpectQuery(`SELECT id, church_id, first_name, last_name, member_type`).
		WithArgs("member-502").
		WillReturnRows(sqlmock.NewRows(memberColumns()).
			AddRow("member-502", "church-1", "Eva", "Ruiz", "activo",
				50.0, nil, nil, "", "", "{}", "{}"))

	mock.ExpectExec(`UPDATE members`).
		WillReturnError(fmt.Errorf("connection reset"))

	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{MemberID: "member-502"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "QUERY_EXECUTION_FAILED")
	assert.Nil(t, output)
}

func TestHandler_Execute_AuditFailureIsNonCritical(t *testing.T) {
	rdb := setupRedis(t)
	db, mock := setupMockDB(t)

	lastAttendance := time.Now().AddDate(0, 0, -3)

	mock.ExpectQuery(`SELECT id, church_id, first_name, last_name, member_type`).
		WithArgs("member-503").
		WillReturnRows(sqlmock.NewRows(memberColumns()).
			AddRow("member-503", "church-1", "Juan", "Soto", "activo",
				85.0, lastAttendance, nil,
				"sg-2", "miembro", "{alabanza,jovenes}", "{musica}"))

	mock.ExpectExec(`UPDATE members`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnError(fmt.Errorf("audit_log table locked"))

	handler := NewHandler(createTestConfig(), db, rdb, logger.NewTestLogger(t))

	output, err := handler.execute(context.Background(), &Input{MemberID: "member-503"})

	assert.NoError(t, err)
	assert.True(t, output.Updated)

	assert.NoError(t, mock.ExpectationsWereMet())
}
