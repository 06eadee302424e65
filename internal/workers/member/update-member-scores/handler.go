// internal/workers/member/update-member-scores/handler.go
package updatememberscores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	cerrors "church-workers/internal/common/errors"
	"church-workers/internal/common/logger"
	"church-workers/internal/common/metrics"
	"church-workers/internal/models"
	"church-workers/internal/workers/member/calculate-commitment-score"
	"church-workers/internal/workers/member/detect-abandonment-risk"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "update-member-scores"

	cacheKeyPrefix = "member:profile:"
)

const memberSelectQuery = `
	SELECT id, church_id, first_name, last_name, member_type, attendance_rate,
	       last_attendance, membership_date, small_group_id, small_group_role,
	       ministries, spiritual_gifts
	FROM members
	WHERE id = $1`

const memberUpdateQuery = `
	UPDATE members
	SET commitment_score = $1, risk_level = $2, updated_at = NOW()
	WHERE id = $3`

const auditInsertQuery = `
	INSERT INTO audit_log (id, entity_type, entity_id, action, details, created_at)
	VALUES ($1, 'member', $2, 'scores_recalculated', $3, NOW())`

// Handler recomputes the derived member fields (commitment_score,
// risk_level) and persists them. The scorer packages own the formulas;
// this worker owns the storage and cache lifecycle around them.
type Handler struct {
	config      *Config
	db          *sql.DB
	redisClient *redis.Client
	logger      logger.Logger
	errHandler  *cerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	scopedLog := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		db:          db,
		redisClient: redisClient,
		logger:      scopedLog,
		errHandler:  cerrors.NewErrorHandler(scopedLog),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		// Report on a fresh context; the job context may already be expired.
		h.errHandler.HandleJobError(context.Background(), client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.MemberID == "" {
		return nil, cerrors.NewMemberNotFoundError("")
	}

	member, err := h.loadMember(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	commitment, _ := calculatecommitmentscore.Score(*member, now)

	// Risk detection reads the commitment field, so the fresh value has
	// to be on the record before detecting.
	member.CommitmentScore = commitment
	risk := detectabandonmentrisk.Detect(*member, now)

	if _, err := h.db.ExecContext(ctx, memberUpdateQuery, commitment, risk.Level, member.ID); err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("update_member_scores", err)
	}

	h.writeAuditEntry(ctx, member.ID, input.Trigger, commitment, risk)

	// The cached profile carries the old derived fields: drop it so the
	// next read sees the recomputed values.
	if err := h.redisClient.Del(ctx, cacheKeyPrefix+member.ID).Err(); err != nil {
		h.logger.Warn("failed to invalidate member cache", map[string]interface{}{
			"memberId": member.ID,
			"error":    err.Error(),
		})
	}

	metrics.MemberRiskLevels.WithLabelValues(risk.Level).Inc()

	h.logger.Info("member scores updated", map[string]interface{}{
		"memberId":        member.ID,
		"commitmentScore": commitment,
		"riskLevel":       risk.Level,
	})

	return &Output{
		MemberID:        member.ID,
		CommitmentScore: commitment,
		RiskLevel:       risk.Level,
		RiskScore:       risk.Score,
		RiskFactors:     risk.Factors,
		Updated:         true,
	}, nil
}

// loadMember reads the member profile through the Redis cache, falling
// back to PostgreSQL on a miss.
func (h *Handler) loadMember(ctx context.Context, memberID string) (*models.MemberRecord, error) {
	cacheKey := cacheKeyPrefix + memberID
	if val, err := h.redisClient.Get(ctx, cacheKey).Result(); err == nil {
		var member models.MemberRecord
		if err := json.Unmarshal([]byte(val), &member); err == nil {
			return &member, nil
		}
	}

	member, err := h.queryMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(member); err == nil {
		h.redisClient.Set(ctx, cacheKey, data, h.config.CacheTTL)
	}

	return member, nil
}

func (h *Handler) queryMember(ctx context.Context, memberID string) (*models.MemberRecord, error) {
	var (
		member         models.MemberRecord
		lastAttendance sql.NullTime
		membershipDate sql.NullTime
		smallGroupID   sql.NullString
		smallGroupRole sql.NullString
		ministries     pq.StringArray
		spiritualGifts pq.StringArray
	)

	row := h.db.QueryRowContext(ctx, memberSelectQuery, memberID)
	err := row.Scan(
		&member.ID, &member.ChurchID, &member.FirstName, &member.LastName,
		&member.MemberType, &member.AttendanceRate,
		&lastAttendance, &membershipDate, &smallGroupID, &smallGroupRole,
		&ministries, &spiritualGifts,
	)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewMemberNotFoundError(memberID)
	}
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("member_by_id", err)
	}

	if lastAttendance.Valid {
		member.LastAttendance = &lastAttendance.Time
	}
	if membershipDate.Valid {
		member.MembershipDate = &membershipDate.Time
	}
	member.SmallGroupID = smallGroupID.String
	member.SmallGroupRole = smallGroupRole.String
	member.Ministries = ministries
	member.SpiritualGifts = spiritualGifts

	return &member, nil
}

// writeAuditEntry records the recompute. Audit failures never fail the
// job: the score update already committed.
func (h *Handler) writeAuditEntry(ctx context.Context, memberID, trigger string, commitment float64, risk models.RiskAnalysis) {
	if trigger == "" {
		trigger = "manual"
	}

	details, _ := json.Marshal(map[string]interface{}{
		"trigger":         trigger,
		"commitmentScore": commitment,
		"riskLevel":       risk.Level,
		"riskScore":       risk.Score,
	})

	if _, err := h.db.ExecContext(ctx, auditInsertQuery, uuid.New().String(), memberID, details); err != nil {
		h.logger.Warn("failed to write audit entry", map[string]interface{}{
			"memberId": memberID,
			"error":    err.Error(),
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
