// internal/workers/member/calculate-commitment-score/handler.go
package calculatecommitmentscore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-commitment-score"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
		h.failJob(client, job, "ASSESSMENT_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	score, breakdown := Score(input.Member, time.Now())

	h.logger.Info("commitment score calculated", map[string]interface{}{
		"memberId":  input.Member.ID,
		"score":     score,
		"breakdown": breakdown,
	})

	return &Output{
		MemberID:        input.Member.ID,
		CommitmentScore: score,
		Breakdown:       breakdown,
	}, nil
}

// Score computes the 0-100 engagement metric for a member. It is a pure
// function of the record and the reference time.
func Score(member models.MemberRecord, now time.Time) (float64, ScoreBreakdown) {
	breakdown := ScoreBreakdown{
		Attendance: attendancePoints(member.AttendanceRate),
		Ministry:   ministryPoints(member),
		Recency:    recencyPoints(member.LastAttendance, now),
		Engagement: engagementPoints(member),
	}

	total := float64(breakdown.Attendance + breakdown.Ministry + breakdown.Recency + breakdown.Engagement)
	if total > 100 {
		total = 100
	}
	return total, breakdown
}

func attendancePoints(rate float64) int {
	switch {
	case rate >= 80:
		return 40
	case rate >= 60:
		return 30
	case rate >= 40:
		return 20
	case rate >= 20:
		return 10
	}
	return 0
}

func ministryPoints(member models.MemberRecord) int {
	switch {
	case len(member.Ministries) >= 2:
		return 30
	case len(member.Ministries) == 1:
		return 20
	case member.SmallGroupID != "":
		return 10
	}
	return 0
}

func recencyPoints(lastAttendance *time.Time, now time.Time) int {
	if lastAttendance == nil {
		return 0
	}
	days := daysBetween(*lastAttendance, now)
	switch {
	case days < 7:
		return 20
	case days < 14:
		return 15
	case days < 21:
		return 10
	case days < 30:
		return 5
	}
	return 0
}

func engagementPoints(member models.MemberRecord) int {
	points := 0
	if len(member.SpiritualGifts) > 0 {
		points += 5
	}
	if member.SmallGroupRole == models.SmallGroupRoleLider || member.SmallGroupRole == models.SmallGroupRoleAnfitrion {
		points += 5
	}
	return points
}

// daysBetween counts whole calendar days from a past date to now.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
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
