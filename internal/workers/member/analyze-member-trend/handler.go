// internal/workers/member/analyze-member-trend/handler.go
package analyzemembertrend

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "analyze-member-trend"

	// Below this many records the split-halves comparison is noise.
	minHistorySize = 4
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
	analysis := Analyze(input.AttendanceHistory)

	h.logger.Info("member trend analyzed", map[string]interface{}{
		"memberId": input.Member.ID,
		"trend":    analysis.Trend,
		"change":   analysis.CommitmentChange,
	})

	return &Output{
		MemberID:         input.Member.ID,
		Trend:            analysis.Trend,
		AttendanceTrend:  analysis.AttendanceTrend,
		CommitmentChange: analysis.CommitmentChange,
		Prediction:       analysis.Prediction,
		FirstHalfRate:    analysis.FirstHalfRate,
		SecondHalfRate:   analysis.SecondHalfRate,
	}, nil
}

// Analyze compares attendance rates between the older and newer half of
// the history and classifies the trajectory.
func Analyze(history []models.AttendanceRecord) models.TrendAnalysis {
	if len(history) < minHistorySize {
		return models.TrendAnalysis{
			Trend:            "insufficient_data",
			AttendanceTrend:  "unknown",
			CommitmentChange: 0,
			Prediction:       "Datos insuficientes para análisis de tendencia",
		}
	}

	mid := len(history) / 2
	firstHalfRate := attendanceRate(history[:mid])
	secondHalfRate := attendanceRate(history[mid:])

	change := secondHalfRate - firstHalfRate

	var trend, attendanceTrend, prediction string
	switch {
	case change > 15:
		trend = "improving"
		attendanceTrend = "up"
		prediction = "Miembro mostrando mejora significativa en compromiso"
	case change > 5:
		trend = "stable_positive"
		attendanceTrend = "stable"
		prediction = "Miembro mantiene buen nivel de participación"
	case change > -5:
		trend = "stable"
		attendanceTrend = "stable"
		prediction = "Miembro mantiene nivel de participación consistente"
	case change > -15:
		trend = "declining"
		attendanceTrend = "down"
		prediction = "ALERTA: Miembro mostrando disminución en participación"
	default:
		trend = "critical"
		attendanceTrend = "down"
		prediction = "CRÍTICO: Fuerte caída en participación - acción inmediata requerida"
	}

	return models.TrendAnalysis{
		Trend:            trend,
		AttendanceTrend:  attendanceTrend,
		CommitmentChange: roundTo1(change),
		Prediction:       prediction,
		FirstHalfRate:    roundTo1(firstHalfRate),
		SecondHalfRate:   roundTo1(secondHalfRate),
	}
}

func attendanceRate(records []models.AttendanceRecord) float64 {
	attended := 0
	for _, r := range records {
		if r.Attended {
			attended++
		}
	}
	return float64(attended) / float64(len(records)) * 100
}

func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
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
