// internal/workers/member/detect-abandonment-risk/handler.go
package detectabandonmentrisk

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"church-workers/internal/common/logger"
	"church-workers/internal/common/metrics"
	"church-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "detect-abandonment-risk"
)

var riskRecommendations = map[string]string{
	models.RiskLevelCritico: "ACCIÓN URGENTE: Visita pastoral inmediata requerida. El miembro está en alto riesgo de abandono.",
	models.RiskLevelAlto:    "PRIORIDAD ALTA: Contacto personal esta semana. Considerar visita o reunión individual.",
	models.RiskLevelMedio:   "Seguimiento recomendado: Llamada telefónica o mensaje personalizado en los próximos 7 días.",
	models.RiskLevelBajo:    "Seguimiento regular: Incluir en comunicaciones generales y monitorear evolución.",
}

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
	analysis := Detect(input.Member, time.Now())

	h.logger.Info("abandonment risk detected", map[string]interface{}{
		"memberId": input.Member.ID,
		"level":    analysis.Level,
		"score":    analysis.Score,
	})
	metrics.MemberRiskLevels.WithLabelValues(analysis.Level).Inc()

	return &Output{
		MemberID:       input.Member.ID,
		RiskLevel:      analysis.Level,
		RiskScore:      analysis.Score,
		RiskFactors:    analysis.Factors,
		Recommendation: analysis.Recommendation,
	}, nil
}

// Detect accumulates penalty points from six independent factors and
// maps the total to a risk tier. Pure function of the record and the
// reference time.
func Detect(member models.MemberRecord, now time.Time) models.RiskAnalysis {
	factors := []string{}
	score := 0

	// Prolonged absence: highest tier wins.
	if member.LastAttendance != nil {
		days := daysBetween(*member.LastAttendance, now)
		switch {
		case days > 60:
			factors = append(factors, "ausencia_critica_60_dias")
			score += 35
		case days > 30:
			factors = append(factors, "ausencia_prolongada_30_dias")
			score += 25
		case days > 21:
			factors = append(factors, "ausencia_21_dias")
			score += 15
		case days > 14:
			factors = append(factors, "ausencia_14_dias")
			score += 10
		}
	} else {
		factors = append(factors, "sin_registro_asistencia")
		score += 20
	}

	switch {
	case member.AttendanceRate < 20:
		factors = append(factors, "asistencia_muy_baja")
		score += 25
	case member.AttendanceRate < 40:
		factors = append(factors, "asistencia_baja")
		score += 15
	case member.AttendanceRate < 60:
		factors = append(factors, "asistencia_irregular")
		score += 10
	}

	if len(member.Ministries) == 0 {
		factors = append(factors, "sin_participacion_ministerial")
		score += 15
	}

	if member.SmallGroupID == "" {
		factors = append(factors, "sin_grupo_pequeno")
		score += 10
	}

	switch {
	case member.CommitmentScore < 30:
		factors = append(factors, "compromiso_muy_bajo")
		score += 15
	case member.CommitmentScore < 50:
		factors = append(factors, "compromiso_bajo")
		score += 10
	}

	if member.MemberType == models.MemberTypeVisitante && member.MembershipDate != nil {
		if daysBetween(*member.MembershipDate, now) > 90 {
			factors = append(factors, "visitante_estancado")
			score += 15
		}
	}

	level := classifyRiskLevel(score)

	if score > 100 {
		score = 100
	}

	return models.RiskAnalysis{
		Level:          level,
		Score:          score,
		Factors:        factors,
		Recommendation: riskRecommendations[level],
	}
}

func classifyRiskLevel(score int) string {
	switch {
	case score >= 70:
		return models.RiskLevelCritico
	case score >= 50:
		return models.RiskLevelAlto
	case score >= 30:
		return models.RiskLevelMedio
	}
	return models.RiskLevelBajo
}

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
