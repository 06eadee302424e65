// internal/workers/registration/assess-pastor-application/handler.go
package assesspastorapplication

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"church-workers/internal/common/logger"
	"church-workers/internal/common/metrics"
	"church-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "assess-pastor-application"
)

// Email domains operated by church institutions. Matched by substring
// against the applicant's email domain.
var churchDomains = []string{
	"church.org", "iglesia.org", "ministerio.org", "templo.org",
	"pastoral.com", "pastor.com", "cristianos.org",
}

var genericProviders = []string{
	"gmail.com", "hotmail.com", "yahoo.com", "outlook.com",
}

var recognizedDenominations = []string{
	"evangelica", "pentecostal", "bautista", "metodista",
	"presbiteriana", "adventista", "anglicana", "luterana",
	"catolica", "cristiana", "apostolica", "reformada",
}

var religiousKeywords = []string{"pastor", "iglesia", "church", "ministerio"}

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

// execute never returns an error to the workflow: any internal fault
// degrades to the fixed manual-review fallback so the registration flow
// is never blocked by scoring.
func (h *Handler) execute(ctx context.Context, input *Input) (out *Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("assessment fault, returning fallback", map[string]interface{}{
				"panic": r,
				"email": input.Email,
			})
			metrics.AssessmentFallbacks.WithLabelValues("pastor").Inc()
			out = fallbackOutput()
			err = nil
		}
	}()

	score := 0.0
	positiveFactors := []string{}
	negativeFactors := []string{}

	emailScore, emailFactors := h.analyzeEmail(input.Email)
	score += emailScore
	positiveFactors = append(positiveFactors, emailFactors...)

	if input.PastorInfo != nil {
		pastoralScore, pastoralFactors := h.analyzePastoralInfo(input.PastorInfo)
		score += pastoralScore
		positiveFactors = append(positiveFactors, pastoralFactors...)

		docScore, docFactors := h.analyzeDocumentation(input.PastorInfo)
		score += docScore
		positiveFactors = append(positiveFactors, docFactors...)
	} else {
		negativeFactors = append(negativeFactors, "No se proporcionó información pastoral")
	}

	if len(input.FirstName) > 0 && len(input.LastName) > 0 {
		score += 0.05
		positiveFactors = append(positiveFactors, "Nombre completo proporcionado")
	}

	score = math.Min(score, 1.0)

	decision, message, estimatedTime := h.makeDecision(score)

	h.logger.Info("pastor registration assessed", map[string]interface{}{
		"score":    score,
		"decision": decision,
	})
	metrics.AssessmentDecisions.WithLabelValues("pastor", decision).Inc()

	return &Output{
		Score:                 roundTo3(score),
		Decision:              decision,
		Message:               message,
		PositiveFactors:       positiveFactors,
		NegativeFactors:       negativeFactors,
		EstimatedApprovalTime: estimatedTime,
		CanCreateChurch:       decision == models.DecisionAutoApprove,
	}, nil
}

func fallbackOutput() *Output {
	return &Output{
		Score:                 0.3,
		Decision:              models.DecisionManualReview,
		Message:               "Error en evaluación automática. Requiere revisión manual.",
		PositiveFactors:       []string{},
		NegativeFactors:       []string{"Error en análisis automático"},
		EstimatedApprovalTime: "24-48 horas",
		CanCreateChurch:       false,
	}
}

// analyzeEmail scores the applicant's email, max 0.35.
func (h *Handler) analyzeEmail(email string) (float64, []string) {
	if email == "" {
		return 0, []string{}
	}

	score := 0.0
	factors := []string{}

	emailLower := strings.ToLower(email)
	domain := ""
	if idx := strings.LastIndex(emailLower, "@"); idx >= 0 {
		domain = emailLower[idx+1:]
	}

	switch {
	case containsAny(domain, churchDomains):
		score += 0.3
		factors = append(factors, "Email de dominio institucional de iglesia")
	case !contains(genericProviders, domain):
		score += 0.2
		factors = append(factors, "Email de dominio personalizado")
	default:
		score += 0.1
		factors = append(factors, "Email válido")
	}

	if containsAny(emailLower, religiousKeywords) {
		score += 0.05
		factors = append(factors, "Email contiene términos religiosos")
	}

	return score, factors
}

// analyzePastoralInfo scores the ministry background, max 0.40.
func (h *Handler) analyzePastoralInfo(info *models.PastoralProfile) (float64, []string) {
	score := 0.0
	factors := []string{}

	denomination := strings.ToLower(info.Denomination)
	if containsAny(denomination, recognizedDenominations) {
		score += 0.15
		factors = append(factors, fmt.Sprintf("Denominación reconocida: %s", info.Denomination))
	} else if denomination != "" {
		score += 0.05
		factors = append(factors, "Denominación proporcionada")
	}

	years := info.YearsInMinistry
	switch {
	case years >= 10:
		score += 0.15
		factors = append(factors, fmt.Sprintf("Amplia experiencia ministerial (%d años)", years))
	case years >= 5:
		score += 0.10
		factors = append(factors, fmt.Sprintf("Experiencia ministerial significativa (%d años)", years))
	case years >= 1:
		score += 0.05
		factors = append(factors, fmt.Sprintf("Experiencia ministerial (%d años)", years))
	}

	if info.CurrentChurchName != "" {
		score += 0.10
		factors = append(factors, "Iglesia actual identificada")
	}

	return score, factors
}

// analyzeDocumentation scores attached documents, max 0.30.
func (h *Handler) analyzeDocumentation(info *models.PastoralProfile) (float64, []string) {
	score := 0.0
	factors := []string{}

	if info.OrdinationCertificateURL != "" {
		score += 0.20
		factors = append(factors, "Certificado de ordenación proporcionado")
	}

	if info.ReferenceLetterURL != "" {
		score += 0.10
		factors = append(factors, "Carta de referencia adjunta")
	}

	return score, factors
}

func (h *Handler) makeDecision(score float64) (decision, message, estimatedTime string) {
	switch {
	case score >= 0.75:
		return models.DecisionAutoApprove,
			"¡Excelente! Tu solicitud ha sido aprobada automáticamente. Ya puedes registrar tu iglesia.",
			"Inmediato"
	case score >= 0.50:
		return models.DecisionManualReview,
			"Tu solicitud está en revisión manual. Nuestro equipo la verificará pronto.",
			"24-48 horas"
	default:
		return models.DecisionRequestMoreInfo,
			"Necesitamos más información para aprobar tu solicitud. Por favor, completa tu perfil.",
			"Pendiente de información adicional"
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func roundTo3(v float64) float64 {
	return math.Round(v*1000) / 1000
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
