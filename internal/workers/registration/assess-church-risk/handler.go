// internal/workers/registration/assess-church-risk/handler.go
package assesschurchrisk

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
	TaskType = "assess-church-risk"

	// The penalty total is capped so a fully flagged registration still
	// lands in the human-review band instead of an outright reject.
	maxRiskScore = 0.8
)

var churchWords = []string{"iglesia", "church", "templo", "casa", "ministerio", "mision"}

var tempDomains = []string{"test.com", "example.com", "temp.com", "fake.com"}

var legitimateDenominations = []string{
	"catolica", "evangelica", "pentecostal", "bautista", "metodista",
	"presbiteriana", "adventista", "cristiana", "anglicana", "luterana",
}

var religiousTitles = []string{"pastor", "reverendo", "obispo", "padre", "ministro"}

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
		h.failJob(client, job, "RISK_ASSESSMENT_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// execute never surfaces a fault: scoring failures degrade to a fixed
// review fallback so the registration flow always gets a usable verdict.
func (h *Handler) execute(ctx context.Context, input *Input) (out *Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("risk assessment fault, returning fallback", map[string]interface{}{
				"panic":      r,
				"churchName": input.ChurchName,
			})
			metrics.AssessmentFallbacks.WithLabelValues("church").Inc()
			out = fallbackOutput()
			err = nil
		}
	}()

	score := 0.0
	riskFactors := []string{}
	positiveIndicators := []string{}

	name := strings.ToLower(strings.TrimSpace(input.ChurchName))
	if name != "" {
		if len(name) >= 5 {
			positiveIndicators = append(positiveIndicators, "Church name has adequate length")
		} else {
			riskFactors = append(riskFactors, "Church name is very short")
			score += 0.1
		}

		if containsAny(name, churchWords) {
			positiveIndicators = append(positiveIndicators, "Church name contains religious terminology")
		} else {
			score += 0.05
		}
	}

	if input.ContactEmail != "" {
		domain := ""
		if idx := strings.LastIndex(input.ContactEmail, "@"); idx >= 0 {
			domain = strings.ToLower(input.ContactEmail[idx+1:])
		}

		switch {
		case containsAny(domain, tempDomains):
			riskFactors = append(riskFactors, "Temporary email domain detected")
			score += 0.2
		case strings.Contains(domain, "gmail.com") || strings.Contains(domain, "hotmail.com") || strings.Contains(domain, "yahoo.com"):
			positiveIndicators = append(positiveIndicators, "Using established email provider")
		default:
			positiveIndicators = append(positiveIndicators, "Using potentially custom domain")
		}
	}

	denomination := strings.ToLower(input.Denomination)
	if denomination != "" {
		if containsAny(denomination, legitimateDenominations) {
			positiveIndicators = append(positiveIndicators, "Recognized denominational affiliation")
		} else {
			positiveIndicators = append(positiveIndicators, "Custom or emerging denominational identity")
		}
	}

	if input.LegalRepresentative != "" {
		if containsAny(strings.ToLower(input.LegalRepresentative), religiousTitles) {
			positiveIndicators = append(positiveIndicators, "Legal representative has religious title")
		} else {
			positiveIndicators = append(positiveIndicators, "Legal representative identified")
		}
	}

	if strings.TrimSpace(input.WebsiteURL) != "" {
		positiveIndicators = append(positiveIndicators, "Church has web presence")
	} else {
		positiveIndicators = append(positiveIndicators, "Church may be local/community focused")
	}

	userAgent := strings.ToLower(input.Metadata.UserAgent)
	if strings.Contains(userAgent, "bot") || strings.Contains(userAgent, "crawler") {
		riskFactors = append(riskFactors, "Automated request detected")
		score += 0.3
	} else {
		positiveIndicators = append(positiveIndicators, "Human user interaction detected")
	}

	finalScore := math.Min(score, maxRiskScore)

	var recommendation, reasoning string
	switch {
	case finalScore < 0.2:
		recommendation = models.RecommendationApprove
		reasoning = "Low risk church registration with good legitimacy indicators"
	case finalScore < 0.5:
		recommendation = models.RecommendationReview
		reasoning = "Medium risk registration requiring manual validation"
	default:
		recommendation = models.RecommendationReview
		reasoning = "Higher risk registration requiring careful manual review"
	}

	if len(riskFactors) == 0 {
		riskFactors = []string{"No significant risk factors identified"}
	}

	h.logger.Info("church risk assessed", map[string]interface{}{
		"churchName":     input.ChurchName,
		"riskScore":      finalScore,
		"recommendation": recommendation,
	})
	metrics.AssessmentDecisions.WithLabelValues("church", recommendation).Inc()

	return &Output{
		RiskScore:          finalScore,
		RiskFactors:        riskFactors,
		PositiveIndicators: positiveIndicators,
		Recommendation:     recommendation,
		Reasoning:          reasoning,
	}, nil
}

func fallbackOutput() *Output {
	return &Output{
		RiskScore:          0.3,
		RiskFactors:        []string{"AI assessment service temporarily unavailable"},
		PositiveIndicators: []string{"Manual review recommended"},
		Recommendation:     models.RecommendationReview,
		Reasoning:          "Fallback assessment due to technical issues",
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
