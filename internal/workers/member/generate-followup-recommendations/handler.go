// internal/workers/member/generate-followup-recommendations/handler.go
package generatefollowuprecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-followup-recommendations"
)

var priorityOrder = map[string]int{
	models.PriorityCritica: 0,
	models.PriorityAlta:    1,
	models.PriorityMedia:   2,
	models.PriorityBaja:    3,
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
	recommendations := Generate(input.Member, time.Now())

	h.logger.Info("followup recommendations generated", map[string]interface{}{
		"memberId": input.Member.ID,
		"count":    len(recommendations),
	})

	return &Output{
		MemberID:        input.Member.ID,
		Recommendations: recommendations,
	}, nil
}

// Generate evaluates each follow-up rule independently and returns the
// actions sorted by priority. The sort is stable: rules that fire with
// equal priority keep their evaluation order.
func Generate(member models.MemberRecord, now time.Time) []models.FollowupRecommendation {
	recommendations := []models.FollowupRecommendation{}

	if member.BirthDate != nil {
		daysToBirthday := daysUntilNextBirthday(*member.BirthDate, now)
		if daysToBirthday >= 0 && daysToBirthday <= 7 {
			recommendations = append(recommendations, models.FollowupRecommendation{
				Action:   "Enviar felicitación de cumpleaños",
				Priority: models.PriorityAlta,
				Channel:  member.PreferredContactMethod,
				Reason:   fmt.Sprintf("Cumpleaños en %d días", daysToBirthday),
				Template: "birthday_greeting",
			})
		}
	}

	if member.LastAttendance != nil {
		days := daysBetween(*member.LastAttendance, now)
		if days > 30 {
			recommendations = append(recommendations, models.FollowupRecommendation{
				Action:   "Visita pastoral urgente",
				Priority: models.PriorityCritica,
				Channel:  "visit",
				Reason:   fmt.Sprintf("Sin asistencia hace %d días", days),
			})
		} else if days > 21 {
			recommendations = append(recommendations, models.FollowupRecommendation{
				Action:   "Llamada de seguimiento",
				Priority: models.PriorityAlta,
				Channel:  "phone",
				Reason:   fmt.Sprintf("Ausencia de %d días", days),
				Template: "followup_call",
			})
		}
	}

	if member.MemberType == models.MemberTypeVisitante && member.MembershipDate != nil {
		daysAsMember := daysBetween(*member.MembershipDate, now)
		if daysAsMember >= 7 && daysAsMember <= 30 && member.SmallGroupID == "" {
			recommendations = append(recommendations, models.FollowupRecommendation{
				Action:   "Invitar a grupo pequeño",
				Priority: models.PriorityAlta,
				Channel:  member.PreferredContactMethod,
				Reason:   "Nuevo miembro sin grupo asignado",
				Template: "small_group_invitation",
			})
		}
	}

	if len(member.SpiritualGifts) > 0 && len(member.Ministries) == 0 {
		gifts := member.SpiritualGifts
		if len(gifts) > 2 {
			gifts = gifts[:2]
		}
		recommendations = append(recommendations, models.FollowupRecommendation{
			Action:   "Proponer ministerio según dones",
			Priority: models.PriorityMedia,
			Channel:  "meeting",
			Reason:   fmt.Sprintf("Tiene dones: %s", strings.Join(gifts, ", ")),
			Template: "ministry_invitation",
		})
	}

	if member.MembershipDate != nil && member.MemberType == models.MemberTypeActivo {
		daysSinceMembership := daysBetween(*member.MembershipDate, now)
		years := daysSinceMembership / 365
		daysToAnniversary := 365 - (daysSinceMembership % 365)

		if years > 0 && daysToAnniversary <= 7 {
			recommendations = append(recommendations, models.FollowupRecommendation{
				Action:   fmt.Sprintf("Celebrar %d años de membresía", years),
				Priority: models.PriorityMedia,
				Channel:  "public_recognition",
				Reason:   fmt.Sprintf("Aniversario de %d años", years),
				Template: "membership_anniversary",
			})
		}
	}

	if member.CommitmentScore < 50 && member.AttendanceRate > 70 {
		recommendations = append(recommendations, models.FollowupRecommendation{
			Action:   "Conversar sobre participación ministerial",
			Priority: models.PriorityMedia,
			Channel:  "meeting",
			Reason:   "Buena asistencia pero baja participación",
			Template: "ministry_conversation",
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return priorityRank(recommendations[i].Priority) < priorityRank(recommendations[j].Priority)
	})

	return recommendations
}

func priorityRank(priority string) int {
	if rank, ok := priorityOrder[priority]; ok {
		return rank
	}
	return 4
}

// daysUntilNextBirthday counts days to the next occurrence of the
// birthday's month and day.
func daysUntilNextBirthday(birthDate, now time.Time) int {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	next := time.Date(now.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(now.Year()+1, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(next.Sub(today).Hours() / 24)
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
