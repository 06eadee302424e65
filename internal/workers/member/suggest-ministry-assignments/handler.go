// internal/workers/member/suggest-ministry-assignments/handler.go
package suggestministryassignments

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "suggest-ministry-assignments"

	giftFitScore  = 85
	skillFitScore = 75
	maxSuggestions = 5
)

// giftMinistries maps a spiritual gift to the ministries it serves.
// Looked up by exact key after lowercasing the gift.
var giftMinistries = map[string][]string{
	"enseñanza":      {"escuela_dominical", "jovenes", "discipulado"},
	"musica":         {"alabanza", "coro", "banda"},
	"evangelismo":    {"evangelismo", "visitacion", "redes_sociales"},
	"servicio":       {"ujieres", "limpieza", "cocina", "mantenimiento"},
	"administracion": {"secretaria", "administracion", "finanzas"},
	"misericordia":   {"visitacion_enfermos", "benevolencia", "consejeria"},
	"liderazgo":      {"grupos_pequenos", "coordinacion", "jovenes"},
	"hospitalidad":   {"recepcion", "nuevos_miembros", "eventos"},
	"intercesion":    {"intercesion", "oracion", "vigilia"},
	"profecia":       {"predicacion", "ensenanza", "consejeria"},
	"fe":             {"misionero", "plantacion_iglesias", "oracion"},
	"sanidad":        {"visitacion_enfermos", "oracion", "consejeria"},
}

// skillMinistries is matched by substring against the member's skills.
// Kept as an ordered slice so iteration order, and therefore the output
// order, is deterministic.
var skillMinistries = []struct {
	key        string
	ministries []string
}{
	{"diseño", []string{"redes_sociales", "creatividad", "comunicaciones"}},
	{"contabilidad", []string{"finanzas", "administracion"}},
	{"tecnologia", []string{"audiovisual", "redes_sociales", "streaming"}},
	{"cocina", []string{"cocina", "eventos"}},
	{"construccion", []string{"mantenimiento", "proyectos"}},
	{"educacion", []string{"escuela_dominical", "jovenes"}},
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
	suggestions := Suggest(input.Member)

	h.logger.Info("ministry assignments suggested", map[string]interface{}{
		"memberId": input.Member.ID,
		"count":    len(suggestions),
	})

	return &Output{
		MemberID:    input.Member.ID,
		Suggestions: suggestions,
	}, nil
}

// Suggest derives up to five candidate ministries from the member's
// spiritual gifts and professional skills, skipping ministries the
// member already serves in. Gift matches outrank skill matches.
func Suggest(member models.MemberRecord) []models.MinistrySuggestion {
	suggestions := []models.MinistrySuggestion{}

	if len(member.SpiritualGifts) == 0 {
		return suggestions
	}

	current := make(map[string]bool, len(member.Ministries))
	for _, m := range member.Ministries {
		current[strings.ToLower(m)] = true
	}

	for _, gift := range member.SpiritualGifts {
		ministries, ok := giftMinistries[strings.ToLower(gift)]
		if !ok {
			continue
		}
		for _, ministry := range ministries {
			if current[ministry] {
				continue
			}
			suggestions = append(suggestions, models.MinistrySuggestion{
				Ministry: ministry,
				Reason:   fmt.Sprintf("Don de %s", gift),
				FitScore: giftFitScore,
			})
		}
	}

	for _, skill := range member.Skills {
		skillLower := strings.ToLower(skill)
		for _, entry := range skillMinistries {
			if !strings.Contains(skillLower, entry.key) {
				continue
			}
			for _, ministry := range entry.ministries {
				if current[ministry] {
					continue
				}
				suggestions = append(suggestions, models.MinistrySuggestion{
					Ministry: ministry,
					Reason:   fmt.Sprintf("Habilidad en %s", skill),
					FitScore: skillFitScore,
				})
			}
		}
	}

	// Deduplicate by ministry keeping the first candidate seen.
	seen := make(map[string]bool, len(suggestions))
	unique := suggestions[:0]
	for _, sug := range suggestions {
		if seen[sug.Ministry] {
			continue
		}
		seen[sug.Ministry] = true
		unique = append(unique, sug)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].FitScore > unique[j].FitScore
	})

	if len(unique) > maxSuggestions {
		unique = unique[:maxSuggestions]
	}
	return unique
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
