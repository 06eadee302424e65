// internal/workers/registration/assess-pastor-application/handler_test.go
package assesspastorapplication

import (
	"context"
	"testing"

	"church-workers/internal/common/logger"
	"church-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return LoadConfig()
}

func createStrongApplication() *Input {
	return &Input{
		Email:     "pastor@iglesia.org",
		FirstName: "Juan",
		LastName:  "Martinez",
		PastorInfo: &models.PastoralProfile{
			Denomination:             "Evangélica Pentecostal",
			YearsInMinistry:          12,
			OrdinationCertificateURL: "https://docs.example.org/ordination.pdf",
			ReferenceLetterURL:       "https://docs.example.org/reference.pdf",
		},
	}
}

func createMinimalApplication() *Input {
	return &Input{
		Email: "random@gmail.com",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	tests := []struct {
		name             string
		input            *Input
		expectedDecision string
		expectedTime     string
		validateOutput   func(t *testing.T, output *Output)
	}{
		{
			name:             "strong application auto approved",
			input:            createStrongApplication(),
			expectedDecision: "auto_approve",
			expectedTime:     "Inmediato",
			validateOutput: func(t *testing.T, output *Output) {
				assert.GreaterOrEqual(t, output.Score, 0.75)
				assert.True(t, output.CanCreateChurch)
				assert.Contains(t, output.PositiveFactors, "Email de dominio institucional de iglesia")
				assert.Contains(t, output.PositiveFactors, "Certificado de ordenación proporcionado")
				assert.Empty(t, output.NegativeFactors)
			},
		},
		{
			name:             "generic email without profile requests more info",
			input:            createMinimalApplication(),
			expectedDecision: "request_more_info",
			expectedTime:     "Pendiente de información adicional",
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.10, output.Score, 0.001)
				assert.False(t, output.CanCreateChurch)
				assert.Contains(t, output.NegativeFactors, "No se proporcionó información pastoral")
			},
		},
		{
			name: "moderate application lands in manual review",
			input: &Input{
				Email:     "contacto@mi-congregacion.com",
				FirstName: "Ana",
				LastName:  "Lopez",
				PastorInfo: &models.PastoralProfile{
					Denomination:    "Cristiana Independiente",
					YearsInMinistry: 5,
				},
			},
			// 0.20 email + 0.15 denomination + 0.10 years + 0.05 name = 0.50
			expectedDecision: "manual_review",
			expectedTime:     "24-48 horas",
			validateOutput: func(t *testing.T, output *Output) {
				assert.InDelta(t, 0.50, output.Score, 0.001)
			},
		},
		{
			name: "score is capped at 1.0",
			input: &Input{
				Email:     "pastor@pastoral.com",
				FirstName: "Pedro",
				LastName:  "Gomez",
				PastorInfo: &models.PastoralProfile{
					Denomination:             "Bautista",
					YearsInMinistry:          20,
					CurrentChurchName:        "Iglesia Central",
					OrdinationCertificateURL: "https://docs.example.org/cert.pdf",
					ReferenceLetterURL:       "https://docs.example.org/ref.pdf",
				},
			},
			expectedDecision: "auto_approve",
			expectedTime:     "Inmediato",
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 1.0, output.Score)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

			output, err := handler.Execute(context.Background(), tt.input)

			assert.NoError(t, err)
			assert.NotNil(t, output)
			assert.Equal(t, tt.expectedDecision, output.Decision)
			assert.Equal(t, tt.expectedTime, output.EstimatedApprovalTime)
			assert.GreaterOrEqual(t, output.Score, 0.0)
			assert.LessOrEqual(t, output.Score, 1.0)

			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

// ==========================
// Unit Tests
// ==========================

func TestHandler_AnalyzeEmail(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name          string
		email         string
		expectedScore float64
		expectedFirst string
	}{
		{"church domain", "admin@iglesia.org", 0.35, "Email de dominio institucional de iglesia"},
		{"custom domain", "info@congregacion-norte.com", 0.2, "Email de dominio personalizado"},
		{"generic provider", "someone@gmail.com", 0.1, "Email válido"},
		{"generic provider with religious local part", "pastor.juan@gmail.com", 0.15, "Email válido"},
		{"church domain substring match", "oficina@mi.templo.org", 0.3, "Email de dominio institucional de iglesia"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, factors := handler.analyzeEmail(tt.email)
			assert.InDelta(t, tt.expectedScore, score, 0.001)
			assert.Equal(t, tt.expectedFirst, factors[0])
		})
	}

	t.Run("empty email", func(t *testing.T) {
		score, factors := handler.analyzeEmail("")
		assert.Equal(t, 0.0, score)
		assert.Empty(t, factors)
	})
}

func TestHandler_AnalyzePastoralInfo(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name          string
		info          *models.PastoralProfile
		expectedScore float64
	}{
		{
			name: "recognized denomination with long experience and church",
			info: &models.PastoralProfile{
				Denomination:      "Pentecostal",
				YearsInMinistry:   10,
				CurrentChurchName: "Iglesia Monte Sion",
			},
			expectedScore: 0.40,
		},
		{
			name: "unrecognized denomination still counts",
			info: &models.PastoralProfile{
				Denomination:    "Comunidad de Fe",
				YearsInMinistry: 2,
			},
			expectedScore: 0.10,
		},
		{
			name:          "empty profile scores nothing",
			info:          &models.PastoralProfile{},
			expectedScore: 0.0,
		},
		{
			name: "experience tiers",
			info: &models.PastoralProfile{
				YearsInMinistry: 5,
			},
			expectedScore: 0.10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := handler.analyzePastoralInfo(tt.info)
			assert.InDelta(t, tt.expectedScore, score, 0.001)
		})
	}
}

func TestHandler_AnalyzeDocumentation(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name          string
		info          *models.PastoralProfile
		expectedScore float64
	}{
		{
			name: "both documents",
			info: &models.PastoralProfile{
				OrdinationCertificateURL: "https://docs.example.org/cert.pdf",
				ReferenceLetterURL:       "https://docs.example.org/ref.pdf",
			},
			expectedScore: 0.30,
		},
		{
			name: "certificate only",
			info: &models.PastoralProfile{
				OrdinationCertificateURL: "https://docs.example.org/cert.pdf",
			},
			expectedScore: 0.20,
		},
		{
			name: "reference only",
			info: &models.PastoralProfile{
				ReferenceLetterURL: "https://docs.example.org/ref.pdf",
			},
			expectedScore: 0.10,
		},
		{
			name:          "no documents",
			info:          &models.PastoralProfile{},
			expectedScore: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := handler.analyzeDocumentation(tt.info)
			assert.InDelta(t, tt.expectedScore, score, 0.001)
		})
	}
}

func TestHandler_MakeDecision(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	tests := []struct {
		name     string
		score    float64
		expected string
	}{
		{"auto approve at 1.0", 1.0, "auto_approve"},
		{"auto approve at threshold", 0.75, "auto_approve"},
		{"manual review just below auto", 0.749, "manual_review"},
		{"manual review at threshold", 0.50, "manual_review"},
		{"more info just below review", 0.499, "request_more_info"},
		{"more info at zero", 0.0, "request_more_info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, message, estimatedTime := handler.makeDecision(tt.score)
			assert.Equal(t, tt.expected, decision)
			assert.NotEmpty(t, message)
			assert.NotEmpty(t, estimatedTime)
		})
	}
}

// ==========================
// Edge Cases
// ==========================

func TestHandler_Idempotence(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))
	input := createStrongApplication()

	first, err1 := handler.Execute(context.Background(), input)
	second, err2 := handler.Execute(context.Background(), input)

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, first, second)
}

func TestHandler_EmptyInput(t *testing.T) {
	handler := NewHandler(createTestConfig(), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{})

	assert.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, "request_more_info", output.Decision)
	assert.Equal(t, 0.0, output.Score)
	assert.Contains(t, output.NegativeFactors, "No se proporcionó información pastoral")
}
