// internal/workers/member/analyze-member-trend/handler_test.go
package analyzemembertrend

import (
	"testing"
	"time"

	"church-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

// historyOf builds a chronological attendance history from a bitmap.
func historyOf(attended ...bool) []models.AttendanceRecord {
	base := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	records := make([]models.AttendanceRecord, len(attended))
	for i, a := range attended {
		records[i] = models.AttendanceRecord{
			MemberID:    "member-300",
			ServiceDate: base.AddDate(0, 0, 7*i),
			Attended:    a,
		}
	}
	return records
}

// ==========================
// Core Functionality Tests
// ==========================

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name            string
		history         []models.AttendanceRecord
		expectedTrend   string
		expectedAttTrend string
		expectedChange  float64
	}{
		{
			name:             "improving attendance",
			history:          historyOf(false, false, true, true, true, true),
			expectedTrend:    "improving",
			expectedAttTrend: "up",
			expectedChange:   66.7, // 33.3% -> 100%
		},
		{
			name:             "perfectly stable",
			history:          historyOf(true, true, true, true),
			expectedTrend:    "stable",
			expectedAttTrend: "stable",
			expectedChange:   0,
		},
		{
			name: "declining attendance",
			history: historyOf(
				true, true, true, true, true, true, true, true, true, true,
				true, true, true, true, true, true, true, true, true, false,
			),
			expectedTrend:    "declining",
			expectedAttTrend: "down",
			expectedChange:   -10, // 100% -> 90%
		},
		{
			name:             "critical drop",
			history:          historyOf(true, true, true, false, false, false),
			expectedTrend:    "critical",
			expectedAttTrend: "down",
			expectedChange:   -100,
		},
		{
			name: "slight improvement stays stable positive",
			history: historyOf(
				true, true, true, true, true, true, true, true, false, false,
				true, true, true, true, true, true, true, true, true, false,
			),
			expectedTrend:    "stable_positive",
			expectedAttTrend: "stable",
			expectedChange:   10, // 80% -> 90%
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := Analyze(tt.history)

			assert.Equal(t, tt.expectedTrend, analysis.Trend)
			assert.Equal(t, tt.expectedAttTrend, analysis.AttendanceTrend)
			assert.InDelta(t, tt.expectedChange, analysis.CommitmentChange, 0.1)
		})
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	tests := []struct {
		name    string
		history []models.AttendanceRecord
	}{
		{"nil history", nil},
		{"empty history", historyOf()},
		{"three records", historyOf(true, false, true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := Analyze(tt.history)

			assert.Equal(t, "insufficient_data", analysis.Trend)
			assert.Equal(t, "unknown", analysis.AttendanceTrend)
			assert.Equal(t, 0.0, analysis.CommitmentChange)
			assert.Equal(t, "Datos insuficientes para análisis de tendencia", analysis.Prediction)
		})
	}
}

// ==========================
// Boundary Tests
// ==========================

func TestAnalyze_TrendBoundaries(t *testing.T) {
	// With 10 records split 5/5, each attendance flip moves a half rate
	// by 20 points.
	tests := []struct {
		name          string
		firstHalf     []bool
		secondHalf    []bool
		expectedTrend string
	}{
		{"change +20 improving", []bool{true, true, true, true, false}, []bool{true, true, true, true, true}, "improving"},
		{"change -20 critical", []bool{true, true, true, true, true}, []bool{true, true, true, true, false}, "critical"},
		{"change -40 critical", []bool{true, true, true, true, true}, []bool{true, true, true, false, false}, "critical"},
		{"change zero stable", []bool{true, false, true, false, true}, []bool{true, true, false, true, false}, "stable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := historyOf(append(append([]bool{}, tt.firstHalf...), tt.secondHalf...)...)
			analysis := Analyze(history)
			assert.Equal(t, tt.expectedTrend, analysis.Trend)
		})
	}
}

func TestAnalyze_HalfRatesReported(t *testing.T) {
	analysis := Analyze(historyOf(true, false, true, true))

	assert.Equal(t, 50.0, analysis.FirstHalfRate)
	assert.Equal(t, 100.0, analysis.SecondHalfRate)
	assert.Equal(t, 50.0, analysis.CommitmentChange)
	assert.Equal(t, "improving", analysis.Trend)
}

func TestAnalyze_OddHistorySplit(t *testing.T) {
	// Five records split 2/3: first half 2 records, second half 3.
	analysis := Analyze(historyOf(true, true, false, false, false))

	assert.Equal(t, 100.0, analysis.FirstHalfRate)
	assert.Equal(t, 0.0, analysis.SecondHalfRate)
	assert.Equal(t, "critical", analysis.Trend)
}
