// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeTempFile(t, "activity-registry.json", `{
		"version": "1.0.0",
		"lastUpdated": "2026-08-01",
		"activities": [
			{
				"id": "act-001",
				"displayName": "Assess Pastor Application",
				"category": "registration",
				"taskType": "assess-pastor-application",
				"implementationStatus": "implemented",
				"errorCodes": ["ASSESSMENT_FAILED"],
				"timeout": "30s",
				"retries": 3
			},
			{
				"id": "act-002",
				"displayName": "Send Notification",
				"category": "communication",
				"taskType": "send-notification",
				"implementationStatus": "implemented"
			}
		]
	}`)

	reg, err := LoadRegistry(path)
	assert.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)
	assert.Len(t, reg.Activities, 2)

	activity, found := reg.FindByTaskType("assess-pastor-application")
	assert.True(t, found)
	assert.Equal(t, "act-001", activity.ID)
	assert.Equal(t, 3, activity.Retries)

	_, found = reg.FindByTaskType("unknown-task")
	assert.False(t, found)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadTemplates(t *testing.T) {
	path := writeTempFile(t, "notification-templates.json", `{
		"version": "1.0.0",
		"templates": [
			{
				"id": "tmpl-followup",
				"type": "followup_action",
				"subject": "Seguimiento pastoral",
				"body": "El miembro {{memberName}} necesita seguimiento.",
				"version": "1.0"
			},
			{
				"id": "tmpl-followup-v2",
				"type": "followup_action",
				"subject": "Seguimiento pastoral urgente",
				"body": "Contactar a {{memberName}}.",
				"version": "2.0"
			},
			{
				"id": "",
				"type": "",
				"subject": "ignored",
				"body": "entries without a type are skipped"
			}
		]
	}`)

	templates, err := LoadTemplates(path)
	assert.NoError(t, err)
	assert.Len(t, templates, 1)

	// The later entry for the same type wins.
	tmpl := templates["followup_action"]
	assert.Equal(t, "tmpl-followup-v2", tmpl.ID)
	assert.Equal(t, "2.0", tmpl.Version)
}

func TestLoadTemplates_InvalidJSON(t *testing.T) {
	path := writeTempFile(t, "broken.json", `{"templates": [`)
	_, err := LoadTemplates(path)
	assert.Error(t, err)
}
