// pkg/registry/templates.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"church-workers/internal/models"
)

type templateFile struct {
	Version   string                        `json:"version"`
	Templates []models.NotificationTemplate `json:"templates"`
}

// LoadTemplates reads the notification template registry and returns the
// templates keyed by notification type. Later entries for the same type
// override earlier ones, so a file can ship a patched template at the end.
func LoadTemplates(path string) (map[string]models.NotificationTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file templateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse template registry %s: %w", path, err)
	}

	templates := make(map[string]models.NotificationTemplate, len(file.Templates))
	for _, tmpl := range file.Templates {
		if tmpl.Type == "" {
			continue
		}
		templates[tmpl.Type] = tmpl
	}

	return templates, nil
}
