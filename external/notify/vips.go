package notify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadVIPs reads the watched-entrant username list: a bare YAML sequence
// of usernames. Blank entries are skipped.
func LoadVIPs(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vip list %s: %w", path, err)
	}

	var names []string
	if err := yaml.Unmarshal(raw, &names); err != nil {
		return nil, fmt.Errorf("parse vip list %s: %w", path, err)
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out, nil
}
