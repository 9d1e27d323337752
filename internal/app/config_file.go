package app

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// LoadFileOverrides reads an optional YAML override file, grounded on the
// teacher's LoadConfigFile. A missing path is not an error: the override
// document is entirely optional in the layered precedence (defaults <
// file < env < flags).
func LoadFileOverrides(path string) (FileOverrides, error) {
	var fo FileOverrides
	if path == "" {
		return fo, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fo, nil
	}
	if err != nil {
		return fo, fmt.Errorf("read config override file: %w", err)
	}
	if err := yaml.Unmarshal(b, &fo); err != nil {
		return fo, fmt.Errorf("parse config override file: %w", err)
	}
	return fo, nil
}
