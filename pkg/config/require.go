package config

import (
	"fmt"
	"sort"
	"strings"
)

// Required maps env names to the values read for them.
type Required map[string]string

// Check reports every empty entry at once.
func (r Required) Check() error {
	var missing []string
	for name, v := range r {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
}
