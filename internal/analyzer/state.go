package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

type cooldownState struct {
	LastRefresh time.Time `json:"last_refresh"`
}

// LoadCooldown reads the last refresh time from a JSON file. A missing file
// yields a fresh cooldown.
func LoadCooldown(filePath string, interval time.Duration) (Cooldown, error) {
	cd := NewCooldown(interval)
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return cd, nil
		}
		return cd, err
	}
	var st cooldownState
	if err := json.Unmarshal(data, &st); err != nil {
		return cd, err
	}
	cd.Last = st.LastRefresh
	return cd, nil
}

// SaveCooldown writes the last refresh time to a JSON file.
func SaveCooldown(filePath string, cd Cooldown) error {
	data, err := json.MarshalIndent(cooldownState{LastRefresh: cd.Last}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
