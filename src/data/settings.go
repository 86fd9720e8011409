package data

import (
	"sync"

	"gorm.io/gorm"
)

// Setting is an operator override stored in the database. Inactive rows are ignored.
type Setting struct {
	ID     uint8  `gorm:"primaryKey"`
	Name   string `gorm:"size:32;not null;uniqueIndex"`
	Value  string `gorm:"type:text;not null"`
	Active uint8  `gorm:"not null"`
}

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// LoadSettings loads all active settings from the database into cache
func LoadSettings(db *gorm.DB) error {
	var settings []Setting
	if err := db.Where("active = ?", 1).Find(&settings).Error; err != nil {
		return err
	}

	cache := make(map[string]string, len(settings))
	for _, s := range settings {
		cache[s.Name] = s.Value
	}

	settingsMu.Lock()
	settingsCache = cache
	settingsMu.Unlock()
	return nil
}

// GetSetting retrieves a setting value from cache (call LoadSettings first)
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}
