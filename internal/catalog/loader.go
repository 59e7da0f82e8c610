package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marketcraft/marketcraft/internal/domain"
	"gopkg.in/yaml.v3"
)

// LevelsFile is the YAML structure for a room's level file.
type LevelsFile struct {
	RoomID string `yaml:"room_id"`
	Name   string `yaml:"name"`
	Levels []struct {
		ID          int                `yaml:"id"`
		Title       string             `yaml:"title"`
		Brief       string             `yaml:"brief"`
		Task        domain.TaskConfig  `yaml:"task"`
		Rubric      domain.Rubric      `yaml:"rubric"`
		XPReward    int                `yaml:"xp_reward"`
		TokenReward int                `yaml:"token_reward"`
		StaminaCost int                `yaml:"stamina_cost"`
	} `yaml:"levels"`
}

// AchievementsFile is the YAML structure for the achievements catalog.
type AchievementsFile struct {
	Achievements []domain.Achievement `yaml:"achievements"`
}

// ChallengesFile is the YAML structure for the daily challenge pool.
type ChallengesFile struct {
	Challenges []domain.DailyChallenge `yaml:"challenges"`
}

// Loader reads catalog YAML from a content directory laid out as
// rooms/<room>.yaml plus achievements.yaml and challenges.yaml.
type Loader struct {
	basePath string
}

// NewLoader creates a catalog loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// LoadRoom loads one room's levels file.
func (l *Loader) LoadRoom(roomID string) ([]domain.Level, error) {
	path := filepath.Join(l.basePath, "rooms", roomID+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read room file: %w", err)
	}

	var file LevelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse room file: %w", err)
	}

	roomName := file.RoomID
	if roomName == "" {
		roomName = roomID
	}

	levels := make([]domain.Level, len(file.Levels))
	for i, lv := range file.Levels {
		levels[i] = domain.Level{
			ID:          lv.ID,
			RoomID:      roomName,
			Title:       lv.Title,
			Brief:       lv.Brief,
			Task:        lv.Task,
			Rubric:      lv.Rubric,
			XPReward:    lv.XPReward,
			TokenReward: lv.TokenReward,
			StaminaCost: lv.StaminaCost,
		}
	}
	return levels, nil
}

// LoadAllRooms loads every room file under rooms/.
func (l *Loader) LoadAllRooms() ([]domain.Level, error) {
	roomsDir := filepath.Join(l.basePath, "rooms")
	entries, err := os.ReadDir(roomsDir)
	if err != nil {
		return nil, fmt.Errorf("read rooms directory: %w", err)
	}

	var all []domain.Level
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		roomID := entry.Name()[:len(entry.Name())-len(".yaml")]
		levels, err := l.LoadRoom(roomID)
		if err != nil {
			return nil, fmt.Errorf("load room %s: %w", roomID, err)
		}
		all = append(all, levels...)
	}
	return all, nil
}

// LoadAchievements loads the achievements catalog.
func (l *Loader) LoadAchievements() ([]domain.Achievement, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, "achievements.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read achievements file: %w", err)
	}

	var file AchievementsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse achievements file: %w", err)
	}
	return file.Achievements, nil
}

// LoadChallenges loads the daily challenge pool.
func (l *Loader) LoadChallenges() ([]domain.DailyChallenge, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, "challenges.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read challenges file: %w", err)
	}

	var file ChallengesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse challenges file: %w", err)
	}
	return file.Challenges, nil
}
