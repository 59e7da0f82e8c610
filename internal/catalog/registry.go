package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/marketcraft/marketcraft/internal/domain"
)

// Registry provides read access to the static game catalog: levels,
// achievements and the daily challenge pool. Content is loaded once at
// startup; Reload exists for development.
type Registry struct {
	loader *Loader

	mu           sync.RWMutex
	levels       map[int]*domain.Level
	achievements []domain.Achievement
	challenges   []domain.DailyChallenge
}

// NewRegistry creates a catalog registry over a loader
func NewRegistry(loader *Loader) *Registry {
	return &Registry{
		loader: loader,
		levels: make(map[int]*domain.Level),
	}
}

// Load reads all catalog content into memory.
func (r *Registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	levels, err := r.loader.LoadAllRooms()
	if err != nil {
		return fmt.Errorf("load levels: %w", err)
	}
	for i := range levels {
		lv := levels[i]
		if _, dup := r.levels[lv.ID]; dup {
			return fmt.Errorf("duplicate level id %d", lv.ID)
		}
		r.levels[lv.ID] = &lv
	}

	achievements, err := r.loader.LoadAchievements()
	if err != nil {
		return fmt.Errorf("load achievements: %w", err)
	}
	r.achievements = achievements

	challenges, err := r.loader.LoadChallenges()
	if err != nil {
		return fmt.Errorf("load challenges: %w", err)
	}
	r.challenges = challenges

	return nil
}

// Reload clears and reloads all content.
func (r *Registry) Reload() error {
	r.mu.Lock()
	r.levels = make(map[int]*domain.Level)
	r.achievements = nil
	r.challenges = nil
	r.mu.Unlock()

	return r.Load()
}

// GetLevel returns a level by id.
func (r *Registry) GetLevel(id int) (*domain.Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lv, ok := r.levels[id]
	if !ok {
		return nil, fmt.Errorf("%w: level %d", domain.ErrLevelNotFound, id)
	}
	return lv, nil
}

// ListLevels returns all levels ordered by id.
func (r *Registry) ListLevels() []*domain.Level {
	r.mu.RLock()
	defer r.mu.RUnlock()

	levels := make([]*domain.Level, 0, len(r.levels))
	for _, lv := range r.levels {
		levels = append(levels, lv)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })
	return levels
}

// ListRoomLevels returns the levels for one room, ordered by id.
func (r *Registry) ListRoomLevels(roomID string) []*domain.Level {
	var levels []*domain.Level
	for _, lv := range r.ListLevels() {
		if lv.RoomID == roomID {
			levels = append(levels, lv)
		}
	}
	return levels
}

// Achievements returns the achievements catalog.
func (r *Registry) Achievements() []domain.Achievement {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.achievements
}

// Challenges returns the daily challenge pool.
func (r *Registry) Challenges() []domain.DailyChallenge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.challenges
}
