package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marketcraft/marketcraft/internal/domain"
)

func writeCatalog(t *testing.T) string {
	t.Helper()
	base := t.TempDir()

	if err := os.MkdirAll(filepath.Join(base, "rooms"), 0755); err != nil {
		t.Fatal(err)
	}

	room := `room_id: content-lab
name: Content Lab
levels:
  - id: 1
    title: First headline
    brief: Write a headline for the spring launch.
    task:
      kind: free_text
    rubric:
      passing_score: 70
      max_attempts: 3
      criteria:
        - name: Clarity
          description: Is the message clear
          weight: 0.6
        - name: Hook
          description: Does it grab attention
          weight: 0.4
    xp_reward: 100
    token_reward: 10
    stamina_cost: 10
  - id: 2
    title: Pick the variant
    brief: Choose the stronger subject line.
    task:
      kind: ab_test
      key:
        choice: b
    rubric:
      passing_score: 100
      max_attempts: 2
    xp_reward: 80
`
	if err := os.WriteFile(filepath.Join(base, "rooms", "content-lab.yaml"), []byte(room), 0644); err != nil {
		t.Fatal(err)
	}

	achievements := `achievements:
  - id: first-steps
    title: First Steps
    requirement: levels_completed
    threshold: 1
    xp_reward: 50
  - id: lab-done
    title: Lab Graduate
    requirement: room_complete
    room_id: content-lab
    xp_reward: 150
`
	if err := os.WriteFile(filepath.Join(base, "achievements.yaml"), []byte(achievements), 0644); err != nil {
		t.Fatal(err)
	}

	challenges := `challenges:
  - id: quick-win
    tier: easy
    description: Complete any level
    xp_reward: 20
  - id: perfectionist
    tier: hard
    description: Score 100 on a level
    xp_reward: 100
`
	if err := os.WriteFile(filepath.Join(base, "challenges.yaml"), []byte(challenges), 0644); err != nil {
		t.Fatal(err)
	}

	return base
}

func TestLoader_LoadRoom(t *testing.T) {
	l := NewLoader(writeCatalog(t))

	levels, err := l.LoadRoom("content-lab")
	if err != nil {
		t.Fatalf("LoadRoom() error = %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("got %d levels, want 2", len(levels))
	}

	first := levels[0]
	if first.RoomID != "content-lab" || first.Title != "First headline" {
		t.Errorf("level = %+v", first)
	}
	if first.Task.Kind != domain.TaskFreeText {
		t.Errorf("Kind = %q", first.Task.Kind)
	}
	if len(first.Rubric.Criteria) != 2 || first.Rubric.Criteria[0].Weight != 0.6 {
		t.Errorf("Criteria = %+v", first.Rubric.Criteria)
	}

	second := levels[1]
	if second.Task.Kind != domain.TaskABTest || second.Task.Key.Choice != "b" {
		t.Errorf("second task = %+v", second.Task)
	}
}

func TestLoader_MissingRoom(t *testing.T) {
	l := NewLoader(writeCatalog(t))
	if _, err := l.LoadRoom("no-such-room"); err == nil {
		t.Error("LoadRoom() should fail for missing file")
	}
}

func TestRegistry_Load(t *testing.T) {
	r := NewRegistry(NewLoader(writeCatalog(t)))
	if err := r.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	lv, err := r.GetLevel(2)
	if err != nil {
		t.Fatalf("GetLevel() error = %v", err)
	}
	if lv.Title != "Pick the variant" {
		t.Errorf("Title = %q", lv.Title)
	}

	if _, err := r.GetLevel(99); err == nil {
		t.Error("GetLevel(99) should fail")
	}

	all := r.ListLevels()
	if len(all) != 2 || all[0].ID != 1 || all[1].ID != 2 {
		t.Errorf("ListLevels() = %v, want ordered by id", all)
	}

	room := r.ListRoomLevels("content-lab")
	if len(room) != 2 {
		t.Errorf("ListRoomLevels() = %d levels, want 2", len(room))
	}

	if len(r.Achievements()) != 2 {
		t.Errorf("Achievements() = %d, want 2", len(r.Achievements()))
	}
	if len(r.Challenges()) != 2 {
		t.Errorf("Challenges() = %d, want 2", len(r.Challenges()))
	}
}
