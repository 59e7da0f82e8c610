package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marketcraft/marketcraft/internal/config"
)

const activePlayerFile = "player_id"

// cmdNewPlayer creates a new intern and makes them the active player
func cmdNewPlayer(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: marketcraft new <name> [--role <role>]")
	}
	name := args[0]
	role := "growth"
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "--role" {
			role = args[i+1]
		}
	}

	var player struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := apiPost("/v1/players", map[string]string{"name": name, "role": role}, &player); err != nil {
		return err
	}

	if err := saveActivePlayer(player.ID); err != nil {
		return fmt.Errorf("save active player: %w", err)
	}

	fmt.Printf("✓ Welcome aboard, %s (%s intern)\n", player.Name, player.Role)
	fmt.Printf("  Player ID: %s\n", player.ID)
	fmt.Println("  Run 'marketcraft levels' to see your first assignments.")
	return nil
}

// cmdMe shows the active intern's state
func cmdMe() error {
	id, err := activePlayer()
	if err != nil {
		return err
	}

	var p struct {
		Name    string `json:"name"`
		Role    string `json:"role"`
		XP      int    `json:"xp"`
		Tokens  int    `json:"tokens"`
		Lives   int    `json:"lives"`
		Stamina int    `json:"stamina"`
		Streak  struct {
			CurrentStreak int `json:"current_streak"`
			LongestStreak int `json:"longest_streak"`
		} `json:"streak"`
	}
	if err := apiGet("/v1/players/"+id, &p); err != nil {
		return err
	}

	// Level is derived from XP, 500 per level.
	level := p.XP/500 + 1
	xpIntoLevel := p.XP % 500
	fmt.Printf("%s - %s intern, level %d\n", p.Name, p.Role, level)
	fmt.Printf("  XP      %s %d/500\n", renderProgressBar(float64(xpIntoLevel)/500, 20), xpIntoLevel)
	fmt.Printf("  Lives   %d/5   Stamina %d/100   Tokens %d\n", p.Lives, p.Stamina, p.Tokens)
	fmt.Printf("  Streak  %d days (best %d)\n", p.Streak.CurrentStreak, p.Streak.LongestStreak)
	return nil
}

// cmdLogin records today's login
func cmdLogin() error {
	id, err := activePlayer()
	if err != nil {
		return err
	}

	var resp struct {
		Player struct {
			Streak struct {
				CurrentStreak int `json:"current_streak"`
			} `json:"streak"`
		} `json:"player"`
		StreakChanged bool `json:"streak_changed"`
	}
	if err := apiPost("/v1/players/"+id+"/login", nil, &resp); err != nil {
		return err
	}

	if resp.StreakChanged {
		fmt.Printf("✓ Logged in. Streak: %d days\n", resp.Player.Streak.CurrentStreak)
	} else {
		fmt.Println("Already logged in today.")
	}
	return nil
}

// cmdLevels lists the level board for the active intern
func cmdLevels() error {
	id, err := activePlayer()
	if err != nil {
		return err
	}

	var resp struct {
		Levels []struct {
			Level struct {
				ID          int    `json:"id"`
				RoomID      string `json:"room_id"`
				Title       string `json:"title"`
				XPReward    int    `json:"xp_reward"`
				StaminaCost int    `json:"stamina_cost"`
			} `json:"level"`
			Unlocked  bool `json:"unlocked"`
			Completed bool `json:"completed"`
		} `json:"levels"`
	}
	if err := apiGet("/v1/players/"+id+"/levels", &resp); err != nil {
		return err
	}

	room := ""
	for _, v := range resp.Levels {
		if v.Level.RoomID != room {
			room = v.Level.RoomID
			fmt.Printf("\n%s\n", strings.ToUpper(room))
		}
		marker := "🔒"
		if v.Completed {
			marker = "✓ "
		} else if v.Unlocked {
			marker = "▶ "
		}
		fmt.Printf("  %s %2d. %-40s %d xp", marker, v.Level.ID, v.Level.Title, v.Level.XPReward)
		if v.Level.StaminaCost > 0 {
			fmt.Printf("  (%d stamina)", v.Level.StaminaCost)
		}
		fmt.Println()
	}
	return nil
}

// cmdSubmit sends work for a level. Free text is read from stdin; choice
// answers can be passed with --choice.
func cmdSubmit(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: marketcraft submit <level> [--choice <id>]")
	}
	levelID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid level id: %s", args[0])
	}

	submission := map[string]interface{}{}
	choice := ""
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "--choice" {
			choice = args[i+1]
		}
	}
	if choice != "" {
		submission["choice"] = choice
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read submission: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return fmt.Errorf("empty submission (pipe your work into stdin or use --choice)")
		}
		submission["text"] = text
	}

	id, err := activePlayer()
	if err != nil {
		return err
	}

	var outcome struct {
		Result struct {
			Score    int    `json:"score"`
			Passed   bool   `json:"passed"`
			Feedback string `json:"feedback"`
			Criteria []struct {
				Name     string `json:"name"`
				Score    int    `json:"score"`
				Feedback string `json:"feedback"`
			} `json:"criteria"`
			Improvement  string `json:"improvement"`
			AttemptsLeft int    `json:"attempts_left"`
			Strategy     string `json:"strategy"`
			Degraded     bool   `json:"degraded"`
		} `json:"result"`
		LevelCompleted  bool `json:"level_completed"`
		FirstCompletion bool `json:"first_completion"`
		XPAwarded       int  `json:"xp_awarded"`
		TokensAwarded   int  `json:"tokens_awarded"`
		Unlocked        []struct {
			Title string `json:"title"`
		} `json:"unlocked"`
	}
	body := map[string]interface{}{"level_id": levelID, "submission": submission}
	if err := apiPost("/v1/players/"+id+"/submit", body, &outcome); err != nil {
		return err
	}

	r := outcome.Result
	fmt.Printf("Score: %d/100  %s\n", r.Score, renderProgressBar(float64(r.Score)/100, 20))
	if r.Degraded {
		fmt.Println("(graded offline: no evaluation provider was reachable)")
	}
	fmt.Println()
	fmt.Println(r.Feedback)
	for _, c := range r.Criteria {
		fmt.Printf("  • %s: %d", c.Name, c.Score)
		if c.Feedback != "" {
			fmt.Printf(": %s", c.Feedback)
		}
		fmt.Println()
	}
	if r.Improvement != "" {
		fmt.Printf("\nTry next: %s\n", r.Improvement)
	}

	fmt.Println()
	if outcome.LevelCompleted {
		fmt.Println("✓ Level complete!")
		if outcome.XPAwarded > 0 {
			fmt.Printf("  +%d XP", outcome.XPAwarded)
			if outcome.TokensAwarded > 0 {
				fmt.Printf("  +%d tokens", outcome.TokensAwarded)
			}
			fmt.Println()
		}
		for _, a := range outcome.Unlocked {
			fmt.Printf("  🏆 Achievement unlocked: %s\n", a.Title)
		}
	} else {
		fmt.Printf("✗ Not passed. Attempts left: %d\n", r.AttemptsLeft)
	}
	return nil
}

// cmdChallenges shows or completes today's daily challenges
func cmdChallenges(args []string) error {
	if len(args) >= 2 && args[0] == "complete" {
		return cmdCompleteChallenge(args[1])
	}

	var set struct {
		Date       string `json:"date"`
		Challenges []struct {
			ID          string `json:"id"`
			Tier        string `json:"tier"`
			Description string `json:"description"`
			XPReward    int    `json:"xp_reward"`
		} `json:"challenges"`
	}
	if err := apiGet("/v1/challenges/today", &set); err != nil {
		return err
	}

	fmt.Printf("Daily challenges for %s:\n", set.Date)
	for _, c := range set.Challenges {
		fmt.Printf("  [%-6s] %s: %s (+%d xp)\n", c.Tier, c.ID, c.Description, c.XPReward)
	}
	fmt.Println("\nComplete one with: marketcraft challenges complete <id>")
	return nil
}

func cmdCompleteChallenge(challengeID string) error {
	id, err := activePlayer()
	if err != nil {
		return err
	}

	var resp struct {
		XPAwarded int  `json:"xp_awarded"`
		Completed bool `json:"completed"`
	}
	if err := apiPost("/v1/players/"+id+"/challenges/"+challengeID, nil, &resp); err != nil {
		return err
	}

	if resp.Completed {
		fmt.Printf("✓ Challenge complete: +%d XP\n", resp.XPAwarded)
	} else {
		fmt.Println("Already completed today.")
	}
	return nil
}

// cmdClaim claims the streak XP bonus
func cmdClaim() error {
	id, err := activePlayer()
	if err != nil {
		return err
	}

	var resp struct {
		XPAwarded int  `json:"xp_awarded"`
		Claimed   bool `json:"claimed"`
	}
	if err := apiPost("/v1/players/"+id+"/streak/claim", nil, &resp); err != nil {
		return err
	}

	if resp.Claimed {
		fmt.Printf("✓ Streak bonus claimed: +%d XP\n", resp.XPAwarded)
	} else {
		fmt.Println("Nothing to claim (streak under 3 days, or already claimed today).")
	}
	return nil
}

// cmdPlayerStats shows attempt statistics for the active intern
func cmdPlayerStats() error {
	id, err := activePlayer()
	if err != nil {
		return err
	}

	var stats struct {
		Total     int     `json:"total"`
		Passed    int     `json:"passed"`
		Degraded  int     `json:"degraded"`
		AvgScore  float64 `json:"avg_score"`
		BestScore int     `json:"best_score"`
	}
	if err := apiGet("/v1/players/"+id+"/stats", &stats); err != nil {
		return err
	}

	fmt.Printf("Attempts:  %d\n", stats.Total)
	fmt.Printf("Passed:    %d\n", stats.Passed)
	fmt.Printf("Avg score: %.1f\n", stats.AvgScore)
	fmt.Printf("Best:      %d\n", stats.BestScore)
	if stats.Degraded > 0 {
		fmt.Printf("Graded offline: %d\n", stats.Degraded)
	}
	return nil
}

// cmdLeaderboard shows the shared leaderboard
func cmdLeaderboard() error {
	var resp struct {
		Entries []struct {
			PlayerName   string `json:"player_name"`
			TotalXP      int    `json:"total_xp"`
			BestScore    int    `json:"best_score"`
			LevelsPassed int    `json:"levels_passed"`
		} `json:"entries"`
	}
	if err := apiGet("/v1/leaderboard", &resp); err != nil {
		return err
	}

	fmt.Println("Leaderboard")
	fmt.Println("-----------")
	for i, e := range resp.Entries {
		fmt.Printf("  %2d. %-20s %6d xp  best %d  (%d levels)\n",
			i+1, e.PlayerName, e.TotalXP, e.BestScore, e.LevelsPassed)
	}
	return nil
}

// HTTP helpers

func apiGet(path string, out interface{}) error {
	resp, err := http.Get(daemonAddr + path)
	if err != nil {
		return fmt.Errorf("daemon not reachable (is it running? try 'marketcraft start'): %w", err)
	}
	defer resp.Body.Close()
	return decodeAPIResponse(resp, out)
}

func apiPost(path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader([]byte("{}"))
	}

	resp, err := http.Post(daemonAddr+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("daemon not reachable (is it running? try 'marketcraft start'): %w", err)
	}
	defer resp.Body.Close()
	return decodeAPIResponse(resp, out)
}

func decodeAPIResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			if apiErr.Details != "" {
				return fmt.Errorf("%s: %s", apiErr.Error, apiErr.Details)
			}
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Active player bookkeeping

func activePlayer() (string, error) {
	mcDir, err := config.MarketcraftDir()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(mcDir, activePlayerFile))
	if err != nil {
		return "", fmt.Errorf("no active player (create one with 'marketcraft new <name>')")
	}
	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("no active player (create one with 'marketcraft new <name>')")
	}
	return id, nil
}

func saveActivePlayer(id string) error {
	mcDir, err := config.EnsureMarketcraftDir()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(mcDir, activePlayerFile), []byte(id+"\n"), 0644)
}
