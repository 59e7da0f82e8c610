package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7431"
	pidFile    = "marketcraftd.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "config":
		err = cmdConfig()
	case "provider":
		err = cmdProvider(os.Args[2:])
	case "new":
		err = cmdNewPlayer(os.Args[2:])
	case "me":
		err = cmdMe()
	case "login":
		err = cmdLogin()
	case "levels":
		err = cmdLevels()
	case "submit":
		err = cmdSubmit(os.Args[2:])
	case "challenges":
		err = cmdChallenges(os.Args[2:])
	case "claim":
		err = cmdClaim()
	case "leaderboard":
		err = cmdLeaderboard()
	case "stats":
		err = cmdPlayerStats()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("marketcraft %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`MarketCraft - The Marketing Internship Game

Usage:
  marketcraft <command> [arguments]

Setup Commands:
  init            Initialize MarketCraft (first-time setup)
  config          Show current configuration
  provider        Manage evaluation providers

Daemon Commands:
  start           Start the MarketCraft daemon
  stop            Stop the MarketCraft daemon
  status          Show daemon status
  logs            View daemon logs

Game Commands:
  new <name>      Create a new intern and make them active
  me              Show the active intern
  login           Record today's login (extends your streak)
  levels          List levels with lock and completion state
  submit <level>  Submit work for a level (reads text from stdin)
  challenges      Show today's daily challenges
  claim           Claim the streak XP bonus
  stats           Show attempt statistics
  leaderboard     Show the shared leaderboard

Other:
  help            Show this help message
  version         Show version information

Examples:
  marketcraft init                      # First-time setup
  marketcraft start                     # Start daemon
  marketcraft new Casey --role growth   # Create an intern
  marketcraft levels                    # See what's unlocked
  echo "my headline" | marketcraft submit 1`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
