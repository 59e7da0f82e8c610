package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marketcraft/marketcraft/internal/config"
)

// cmdInit initializes MarketCraft for first-time use
func cmdInit() error {
	fmt.Println("MarketCraft - First-Time Setup")
	fmt.Println("==============================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	// 1. Create directory structure
	fmt.Print("Creating ~/.marketcraft directory structure... ")
	mcDir, err := config.EnsureMarketcraftDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	// 2. Create default config if it doesn't exist
	configPath := filepath.Join(mcDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	// 3. Copy bundled content packs
	fmt.Print("Setting up level content... ")
	contentDest := filepath.Join(mcDir, "content")

	// Check if content exists in current directory (dev mode)
	if _, err := os.Stat("./content"); err == nil {
		if err := copyDir("./content", contentDest); err != nil {
			fmt.Println("⚠ (manual copy required)")
		} else {
			fmt.Println("✓")
		}
	} else {
		roomsDir := filepath.Join(contentDest, "rooms")
		if err := os.MkdirAll(roomsDir, 0755); err == nil {
			fmt.Println("✓ (placeholder created)")
		}
	}

	// 4. Configure the keyed provider
	fmt.Println()
	fmt.Println("Evaluation Provider Setup")
	fmt.Println("-------------------------")
	fmt.Println("MarketCraft grades free-text work with a provider chain:")
	fmt.Println("a free text endpoint first, then Gemini when a key is set.")
	fmt.Println("Without either, grading falls back to offline heuristics.")
	fmt.Println()

	cfg, _ := config.LoadLocalConfig()

	if cfg != nil && cfg.Evaluation.Providers["gemini"] != nil && cfg.Evaluation.Providers["gemini"].APIKey != "" {
		fmt.Println("Gemini API key: already configured ✓")
	} else {
		fmt.Print("Enter Gemini API key (or press Enter to skip): ")
		key, _ := reader.ReadString('\n')
		key = strings.TrimSpace(key)
		if key != "" {
			secrets := map[string]string{"gemini": key}
			if err := config.SaveSecrets(secrets); err != nil {
				fmt.Printf("  ⚠ Failed to save: %v\n", err)
			} else {
				fmt.Println("  ✓ Saved")
			}
		}
	}

	// 5. Summary
	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println("===============")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. marketcraft start         # Start the daemon")
	fmt.Println("  2. marketcraft new <name>    # Create your intern")
	fmt.Println("  3. marketcraft levels        # See the level board")

	return nil
}

// cmdConfig shows the current configuration without secrets
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

// cmdProvider manages evaluation provider keys
func cmdProvider(args []string) error {
	if len(args) == 0 {
		return cmdProviderList()
	}

	switch args[0] {
	case "list":
		return cmdProviderList()
	case "set-key":
		if len(args) < 2 {
			return fmt.Errorf("usage: marketcraft provider set-key <name> [key]")
		}
		return cmdProviderSetKey(args[1], args[2:])
	default:
		return fmt.Errorf("unknown provider command: %s", args[0])
	}
}

func cmdProviderList() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Evaluation providers (fallback order):")
	for i, name := range cfg.Evaluation.Chain {
		providerCfg, ok := cfg.Evaluation.Providers[name]
		if !ok {
			continue
		}
		state := "disabled"
		if providerCfg.Enabled {
			state = "enabled"
			if name != "textpool" && providerCfg.APIKey == "" {
				state = "enabled, no key"
			}
		}
		fmt.Printf("  %d. %-10s %s\n", i+1, name, state)
	}
	return nil
}

func cmdProviderSetKey(name string, rest []string) error {
	var key string
	if len(rest) > 0 {
		key = rest[0]
	} else {
		fmt.Printf("Enter API key for %s: ", name)
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		key = strings.TrimSpace(line)
	}
	if key == "" {
		return fmt.Errorf("no key provided")
	}

	if err := config.SaveSecrets(map[string]string{name: key}); err != nil {
		return fmt.Errorf("save secrets: %w", err)
	}
	fmt.Printf("✓ Saved key for %s\n", name)
	fmt.Println("Restart the daemon to pick up the change.")
	return nil
}

// copyDir copies a directory recursively
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()

		_, err = io.Copy(out, in)
		return err
	})
}
