package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds the user-configurable names the coordination layer uses
// inside a shared folder.
//
//nolint:tagliatelle // snake_case for config file
type Config struct {
	DocumentName string `json:"document_name"`
	AttachDir    string `json:"attach_dir"`
	UserName     string `json:"user_name,omitempty"`
	LedgerDir    string `json:"ledger_dir,omitempty"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DocumentName: "sealbook.json",
		AttachDir:    "attachments",
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".sealbook.json"

// getGlobalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/sealbook/config.json if set, otherwise
// ~/.config/sealbook/config.json. Empty if no home directory.
func getGlobalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "sealbook", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "sealbook", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config
// 3. Project config file (.sealbook.json in workDir, if present)
// 4. Explicit config file via configPath (if non-empty)
// 5. CLI overrides.
func LoadConfig(workDir, configPath string, overrides Config, env map[string]string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	if globalPath := getGlobalConfigPath(env); globalPath != "" {
		globalCfg, loaded, err := loadConfigFile(globalPath, false)
		if err != nil {
			return Config{}, ConfigSources{}, err
		}

		if loaded {
			sources.Global = globalPath
			cfg = mergeConfig(cfg, globalCfg)
		}
	}

	projectFile := filepath.Join(workDir, ConfigFileName)
	mustExist := false

	if configPath != "" {
		projectFile = configPath
		if !filepath.IsAbs(projectFile) {
			projectFile = filepath.Join(workDir, projectFile)
		}

		mustExist = true
	}

	projectCfg, loaded, err := loadConfigFile(projectFile, mustExist)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	if loaded {
		sources.Project = projectFile
		cfg = mergeConfig(cfg, projectCfg)
	}

	cfg = mergeConfig(cfg, overrides)

	validateErr := validateConfig(cfg)
	if validateErr != nil {
		return Config{}, ConfigSources{}, validateErr
	}

	return cfg, sources, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return a zero config.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		if mustExist {
			return Config{}, false, fmt.Errorf("%w: %s", errConfigNotFound, path)
		}

		return Config{}, false, nil
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", errConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DocumentName != "" {
		base.DocumentName = overlay.DocumentName
	}

	if overlay.AttachDir != "" {
		base.AttachDir = overlay.AttachDir
	}

	if overlay.UserName != "" {
		base.UserName = overlay.UserName
	}

	if overlay.LedgerDir != "" {
		base.LedgerDir = overlay.LedgerDir
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.DocumentName == "" {
		return errDocNameEmpty
	}

	if cfg.AttachDir == "" {
		return errAttachDirEmpty
	}

	if strings.ContainsAny(cfg.AttachDir, `/\`) {
		return fmt.Errorf("%w: %q", errAttachDirNested, cfg.AttachDir)
	}

	return nil
}

// FormatConfig returns the config as formatted JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
