package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"scorewatch/src/catalog"
	"scorewatch/src/privacy"
	"scorewatch/src/session"
)

const (
	// EnvPathVar points at an alternate settings file when no .env sits next
	// to the executable.
	EnvPathVar = "SCOREWATCH_ENV"

	defaultArchiveURL = "https://v-archive.example.net"
	defaultIntervalMS = 800
)

// Settings is everything the watcher reads at capture time. It is loaded
// once and replaced wholesale on reload; nothing in the pipeline mutates it.
type Settings struct {
	ArchiveURL        string
	Game              catalog.Game
	Privacy           privacy.Policy
	SaveImages        bool
	PicturesRoot      string
	CaptureIntervalMS int
	EnableFileLogging bool
	HistoryDBPath     string
	// DisabledRegions switches individual sampling regions off by name.
	DisabledRegions map[string]bool
	Session         session.Session
}

// Interval returns the capture interval with the default applied.
func (s *Settings) Interval() int {
	if s.CaptureIntervalMS > 0 {
		return s.CaptureIntervalMS
	}
	return defaultIntervalMS
}

// EnabledRegions builds the per-screen enablement map for a game.
func (s *Settings) EnabledRegions(cat *catalog.Catalog) map[string]bool {
	enabled := make(map[string]bool)
	for _, screen := range cat.Screens(s.Game) {
		enabled[screen.Name] = !s.DisabledRegions[screen.Name]
	}
	return enabled
}

// Load reads settings from the resolved .env file plus the environment.
// Environment variables win over file values.
func Load() (*Settings, error) {
	envPath := ResolveEnvPath()
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	game := catalog.Game(strings.ToUpper(getEnvWithDefault("GAME_CODE", string(catalog.GameDMRV))))

	mode, err := parsePrivacyMode(getEnvWithDefault("PRIVACY_MODE", "all"))
	if err != nil {
		return nil, err
	}
	style, err := parseRedactionStyle(getEnvWithDefault("REDACTION_STYLE", "fill"))
	if err != nil {
		return nil, err
	}

	intervalMS := defaultIntervalMS
	if v := os.Getenv("CAPTURE_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			intervalMS = n
		}
	}

	disabled := make(map[string]bool)
	if csv := os.Getenv("DISABLED_REGIONS"); csv != "" {
		for _, name := range strings.Split(csv, ",") {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				disabled[trimmed] = true
			}
		}
	}

	cfg := &Settings{
		ArchiveURL: getEnvWithDefault("ARCHIVE_URL", defaultArchiveURL),
		Game:       game,
		Privacy:    privacy.Policy{Mode: mode, Style: style},
		SaveImages: strings.ToLower(os.Getenv("SAVE_IMAGES")) != "false",
		PicturesRoot: getEnvWithDefault("PICTURES_ROOT",
			filepath.Join(userHomeDir(), "Pictures")),
		CaptureIntervalMS: intervalMS,
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		HistoryDBPath:     getEnvWithDefault("HISTORY_DB", "scorewatch_history.db"),
		DisabledRegions:   disabled,
		Session: session.Session{
			UserNo:      os.Getenv("USER_NO"),
			Token:       os.Getenv("USER_TOKEN"),
			DisplayName: os.Getenv("DISPLAY_NAME"),
			LinkedID:    os.Getenv("LINKED_ID"),
			LinkedToken: os.Getenv("LINKED_TOKEN"),
		},
	}
	return cfg, nil
}

// ResolveEnvPath finds the settings file: .env next to the executable first,
// then the SCOREWATCH_ENV override.
func ResolveEnvPath() string {
	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}
	if alt := os.Getenv(EnvPathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return ""
}

func parsePrivacyMode(v string) (privacy.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "all":
		return privacy.MaskAllProfiles, nil
	case "others":
		return privacy.MaskOthersOnly, nil
	case "none":
		return privacy.MaskNone, nil
	default:
		return 0, fmt.Errorf("config: unknown PRIVACY_MODE %q (want all, others or none)", v)
	}
}

func parseRedactionStyle(v string) (privacy.Style, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "fill":
		return privacy.StyleFill, nil
	case "blur":
		return privacy.StyleBlur, nil
	default:
		return 0, fmt.Errorf("config: unknown REDACTION_STYLE %q (want fill or blur)", v)
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
