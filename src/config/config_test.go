package config

import (
	"testing"

	"scorewatch/src/catalog"
	"scorewatch/src/privacy"
)

var envKeys = []string{
	"GAME_CODE", "PRIVACY_MODE", "REDACTION_STYLE", "CAPTURE_INTERVAL_MS",
	"DISABLED_REGIONS", "ARCHIVE_URL", "SAVE_IMAGES", "PICTURES_ROOT",
	"ENABLE_FILE_LOGGING", "HISTORY_DB", "USER_NO", "USER_TOKEN",
	"DISPLAY_NAME", "LINKED_ID", "LINKED_TOKEN", EnvPathVar,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Game != catalog.GameDMRV {
		t.Errorf("expected default game DMRV, got %s", cfg.Game)
	}
	if cfg.Privacy.Mode != privacy.MaskAllProfiles || cfg.Privacy.Style != privacy.StyleFill {
		t.Errorf("unexpected default privacy policy: %+v", cfg.Privacy)
	}
	if !cfg.SaveImages {
		t.Errorf("expected image saving on by default")
	}
	if cfg.Interval() != 800 {
		t.Errorf("expected default interval 800ms, got %d", cfg.Interval())
	}
	if cfg.Session.SignedIn() {
		t.Errorf("expected signed-out session with no credentials")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GAME_CODE", "wjmx")
	t.Setenv("PRIVACY_MODE", "others")
	t.Setenv("REDACTION_STYLE", "blur")
	t.Setenv("CAPTURE_INTERVAL_MS", "1500")
	t.Setenv("SAVE_IMAGES", "false")
	t.Setenv("ARCHIVE_URL", "http://localhost:9999")
	t.Setenv("USER_NO", "42")
	t.Setenv("USER_TOKEN", "tok")
	t.Setenv("LINKED_ID", "lk-1")
	t.Setenv("LINKED_TOKEN", "lk-tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Game != catalog.GameWJMX {
		t.Errorf("expected game code upper-cased to WJMX, got %s", cfg.Game)
	}
	if cfg.Privacy.Mode != privacy.MaskOthersOnly || cfg.Privacy.Style != privacy.StyleBlur {
		t.Errorf("unexpected privacy policy: %+v", cfg.Privacy)
	}
	if cfg.CaptureIntervalMS != 1500 {
		t.Errorf("expected interval 1500, got %d", cfg.CaptureIntervalMS)
	}
	if cfg.SaveImages {
		t.Errorf("expected image saving off")
	}
	if cfg.ArchiveURL != "http://localhost:9999" {
		t.Errorf("unexpected archive URL %q", cfg.ArchiveURL)
	}
	if !cfg.Session.SignedIn() {
		t.Errorf("expected signed-in session")
	}
	if id, token, err := cfg.Session.Credentials(catalog.GameWJMX); err != nil || id != "lk-1" || token != "lk-tok" {
		t.Errorf("expected linked credentials, got %q/%q (%v)", id, token, err)
	}
}

func TestLoadRejectsUnknownModes(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRIVACY_MODE", "sometimes")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for unknown PRIVACY_MODE")
	}

	clearEnv(t)
	t.Setenv("REDACTION_STYLE", "sparkle")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for unknown REDACTION_STYLE")
	}
}

func TestDisabledRegions(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISABLED_REGIONS", "open2, versus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("catalog.Load failed: %v", err)
	}

	enabled := cfg.EnabledRegions(cat)
	if !enabled["result"] || !enabled["open3"] {
		t.Errorf("expected untouched regions enabled: %v", enabled)
	}
	if enabled["open2"] || enabled["versus"] {
		t.Errorf("expected open2 and versus disabled: %v", enabled)
	}
}

func TestIntervalDefaultWhenUnset(t *testing.T) {
	s := &Settings{}
	if s.Interval() != 800 {
		t.Errorf("expected 800, got %d", s.Interval())
	}
	s.CaptureIntervalMS = 250
	if s.Interval() != 250 {
		t.Errorf("expected 250, got %d", s.Interval())
	}
}
