package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
	for _, env := range []string{"PANELGATE_SERVER_READ_TIMEOUT", "PANELGATE_PATHS_PANEL", "PANELGATE_PATHS_CALLBACK"} {
		t.Setenv(env, "")
	}
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	InitFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(newFlags(t))
	require.NoError(t, err)

	want := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Discord: DiscordConfig{BaseURL: "https://discord.com", Timeout: 10 * time.Second},
		Paths: PathsConfig{
			Callback: "/auth/discord",
			Panel:    "/admin-panel.html",
			Login:    "/login.html",
		},
		AuthorizedUserIDs: []string{},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Len(t, cfg.Warnings(), 4)
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_CLIENT_ID", "client-123")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret-xyz")
	t.Setenv("URL", "https://panel.example.test/")
	t.Setenv("AUTHORIZED_USER_IDS", " 1434253936600289302, 987654321098765432 ,,")
	t.Setenv("PROVIDER_TIMEOUT", "3s")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("PANELGATE_SERVER_READ_TIMEOUT", "1s")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "client-123", cfg.Discord.ClientID)
	assert.Equal(t, "secret-xyz", cfg.Discord.ClientSecret)
	assert.Equal(t, []string{"1434253936600289302", "987654321098765432"}, cfg.AuthorizedUserIDs)
	assert.Equal(t, 3*time.Second, cfg.Discord.Timeout)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "https://panel.example.test/auth/discord", cfg.CallbackURL())
	assert.Equal(t, "https://panel.example.test/admin-panel.html", cfg.PanelURL())
	assert.Empty(t, cfg.Warnings())
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(newFlags(t, "--port=9999", "--log-level=debug"))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "panelgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: https://panel.example.test
discord:
  client_id: from-file
  timeout: 4s
paths:
  panel: https://cdn.example.test/panel.html
authorized_user_ids:
  - "1434253936600289302"
  - "987654321098765432"
`), 0o600))
	t.Setenv("DISCORD_CLIENT_ID", "from-env")

	cfg, err := Load(newFlags(t, "--config", path))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Discord.ClientID)
	assert.Equal(t, 4*time.Second, cfg.Discord.Timeout)
	assert.Equal(t, []string{"1434253936600289302", "987654321098765432"}, cfg.AuthorizedUserIDs)
	assert.Equal(t, "https://cdn.example.test/panel.html", cfg.PanelURL())
	assert.Equal(t, "https://panel.example.test/auth/discord", cfg.CallbackURL())
}

func TestLoad_MissingConfigFileIsError(t *testing.T) {
	clearEnv(t)

	_, err := Load(newFlags(t, "--config", filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "zero timeout", env: map[string]string{"PROVIDER_TIMEOUT": "0s"}},
		{name: "negative timeout", env: map[string]string{"PROVIDER_TIMEOUT": "-1s"}},
		{name: "relative provider", env: map[string]string{"DISCORD_BASE_URL": "discord.com"}},
		{name: "relative url", env: map[string]string{"URL": "panel.example.test"}},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "callback without slash", env: map[string]string{"PANELGATE_PATHS_CALLBACK": "auth"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			assert.Error(t, err)
		})
	}
}

func TestGetVersionInfo(t *testing.T) {
	assert.Contains(t, GetVersionInfo(), "panelgate version dev")
}
