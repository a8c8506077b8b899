package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name     string   `json:"name"`
	Interval int      `json:"interval"`
	Games    []string `json:"games"`
}

func writeFile(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	writeFile(t, path, `{
		// comments are allowed
		name: "base",
		interval: 60,
		games: ["520"],
	}`)
	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "base", Interval: 60, Games: []string{"520"}}, cfg)

	writeFile(t, filepath.Join(dir, "config.local.json5"), `{ name: "local" }`)
	cfg, err = ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "local", cfg.Name)
	require.Equal(t, 60, cfg.Interval)
}

func TestReadConfigWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	writeFile(t, path, `{ name: "set" }`)

	cfg, err := ReadConfigWithDefaults(path, testConfig{Name: "default", Interval: 60})
	require.NoError(t, err)
	require.Equal(t, "set", cfg.Name)
	require.Equal(t, 60, cfg.Interval)
}

func TestSplitExt(t *testing.T) {
	name, ext := splitExt("config.json5")
	require.Equal(t, "config", name)
	require.Equal(t, "json5", ext)

	name, ext = splitExt("noext")
	require.Equal(t, "noext", name)
	require.Equal(t, "", ext)
}

type reminderConfig struct {
	ThresholdHours float64 `json:"threshold_hours"`
	Console        bool    `json:"console"`
	Message        string  `json:"message"`
}

func TestReadConfigWithDefaultsKeepsExplicitZero(t *testing.T) {
	defaults := reminderConfig{ThresholdHours: 12, Console: true, Message: "hurry"}

	cases := []struct {
		name     string
		base     string
		local    string
		expected reminderConfig
	}{
		{
			name:     "unset fields keep defaults",
			base:     `{}`,
			expected: defaults,
		},
		{
			name:     "explicit zero number",
			base:     `{ threshold_hours: 0 }`,
			expected: reminderConfig{ThresholdHours: 0, Console: true, Message: "hurry"},
		},
		{
			name:     "explicit false and empty string",
			base:     `{ console: false, message: "" }`,
			expected: reminderConfig{ThresholdHours: 12},
		},
		{
			name:     "local file zeroes a base value",
			base:     `{ threshold_hours: 6 }`,
			local:    `{ threshold_hours: 0 }`,
			expected: reminderConfig{ThresholdHours: 0, Console: true, Message: "hurry"},
		},
		{
			name:     "local file only",
			local:    `{ message: "local" }`,
			expected: reminderConfig{ThresholdHours: 12, Console: true, Message: "local"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "config.json5")
			if tc.base != "" {
				writeFile(t, path, tc.base)
			}
			if tc.local != "" {
				writeFile(t, filepath.Join(dir, "config.local.json5"), tc.local)
			}

			cfg, err := ReadConfigWithDefaults(path, defaults)
			require.NoError(t, err)
			require.Equal(t, tc.expected, cfg)
		})
	}
}

func TestReadConfigWithDefaultsMissing(t *testing.T) {
	defaults := reminderConfig{ThresholdHours: 12}
	cfg, err := ReadConfigWithDefaults(filepath.Join(t.TempDir(), "config.json5"), defaults)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Equal(t, defaults, cfg)
}
