package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"glean/internal/score/grade"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
scoring:
  rules: /etc/glean/scoring.yaml
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", config.Logger.Level)
	assert.Equal(t, ":8080", config.Server.Address)
	assert.Equal(t, 1, config.Scoring.Min)
	assert.Equal(t, 1000000, config.Scoring.Max)
	assert.Equal(t, "_", config.Scoring.NonscoringPrefix)
	assert.True(t, config.Scoring.Watch)
	assert.Equal(t, 2*time.Second, config.Scoring.Email.Timeout)
	assert.Equal(t, grade.Default, config.Scoring.Grades)
	assert.Equal(t, 10, config.History.Length)
	assert.Equal(t, 24*time.Hour, config.History.TTL)
	assert.Equal(t, 100, config.Journal.Size)
	assert.Equal(t, 20, config.Journal.Amount)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: DEBUG
server:
  address: "127.0.0.1:9000"
  token: secret
scoring:
  rules: rules.yaml
  min: 0
  max: 500
  email:
    dns: true
    timeout: 500ms
  grades:
    - name: good
      max: 10
    - name: bad
      max: 500
history:
  length: 3
  ttl: 1h
journal:
  file: /var/log/glean/evaluations.jsonl
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", config.Server.Token)
	assert.Equal(t, 0, config.Scoring.Min)
	assert.Equal(t, 500, config.Scoring.Max)
	assert.True(t, config.Scoring.Email.DNS)
	assert.Equal(t, 500*time.Millisecond, config.Scoring.Email.Timeout)
	assert.Equal(t, grade.Bands{{Name: "good", Max: 10}, {Name: "bad", Max: 500}}, config.Scoring.Grades)
	assert.Equal(t, 3, config.History.Length)
	assert.Equal(t, time.Hour, config.History.TTL)
	assert.Equal(t, "/var/log/glean/evaluations.jsonl", config.Journal.File)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing rules": `logger: {level: info}`,
		"bad level":     "logger: {level: loud}\nscoring: {rules: r.yaml}",
		"min above max": "scoring: {rules: r.yaml, min: 10, max: 5}",
		"bad grades":    "scoring:\n  rules: r.yaml\n  grades: [{name: a, max: 5}, {name: b, max: 1}]",
		"bad history":   "scoring: {rules: r.yaml}\nhistory: {length: -1}",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
