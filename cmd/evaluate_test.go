package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRules = `
- name: Spam words
  check: contains
  values: [viagra, casino]
  score: 50
  fields: ~
- name: Fast fill
  check: less_than
  property: duration
  values: 3
  score: 2000
  limit: 5000
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o600))
	return file
}

func TestEvaluateCommand(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", testRules)
	spam := writeFile(t, dir, "spam.json", `{"id": "a", "fields": {"message": "viagra casino"}, "meta": {"duration": 1}}`)
	clean := writeFile(t, dir, "clean.json", `{"id": "b", "fields": {"message": "hello"}, "meta": {"duration": "0:45"}}`)

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"evaluate", "--rules", rules, "--detailed", spam, clean})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first, second evaluation
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.Equal(t, "a", first.ID)
	assert.Equal(t, 2100, first.Score)
	assert.Equal(t, "junk", first.Grade)

	assert.Equal(t, "b", second.ID)
	assert.Equal(t, 1, second.Score)
	assert.Equal(t, "perfect", second.Grade)
}

func TestEvaluateCommand_MissingRules(t *testing.T) {
	dir := t.TempDir()
	form := writeFile(t, dir, "form.json", `{"id": "a", "fields": {"message": "viagra"}, "meta": {"duration": 1}}`)

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"evaluate", "--rules", filepath.Join(dir, "absent.yaml"), form})
	require.NoError(t, root.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &got))
	assert.Equal(t, map[string]any{"outcome": "unchanged"}, got["result"])
	assert.Equal(t, float64(-1), got["score"])
	assert.Equal(t, "ungraded", got["grade"])
}

func TestEvaluateCommand_UnparsableRules(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", "check: [unterminated")
	form := writeFile(t, dir, "form.json", `{"fields": {"name": "x"}, "meta": {"duration": 1}}`)

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"evaluate", "--rules", rules, form})
	assert.Error(t, root.Execute())
}

func TestEvaluateCommand_BadForm(t *testing.T) {
	dir := t.TempDir()
	rules := writeFile(t, dir, "rules.yaml", testRules)
	broken := writeFile(t, dir, "broken.json", `{"fields": {}}`)

	root := newRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"evaluate", "--rules", rules, broken})
	assert.Error(t, root.Execute())
}

func TestRulesValidateCommand(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", testRules)
	bad := writeFile(t, dir, "bad.yaml", testRules+"- check: regexp\n  values: \"(x\"\n  score: 1\n  fields: ~\n")

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"rules", "validate", good})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "2 rules loaded, 0 skipped")

	out.Reset()
	root = newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"rules", "validate", bad})
	assert.Error(t, root.Execute())
	assert.Contains(t, out.String(), "2 rules loaded, 1 skipped")
}

func TestRulesValidateCommand_UnknownCheck(t *testing.T) {
	dir := t.TempDir()
	odd := writeFile(t, dir, "odd.yaml", testRules+"- name: Rhymes\n  check: sounds_like\n  values: x\n  score: 1\n  fields: ~\n")

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"rules", "validate", odd})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "unknown Rhymes(sounds_like")
	assert.Contains(t, out.String(), "3 rules loaded, 0 skipped")
}
