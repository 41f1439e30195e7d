package ruleset

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	file := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, file, rulesV1)

	store := NewStore(file)
	require.NoError(t, store.Load())

	w, err := NewWatcher(store, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	writeRules(t, file, rulesV2)
	assert.Eventually(t, func() bool {
		return len(store.Rules()) == 2
	}, 5*time.Second, 20*time.Millisecond)

	w.Stop()
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "rules.yaml")
	writeRules(t, file, rulesV1)

	store := NewStore(file)
	require.NoError(t, store.Load())

	w, err := NewWatcher(store, 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	writeRules(t, filepath.Join(dir, "other.yaml"), "not: rules")
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, store.Rules(), 1)

	w.Stop()
}

func TestWatcher_StopOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	file := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, file, rulesV1)

	w, err := NewWatcher(NewStore(file), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	w.Stop()
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(NewStore(filepath.Join(t.TempDir(), "rules.yaml")), 0)
	require.NoError(t, err)
	w.Stop()
}
