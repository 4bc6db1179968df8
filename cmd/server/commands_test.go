package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestWorkerCommandNeedsRedisQueue(t *testing.T) {
	testConfig(t, map[string]string{"ALTSCRIBE_TASK_QUEUE": "memory"})

	_, err := run(t, "worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task.queue=redis")
}

func TestServeRejectsNegativeWorkers(t *testing.T) {
	testConfig(t, nil)

	_, err := run(t, "serve", "--workers=-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--workers")
}

func TestMigrateCommands(t *testing.T) {
	testConfig(t, map[string]string{
		"ALTSCRIBE_STORAGE_DATABASE_URL": "sqlite://" + filepath.Join(t.TempDir(), "migrate.db"),
	})

	out, err := run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.NotContains(t, out, "applied")

	_, err = run(t, "migrate", "up")
	require.NoError(t, err)

	out, err = run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "00001")
	assert.Contains(t, out, "00002")
	assert.NotContains(t, out, "pending")

	_, err = run(t, "migrate", "down")
	require.NoError(t, err)

	out, err = run(t, "migrate", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "pending")
}

func TestMigrateNeedsDatabaseURL(t *testing.T) {
	testConfig(t, nil)

	_, err := run(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.database_url")
}
