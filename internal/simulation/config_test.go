package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/flock"
)

const schemaFile = "../../configs/config.schema.json"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadConfig_ShippedFile(t *testing.T) {
	cfg, err := LoadConfig("../../configs/config.json", schemaFile)
	require.NoError(t, err)
	assert.Equal(t, SourceHTTP, cfg.Source)
	assert.Equal(t, 16, cfg.TickIntervalMs)
	assert.Equal(t, 10000, cfg.SyncIntervalMs)
	assert.Equal(t, flock.DefaultParams(), cfg.Params)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"snapshotUrl": "http://x/boids", "syncIntervalMs": 500, "params": {"max_speed": 3}}`)

	cfg, err := LoadConfig(path, schemaFile)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.SyncIntervalMs)
	assert.Equal(t, 16, cfg.TickIntervalMs)
	assert.Equal(t, 3.0, cfg.Params.MaxSpeed)
	assert.Equal(t, 1000.0, cfg.Params.WorldWidth)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"unknown source", `{"source": "ftp"}`},
		{"unknown field", `{"tickRate": 3}`},
		{"negative radius", `{"params": {"cohesion_radius": -5}}`},
		{"zero tick", `{"tickIntervalMs": 0}`},
		{"zero cache ttl", `{"cacheTtlMs": 0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body), schemaFile)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"), schemaFile)
	assert.Error(t, err)
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(env(map[string]string{
		"BOIDS_SNAPSHOT_URL":         "http://env/boids",
		"BOIDS_PARAMS_URL":           "http://env/params",
		"BOIDS_REDIS_ADDR":           "localhost:6379",
		"BOIDS_FIRESTORE_COLLECTION": "flock",
		"BOIDS_PRUNE_MISSING":        "true",
	}))
	require.NoError(t, err)
	assert.Equal(t, "http://env/boids", cfg.SnapshotURL)
	assert.Equal(t, "http://env/params", cfg.ParamsURL)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "flock", cfg.FirestoreCollection)
	assert.True(t, cfg.PruneMissing)
	assert.Equal(t, SourceHTTP, cfg.Source)
}

func TestConfig_ApplyEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
	}{
		{"no snapshot url", map[string]string{}},
		{"bad bool", map[string]string{"BOIDS_SNAPSHOT_URL": "http://x", "BOIDS_PRUNE_MISSING": "maybe"}},
		{"unknown source", map[string]string{"BOIDS_SOURCE": "carrier-pigeon"}},
		{"firestore without collection", map[string]string{"BOIDS_SOURCE": "firestore", "BOIDS_FIRESTORE_COLLECTION": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, DefaultConfig().ApplyEnv(env(tt.vars)))
		})
	}
}

func TestConfig_FirestoreNeedsNoURL(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{"BOIDS_SOURCE": SourceFirestore})))
	assert.Equal(t, "boids", cfg.FirestoreCollection)
}

func TestConfig_RedisNeedsTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SnapshotURL = "http://x"
	cfg.CacheTTLMs = 0
	assert.NoError(t, cfg.Validate(), "ttl is unused without redis")

	cfg.RedisAddr = "localhost:6379"
	assert.Error(t, cfg.Validate())
}

func TestConfig_LocalParamsValidated(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SnapshotURL = "http://x"
	cfg.Params.MaxSpeed = 5000
	assert.ErrorIs(t, cfg.Validate(), flock.ErrInvalidParams)

	cfg.ParamsURL = "http://x/params"
	assert.NoError(t, cfg.Validate())
}
