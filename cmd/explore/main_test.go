package main

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lao-tseu-is-alive/go-boids-explore/internal/remote"
	"github.com/lao-tseu-is-alive/go-boids-explore/internal/simulation"
)

func httpConfig() *simulation.Config {
	cfg := simulation.DefaultConfig()
	cfg.SnapshotURL = "http://backend.test/boids"
	return cfg
}

func TestNewSnapshotSource_HTTP(t *testing.T) {
	src, closer, err := newSnapshotSource(context.Background(), httpConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &remote.HTTPSource{}, src)
	assert.NoError(t, closer.Close())
}

func TestNewSnapshotSource_Cached(t *testing.T) {
	redisServer, err := miniredis.Run()
	require.NoError(t, err)
	defer redisServer.Close()

	cfg := httpConfig()
	cfg.RedisAddr = redisServer.Addr()
	src, closer, err := newSnapshotSource(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &remote.CachedSource{}, src)
	assert.NoError(t, closer.Close())
}

func TestNewSnapshotSource_RedisUnreachable(t *testing.T) {
	redisServer, err := miniredis.Run()
	require.NoError(t, err)
	cfg := httpConfig()
	cfg.RedisAddr = redisServer.Addr()
	redisServer.Close()

	_, _, err = newSnapshotSource(context.Background(), cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}
