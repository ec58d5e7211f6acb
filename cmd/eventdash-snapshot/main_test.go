package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/eventdash/pkg/config"
)

func testConfig(t *testing.T, mr *miniredis.Miniredis) *config.Config {
	t.Helper()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"total":{"value":0}}}`)
	}))
	t.Cleanup(search.Close)
	identity := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"users":[]}`)
	}))
	t.Cleanup(identity.Close)

	cfg := config.Default()
	cfg.Search.Addresses = []string{search.URL}
	cfg.Search.Retry.MaxAttempts = 1
	cfg.Identity.URL = identity.URL
	cfg.Identity.Token = "t"
	cfg.Snapshot.Enabled = true
	cfg.Snapshot.Redis.URL = "redis://" + mr.Addr()
	return cfg
}

func TestRun_Once(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)

	*runOnce = true
	t.Cleanup(func() { *runOnce = false })

	log := logrus.New()
	log.SetOutput(io.Discard)

	require.NoError(t, run(cfg, log))

	assert.True(t, mr.Exists(cfg.Snapshot.Redis.KeyPrefix+":latest"))
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		time.Second, 10*time.Millisecond, "redis connections are closed on return")
}

func TestRun_BadScheduleStillCloses(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)
	cfg.Snapshot.Schedule = "every now and then"

	log := logrus.New()
	log.SetOutput(io.Discard)

	assert.Error(t, run(cfg, log))
	assert.False(t, mr.Exists(cfg.Snapshot.Redis.KeyPrefix+":latest"))
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		time.Second, 10*time.Millisecond, "redis connections are closed on error")
}
