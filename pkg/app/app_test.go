package app

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/eventdash/pkg/config"
	"github.com/platinummonkey/eventdash/pkg/kpi"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(context.Background(), config.Default(), quietLogger(), nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{
		"active_chat_users",
		"identity_users",
		"medium_chat_users",
		"producers",
		"thread_users",
	}, c.Board.Names())
	assert.Equal(t, "events-v2", c.Analytics.Index())
	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Snapshots)

	_, err = c.KPI.Targets(context.Background())
	assert.ErrorIs(t, err, kpi.ErrNotConfigured)
}

func TestNew_Snapshots(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Snapshot.Enabled = true
	cfg.Snapshot.Redis.URL = "redis://" + mr.Addr()

	c, err := New(context.Background(), cfg, quietLogger(), nil)
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.Snapshots)
	assert.NoError(t, c.Snapshots.Ping(context.Background()))
}

func TestNew_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Search.Addresses = nil
	_, err := New(context.Background(), cfg, quietLogger(), nil)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Sheets.SpreadsheetID = "sheet-1"
	cfg.Sheets.CredentialsFile = "/nonexistent/creds.json"
	_, err = New(context.Background(), cfg, quietLogger(), nil)
	assert.Error(t, err)
}
