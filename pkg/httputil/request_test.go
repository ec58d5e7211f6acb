package httputil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathString(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest("GET", "/users/u-1/events", nil), map[string]string{"id": "u-1"})

	val, err := ParsePathString(req, "id")
	require.NoError(t, err)
	assert.Equal(t, "u-1", val)

	_, err = ParsePathString(req, "missing")
	assert.Error(t, err)
}

func TestParsePathStringOrError(t *testing.T) {
	req := httptest.NewRequest("GET", "/users//events", nil)
	w := httptest.NewRecorder()

	_, ok := ParsePathStringOrError(w, req, "id")
	assert.False(t, ok)
	assert.Equal(t, 400, w.Code)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/paths?limit=25&bad=ten", nil)

	val, err := ParseQueryInt(req, "limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 25, val)

	val, err = ParseQueryInt(req, "page_size", 100)
	require.NoError(t, err)
	assert.Equal(t, 100, val)

	_, err = ParseQueryInt(req, "bad", 10)
	assert.Error(t, err)
}

func TestParseQueryString(t *testing.T) {
	req := httptest.NewRequest("GET", "/counts?interval=week", nil)

	assert.Equal(t, "week", ParseQueryString(req, "interval", "day"))
	assert.Equal(t, "day", ParseQueryString(req, "missing", "day"))
}

func TestParseQueryTime(t *testing.T) {
	tests := []struct {
		query   string
		want    *time.Time
		wantErr bool
	}{
		{"", nil, false},
		{"t=2024-05-01T10:30:00Z", ptr(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)), false},
		{"t=2024-05-01", ptr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)), false},
		{"t=yesterday", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := ParseQueryTime(httptest.NewRequest("GET", "/?"+tt.query, nil), "t")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got))
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	start, end, err := ParseTimeRange(httptest.NewRequest("GET", "/?start=2024-05-01&end=2024-05-08", nil))
	require.NoError(t, err)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, 8*24*time.Hour-time.Millisecond, end.Sub(*start))

	start, end, err = ParseTimeRange(httptest.NewRequest("GET", "/?start=2026-01-31&end=2026-01-31", nil))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), *start)
	assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC), *end)

	_, end, err = ParseTimeRange(httptest.NewRequest("GET", "/?end=2026-01-31T10:00:00.900Z", nil))
	require.NoError(t, err)
	assert.Equal(t, 900*time.Millisecond, time.Duration(end.Nanosecond()), "fractional seconds are kept")

	start, end, err = ParseTimeRange(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	_, _, err = ParseTimeRange(httptest.NewRequest("GET", "/?start=2024-05-08&end=2024-05-01", nil))
	assert.Error(t, err)

	_, _, err = ParseTimeRange(httptest.NewRequest("GET", "/?end=never", nil))
	assert.Error(t, err)
}

func TestParseQueryEndTime(t *testing.T) {
	got, err := ParseQueryEndTime(httptest.NewRequest("GET", "/?t=2024-02-28", nil), "t")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got.Add(time.Millisecond))

	got, err = ParseQueryEndTime(httptest.NewRequest("GET", "/?t=2024-02-28T12:00:00Z", nil), "t")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC), *got, "timestamps are taken as given")
}

func ptr(t time.Time) *time.Time { return &t }
