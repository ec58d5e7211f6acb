package httputil

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

// dateLayout is accepted alongside RFC 3339 for time parameters
const dateLayout = "2006-01-02"

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathStringOrError extracts a string path parameter and writes error on failure
func ParsePathStringOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathString(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}

// ParseQueryInt extracts and parses an integer query parameter
func ParseQueryInt(r *http.Request, key string, defaultVal int) (int, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for query param %s: %s", key, str)
	}
	return val, nil
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// ParseQueryTime parses an RFC 3339 timestamp or a YYYY-MM-DD date. A
// missing parameter yields nil.
func ParseQueryTime(r *http.Request, key string) (*time.Time, error) {
	return parseQueryTime(r, key, false)
}

// ParseQueryEndTime is ParseQueryTime for the closing end of a range: a bare
// date covers that whole day and resolves to its last millisecond.
func ParseQueryEndTime(r *http.Request, key string) (*time.Time, error) {
	return parseQueryTime(r, key, true)
}

func parseQueryTime(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, str); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(dateLayout, str); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("invalid time for query param %s: %s", key, str)
}

// ParseTimeRange reads the start and end query parameters. Either may be
// missing; when both are present start must not be after end. A date-only
// end includes the whole day.
func ParseTimeRange(r *http.Request) (start, end *time.Time, err error) {
	if start, err = ParseQueryTime(r, "start"); err != nil {
		return nil, nil, err
	}
	if end, err = ParseQueryEndTime(r, "end"); err != nil {
		return nil, nil, err
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, fmt.Errorf("start %s is after end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}
