package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Aggregation response shapes returned by the cluster.

type valueAgg struct {
	Value         *float64 `json:"value"`
	ValueAsString string   `json:"value_as_string"`
}

func (a valueAgg) int() int64 {
	if a.Value == nil {
		return 0
	}
	return int64(math.Round(*a.Value))
}

type histogramAgg struct {
	Buckets []struct {
		KeyAsString string `json:"key_as_string"`
		DocCount    int64  `json:"doc_count"`
	} `json:"buckets"`
}

func (h histogramAgg) timeBuckets() []TimeBucket {
	out := make([]TimeBucket, 0, len(h.Buckets))
	for _, b := range h.Buckets {
		out = append(out, TimeBucket{Timestamp: b.KeyAsString, Count: b.DocCount})
	}
	return out
}

type errorNamesAgg struct {
	Buckets []struct {
		Key              string   `json:"key"`
		DocCount         int64    `json:"doc_count"`
		LatestOccurrence valueAgg `json:"latest_occurrence"`
	} `json:"buckets"`
}

type popularPathsAgg struct {
	Buckets []struct {
		Key           string   `json:"key"`
		DocCount      int64    `json:"doc_count"`
		AverageStatus valueAgg `json:"average_status"`
		ErrorCount    struct {
			DocCount int64 `json:"doc_count"`
		} `json:"error_count"`
	} `json:"buckets"`
}

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return err
	}
	*f = flexString(data)
	return nil
}
