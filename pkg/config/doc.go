// Package config provides application configuration management.
//
// # Overview
//
// Configuration starts from built-in defaults, is overlaid by an optional
// YAML file named by EVENTDASH_CONFIG_FILE and finally by environment
// variables. The result is validated before use.
//
// # Configuration Structure
//
// Server settings:
//
//	EVENTDASH_HOST="0.0.0.0"
//	EVENTDASH_PORT="8080"
//	EVENTDASH_HEALTH_PORT="9090"
//	EVENTDASH_SHUTDOWN_TIMEOUT="30s"
//
// Search settings:
//
//	EVENTDASH_OPENSEARCH_ADDRESSES="https://search-1:9200,https://search-2:9200"
//	EVENTDASH_OPENSEARCH_USERNAME="dashboard"
//	EVENTDASH_OPENSEARCH_INDEX="events-v2"
//	EVENTDASH_RETRY_MAX_ATTEMPTS="3"
//	EVENTDASH_RETRY_INITIAL_DELAY="1s"
//
// External sources:
//
//	DESCOPE_API_URL="https://api.descope.com/v1/mgmt/user/search"
//	DESCOPE_BEARER_TOKEN="..."
//	GOOGLE_SHEET_ID="1AbC..."
//	GOOGLE_APPLICATION_CREDENTIALS="/etc/eventdash/sheets.json"
//
// Snapshots:
//
//	EVENTDASH_SNAPSHOT_ENABLED="true"
//	EVENTDASH_SNAPSHOT_SCHEDULE="@every 15m"
//	EVENTDASH_REDIS_URL="redis://localhost:6379/0"
//
// Observability settings:
//
//	EVENTDASH_LOG_LEVEL="info"  # debug, info, warn, error
//	EVENTDASH_LOG_FORMAT="json" # json, text
//	EVENTDASH_OTEL_ENABLED="true"
//	EVENTDASH_OTEL_ENDPOINT="otel-collector:4317"
//
// The same fields in YAML:
//
//	server:
//	  port: "8080"
//	search:
//	  addresses: ["https://search-1:9200"]
//	  index: events-v2
//	  retry:
//	    max_attempts: 5
//	snapshot:
//	  enabled: true
//	  redis:
//	    url: redis://cache:6379/0
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
