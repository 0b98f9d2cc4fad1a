// Package config holds the bridge's environment settings and the job file
// model used by the command line tool.
package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/athapong/graph-bridge/pkg/explorer"
	"github.com/athapong/graph-bridge/pkg/graph"
	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/graph/display"
	"github.com/pkg/errors"
)

// Environment variable names
const (
	EnvAppURL     = "GRAPH_EXPLORER_URL"
	EnvMethod     = "GRAPH_EXPLORER_METHOD"
	EnvMaxRecords = "GRAPH_EXPLORER_MAX_RECORDS"
	EnvDisplay    = "GRAPH_EXPLORER_DISPLAY"
	EnvHostLinger = "GRAPH_EXPLORER_HOST_LINGER"
	EnvNeo4jURI   = "NEO4J_URI"
	EnvNeo4jUser  = "NEO4J_USERNAME"
	EnvNeo4jPass  = "NEO4J_PASSWORD"
	EnvNeo4jDB    = "NEO4J_DATABASE"
)

// Neo4j holds connection settings for the Cypher table source
type Neo4j struct {
	URI      string
	Username string
	Password string
	Database string
}

// Configured reports whether a Neo4j URI is set
func (n Neo4j) Configured() bool {
	return n.URI != ""
}

// Bridge is the process-wide delivery configuration
type Bridge struct {
	AppURL     string
	Method     delivery.Mode
	MaxRecords int
	Display    display.Preference
	HostLinger time.Duration
	Neo4j      Neo4j
}

// DefaultBridge returns the built-in settings
func DefaultBridge() Bridge {
	return Bridge{
		AppURL:     explorer.DefaultAppURL,
		Method:     delivery.ModeURL,
		MaxRecords: graph.DefaultMaxRecords,
		Display:    display.PreferenceAuto,
		HostLinger: display.DefaultLinger,
	}
}

// BridgeFromEnv overlays environment settings on DefaultBridge. Invalid
// values keep their default and are reported together in the error; the
// returned Bridge is always usable.
func BridgeFromEnv(getenv func(string) string) (Bridge, error) {
	b := DefaultBridge()
	var problems []string

	if v := strings.TrimSpace(getenv(EnvAppURL)); v != "" {
		b.AppURL = v
	}
	if v := getenv(EnvMethod); v != "" {
		if mode, err := delivery.ParseMode(v); err != nil {
			problems = append(problems, EnvMethod+": "+err.Error())
		} else {
			b.Method = mode
		}
	}
	if v := getenv(EnvMaxRecords); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err != nil || n < 0 {
			problems = append(problems, EnvMaxRecords+": must be a non-negative integer")
		} else if n > 0 {
			b.MaxRecords = n
		}
	}
	if v := getenv(EnvDisplay); v != "" {
		if pref, err := display.ParsePreference(v); err != nil {
			problems = append(problems, EnvDisplay+": "+err.Error())
		} else {
			b.Display = pref
		}
	}
	if v := getenv(EnvHostLinger); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err != nil || d <= 0 {
			problems = append(problems, EnvHostLinger+": must be a positive duration")
		} else {
			b.HostLinger = d
		}
	}

	b.Neo4j = Neo4j{
		URI:      getenv(EnvNeo4jURI),
		Username: getenv(EnvNeo4jUser),
		Password: getenv(EnvNeo4jPass),
		Database: getenv(EnvNeo4jDB),
	}

	if len(problems) > 0 {
		return b, errors.Errorf("invalid environment: %s", strings.Join(problems, "; "))
	}
	return b, nil
}
