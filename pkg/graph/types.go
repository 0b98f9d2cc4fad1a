package graph

import (
	"fmt"
)

// Output schema column names
const (
	ColumnSource           = "Source"
	ColumnTarget           = "Target"
	ColumnRelationshipType = "RelationshipType"
)

const (
	// DefaultRelationshipType is given to every edge when no relationship column is named
	DefaultRelationshipType = "connection"

	// DefaultMaxRecords bounds the number of edges handed to the viewer
	DefaultMaxRecords = 1000
)

// EdgeColumns is the fixed column order of a normalized table
var EdgeColumns = []string{ColumnSource, ColumnTarget, ColumnRelationshipType}

// EdgeRecord is one row of a normalized table
type EdgeRecord struct {
	Source           interface{} `json:"Source"`
	Target           interface{} `json:"Target"`
	RelationshipType interface{} `json:"RelationshipType"`
}

// AdvisoryKind classifies a non-fatal notice
type AdvisoryKind string

const (
	AdvisoryTruncated       AdvisoryKind = "truncated"
	AdvisoryURLLength       AdvisoryKind = "url_length"
	AdvisoryDisplayFallback AdvisoryKind = "display_fallback"
)

// Advisory is an informational notice surfaced to the caller. Advisories
// never stop a call from completing.
type Advisory struct {
	Kind    AdvisoryKind `json:"kind"`
	Message string       `json:"message"`
}

func (a Advisory) String() string {
	return fmt.Sprintf("%s: %s", a.Kind, a.Message)
}

// Truncation records that the limiter dropped rows
type Truncation struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Advisory renders the truncation notice
func (t Truncation) Advisory() Advisory {
	return Advisory{
		Kind:    AdvisoryTruncated,
		Message: fmt.Sprintf("Dataset truncated from %d to %d records.", t.From, t.To),
	}
}
