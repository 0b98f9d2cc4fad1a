package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/athapong/graph-bridge/pkg/graph/delivery"
	"github.com/athapong/graph-bridge/pkg/table/sources"
)

// IssueSeverity represents the severity of a job issue
type IssueSeverity string

const (
	// SeverityError blocks the job from running
	SeverityError IssueSeverity = "error"
	// SeverityWarning is reported but does not block the job
	SeverityWarning IssueSeverity = "warning"
)

// largeJobRecords is the limit above which URL delivery is unlikely to fit
const largeJobRecords = 10000

// Issue describes a single validation finding. Path is a dotted path into
// the job (e.g. "filters[1].operator").
type Issue struct {
	Severity IssueSeverity `json:"severity"`
	Path     string        `json:"path"`
	Message  string        `json:"message"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate checks the job without touching its input. It does not modify
// the job.
func (j *Job) Validate() []Issue {
	var issues []Issue
	issues = append(issues, validateInput(j.Input)...)

	if strings.TrimSpace(j.Columns.Source) == "" {
		issues = append(issues, Issue{SeverityError, "columns.source", "source column must not be empty"})
	}
	if strings.TrimSpace(j.Columns.Target) == "" {
		issues = append(issues, Issue{SeverityError, "columns.target", "target column must not be empty"})
	}

	for i, f := range j.Filters {
		path := fmt.Sprintf("filters[%d]", i)
		if strings.TrimSpace(f.Column) == "" {
			issues = append(issues, Issue{SeverityError, path + ".column", "filter column must not be empty"})
			continue
		}
		if _, err := f.Condition(); err != nil {
			issues = append(issues, Issue{SeverityError, path, err.Error()})
		}
	}

	if j.MaxRecords != nil {
		switch n := *j.MaxRecords; {
		case n < 0:
			issues = append(issues, Issue{SeverityError, "max_records", "max_records must not be negative"})
		case n > largeJobRecords:
			issues = append(issues, Issue{SeverityWarning, "max_records",
				fmt.Sprintf("%d records will not fit in a URL; consider the live-injection method", n)})
		}
	}

	issues = append(issues, validateDelivery(j.Delivery)...)
	return issues
}

func validateInput(in Input) []Issue {
	var issues []Issue

	hasLocation := strings.TrimSpace(in.Location) != ""
	hasCypher := strings.TrimSpace(in.Cypher) != ""
	switch {
	case !hasLocation && !hasCypher:
		issues = append(issues, Issue{SeverityError, "input", "either input.location or input.cypher is required"})
	case hasLocation && hasCypher:
		issues = append(issues, Issue{SeverityError, "input", "input.location and input.cypher are mutually exclusive"})
	}

	if in.Format != "" {
		switch sources.Format(strings.ToLower(in.Format)) {
		case sources.FormatCSV, sources.FormatTSV, sources.FormatJSON, sources.FormatParquet, sources.FormatHTML:
		default:
			issues = append(issues, Issue{SeverityError, "input.format", fmt.Sprintf("unknown format %q", in.Format)})
		}
	} else if hasLocation {
		if _, ok := sources.DetectFormat(in.Location); !ok && !isHTTP(in.Location) {
			issues = append(issues, Issue{SeverityError, "input.format", "format cannot be detected from the location; set input.format"})
		}
	}

	if in.DataPath != "" && in.Format != "" && !strings.EqualFold(in.Format, string(sources.FormatJSON)) {
		issues = append(issues, Issue{SeverityWarning, "input.data_path", "data_path only applies to JSON input"})
	}
	return issues
}

func validateDelivery(d Delivery) []Issue {
	var issues []Issue

	if d.AppURL != "" {
		u, err := url.Parse(d.AppURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{SeverityError, "delivery.app_url", fmt.Sprintf("%q is not an absolute URL", d.AppURL)})
		}
	}

	mode, err := delivery.ParseMode(d.Method)
	if err != nil {
		issues = append(issues, Issue{SeverityError, "delivery.method", err.Error()})
	} else if mode == delivery.ModeLiveInjection && d.Display != nil && !*d.Display {
		issues = append(issues, Issue{SeverityWarning, "delivery.display", "live injection never runs with display disabled; URL delivery will be used"})
	}
	return issues
}

func isHTTP(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
