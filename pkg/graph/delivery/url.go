package delivery

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// MaxURLLength is the URL size above which a length advisory is raised
const MaxURLLength = 2000

// ErrUnsupportedMode is returned for a delivery mode outside the known set
var ErrUnsupportedMode = errors.New("unsupported delivery mode")

// Mode selects a delivery channel
type Mode string

const (
	ModeURL           Mode = "url"
	ModeLiveInjection Mode = "live-injection"
)

// ParseMode resolves a mode name. The empty string selects ModeURL; "js"
// and "live" are accepted for ModeLiveInjection.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "url":
		return ModeURL, nil
	case "live-injection", "live_injection", "live", "js":
		return ModeLiveInjection, nil
	}
	return "", errors.Wrapf(ErrUnsupportedMode, "%q", s)
}

// BuildURL returns <base>/?data=<payload> with the payload percent-encoded.
// One trailing slash on base is dropped so it is not doubled. Slashes in the
// payload are encoded as %2F; the app decodes that and a bare "/" alike.
func BuildURL(base, payload string) string {
	return strings.TrimSuffix(base, "/") + "/?data=" + escape(payload)
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
