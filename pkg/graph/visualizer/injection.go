package visualizer

import (
	"bytes"
	"html/template"
	"io"
	"time"

	"github.com/pkg/errors"
)

// DefaultFallbackDelay is how long the injection script waits before calling
// the viewer's load entry point regardless of the load event.
const DefaultFallbackDelay = 1000 * time.Millisecond

// The script opens the viewer in a new window and hands it the payload
// through loadGraphData. Both the load event and the timer call deliver, so
// the viewer may receive the same payload twice and must tolerate it.
const scriptTemplate = `<script>
(function() {
    const graphData = {{.Payload}};
    const graphWindow = window.open({{.AppURL}}, "_blank");
    if (!graphWindow) {
        console.error("Graph Explorer window could not be opened");
        return;
    }
    function deliver() {
        try {
            graphWindow.loadGraphData(graphData);
        } catch (e) {
            console.error("Error sending data to Graph Explorer:", e);
        }
    }
    graphWindow.onload = deliver;
    setTimeout(deliver, {{.DelayMillis}});
})();
</script>`

const hostTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Graph Explorer</title>
    <style>
        body {
            margin: 2em;
            font-family: Arial, sans-serif;
        }
        .status {
            color: #444;
        }
    </style>
</head>
<body>
    <p class="status">Sending data to Graph Explorer ({{.RecordCount}} records)</p>
    {{if .URL}}<p>If nothing opens, allow pop-ups for this page or <a href="{{.URL}}">open the graph by URL</a>.</p>{{end}}
    {{.Script}}
</body>
</html>
`

var (
	scriptTmpl = template.Must(template.New("inject").Parse(scriptTemplate))
	hostTmpl   = template.Must(template.New("host").Parse(hostTemplate))
)

// Script describes one live-injection script fragment
type Script struct {
	// AppURL is the viewer base address opened in the new window
	AppURL string
	// Payload is the serialized JSON array, embedded as a literal
	Payload string
	// FallbackDelay defaults to DefaultFallbackDelay
	FallbackDelay time.Duration
}

// RenderScript renders the <script> element that opens the viewer and
// delivers the payload to it.
func RenderScript(s Script) (string, error) {
	delay := s.FallbackDelay
	if delay <= 0 {
		delay = DefaultFallbackDelay
	}

	data := struct {
		AppURL      string
		Payload     template.JS
		DelayMillis int64
	}{
		AppURL:      s.AppURL,
		Payload:     template.JS(s.Payload),
		DelayMillis: delay.Milliseconds(),
	}

	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "render injection script")
	}
	return buf.String(), nil
}

// Page describes the page hosting an injection script
type Page struct {
	Script      string
	RecordCount int
	// URL is offered as a manual fallback link when set
	URL string
}

// RenderPage writes the host page
func RenderPage(w io.Writer, p Page) error {
	data := struct {
		Script      template.HTML
		RecordCount int
		URL         string
	}{
		Script:      template.HTML(p.Script),
		RecordCount: p.RecordCount,
		URL:         p.URL,
	}
	return errors.Wrap(hostTmpl.Execute(w, data), "render host page")
}
