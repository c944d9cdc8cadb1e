package mapstate

import (
	"html/template"
	"strings"
)

var overlayTmpl = template.Must(template.New("overlay").Parse(`<div class="map-debug-overlay">
<h4>Map debug</h4>
<dl>
<dt>Step</dt><dd>{{.Step}}</dd>
<dt>Loading</dt><dd>{{.IsLoading}}</dd>
<dt>Library valid</dt><dd>{{.LeafletValid}}</dd>
<dt>Container ready</dt><dd>{{.ContainerReady}}{{if .ContainerSoftFail}} (forced after {{.ContainerRetries}} retries){{end}}</dd>
<dt>Map initialized</dt><dd>{{.MapInitialized}}</dd>
<dt>Fallback</dt><dd>{{.UseFallbackMap}}</dd>
<dt>Valid locations</dt><dd>{{len .ValidLocations}}</dd>
{{- if .Error}}
<dt>Error</dt><dd>{{.Error}}</dd>
{{- end}}
{{- if .MapError}}
<dt>Map error</dt><dd>{{.MapError}}</dd>
{{- end}}
</dl>
{{- if .ValidationIssues}}
<h5>Validation issues</h5>
<ul>{{range .ValidationIssues}}<li>{{.}}</li>{{end}}</ul>
{{- end}}
<h5>Debug log</h5>
<ol>{{range .DebugLogs}}<li>{{.}}</li>{{end}}</ol>
<h5>Browser log</h5>
<ol>{{range .BrowserLogs}}<li>{{.}}</li>{{end}}</ol>
</div>
`))

// RenderOverlay renders the diagnostic panel for a snapshot. Only the last MaxLogEntries lines of
// each trace are shown.
func RenderOverlay(s Snapshot) (string, error) {
	s.DebugLogs = tail(s.DebugLogs)
	s.BrowserLogs = tail(s.BrowserLogs)

	var b strings.Builder
	if err := overlayTmpl.Execute(&b, s); err != nil {
		return "", err
	}
	return b.String(), nil
}

func tail(lines []string) []string {
	if len(lines) > MaxLogEntries {
		return lines[len(lines)-MaxLogEntries:]
	}
	return lines
}
