package reporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jshunter/pkg/store"
	"jshunter/pkg/utils"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter generates crawl reports in multiple formats
type Reporter struct {
	Target    string
	RunID     string
	StartTime time.Time
}

// Result is one artifact as it appears in a report
type Result struct {
	URL          string `json:"url"`
	Source       string `json:"source"`
	Type         string `json:"type"`
	Sensitive    bool   `json:"sensitive,omitempty"`
	Status       int    `json:"status,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Title        string `json:"title,omitempty"`
	Redirect     string `json:"redirect,omitempty"`
	SoftNotFound bool   `json:"soft_404,omitempty"`
}

// SensitiveInfo is one category of values found in one document
type SensitiveInfo struct {
	Source   string   `json:"source"`
	Category string   `json:"category"`
	Values   []string `json:"values"`
}

// Summary holds the headline counts
type Summary struct {
	JS       int `json:"js"`
	URL      int `json:"url"`
	API      int `json:"api"`
	Findings int `json:"findings"`
	Domains  int `json:"domains"`
}

// Report is the complete crawl report
type Report struct {
	RunID         string          `json:"run_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Duration      string          `json:"duration"`
	Target        string          `json:"target,omitempty"`
	Summary       Summary         `json:"summary"`
	JSResults     []Result        `json:"js_results"`
	URLResults    []Result        `json:"url_results"`
	Domains       []string        `json:"domains"`
	SensitiveInfo []SensitiveInfo `json:"sensitive_info"`
}

// NewReporter creates a new reporter
func NewReporter(target string) *Reporter {
	return &Reporter{
		Target:    target,
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
}

// Build converts a store snapshot into a report.
func (r *Reporter) Build(snap store.Snapshot) *Report {
	report := &Report{
		RunID:         r.RunID,
		Timestamp:     r.StartTime,
		Duration:      time.Since(r.StartTime).Round(time.Second).String(),
		Target:        r.Target,
		JSResults:     toResults(snap.JS),
		URLResults:    toResults(snap.Links),
		Domains:       snap.Domains,
		SensitiveInfo: make([]SensitiveInfo, 0),
	}
	if report.Domains == nil {
		report.Domains = []string{}
	}

	for _, f := range snap.Findings {
		for _, cat := range f.Categories() {
			report.SensitiveInfo = append(report.SensitiveInfo, SensitiveInfo{
				Source:   f.Source,
				Category: cat,
				Values:   f.Matches[cat],
			})
		}
	}

	report.Summary = Summary{
		JS:       len(snap.JS),
		Findings: len(snap.Findings),
		Domains:  len(snap.Domains),
	}
	for _, a := range snap.Links {
		if a.Kind == store.KindAPI {
			report.Summary.API++
		} else {
			report.Summary.URL++
		}
	}
	return report
}

// GenerateReport writes the snapshot to filename in the format named by
// its extension (.json, .csv, .html).
func (r *Reporter) GenerateReport(filename string, snap store.Snapshot) error {
	report := r.Build(snap)

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json":
		data, err = json.MarshalIndent(report, "", "  ")
	case ".csv":
		data, err = generateCSV(report)
	case ".html", ".htm":
		data, err = generateHTML(report)
	default:
		return fmt.Errorf("unsupported report format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", filename, err)
	}

	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	return utils.WriteFile(filename, data)
}

// AutoReportPath names an HTML report after the target host, the time and
// the enabled features, e.g. results/JSHunter_ex.com_20240102_150405_js-url.html.
func AutoReportPath(dir, target string, features utils.FeatureConfig, now time.Time) string {
	host := "batch"
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	tags := []string{"js"}
	if features.URLScan {
		tags = append(tags, "url")
	}
	if features.APIScan {
		tags = append(tags, "api")
	}
	if features.SecretScan {
		tags = append(tags, "secrets")
	}

	name := fmt.Sprintf("JSHunter_%s_%s_%s.html", host, now.Format("20060102_150405"), strings.Join(tags, "-"))
	return filepath.Join(dir, name)
}

func toResults(list []store.Artifact) []Result {
	out := make([]Result, 0, len(list))
	for _, a := range list {
		out = append(out, Result{
			URL:          a.URL,
			Source:       a.Source,
			Type:         a.Kind.String(),
			Sensitive:    a.Sensitive,
			Status:       a.Status,
			Size:         a.Size,
			Title:        a.Title,
			Redirect:     a.Redirect,
			SoftNotFound: a.SoftNotFound,
		})
	}
	return out
}

var csvHeader = []string{"type", "url", "source", "sensitive", "status", "size", "title", "redirect", "soft_404"}

// generateCSV emits artifacts first, then one row per sensitive value with
// type "secret:<category>".
func generateCSV(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, list := range [][]Result{report.JSResults, report.URLResults} {
		for _, res := range list {
			row := []string{
				res.Type,
				res.URL,
				res.Source,
				strconv.FormatBool(res.Sensitive),
				optionalInt(int64(res.Status)),
				optionalInt(res.Size),
				res.Title,
				res.Redirect,
				strconv.FormatBool(res.SoftNotFound),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	for _, info := range report.SensitiveInfo {
		for _, v := range info.Values {
			row := []string{"secret:" + info.Category, v, info.Source, "true", "", "", "", "", "false"}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func optionalInt(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func generateHTML(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlReport.Execute(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var htmlReport = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>JSHunter report{{if .Target}} - {{.Target}}{{end}}</title>
<style>
body { font-family: -apple-system, Segoe UI, Roboto, sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2em; font-size: 13px; }
th, td { border: 1px solid #ddd; padding: 4px 8px; text-align: left; word-break: break-all; }
th { background: #f3f3f3; }
.sensitive { color: #b00020; font-weight: bold; }
.soft { color: #888; }
</style>
</head>
<body>
<h1>JSHunter report</h1>
<p>Run {{.RunID}} &middot; {{.Timestamp.Format "2006-01-02 15:04:05"}} &middot; {{.Duration}}{{if .Target}} &middot; {{.Target}}{{end}}</p>
<p>JS: {{.Summary.JS}} &middot; URL: {{.Summary.URL}} &middot; API: {{.Summary.API}} &middot; Findings: {{.Summary.Findings}} &middot; Domains: {{.Summary.Domains}}</p>

<h2>JavaScript</h2>
<table>
<tr><th>URL</th><th>Source</th><th>Status</th><th>Size</th></tr>
{{range .JSResults}}<tr{{if .SoftNotFound}} class="soft"{{end}}><td><a href="{{.URL}}">{{.URL}}</a></td><td>{{.Source}}</td><td>{{if .Status}}{{.Status}}{{end}}</td><td>{{if .Size}}{{.Size}}{{end}}</td></tr>
{{end}}</table>

<h2>URLs and APIs</h2>
<table>
<tr><th>Type</th><th>URL</th><th>Source</th><th>Status</th><th>Title</th><th>Redirect</th></tr>
{{range .URLResults}}<tr{{if .SoftNotFound}} class="soft"{{end}}><td>{{.Type}}</td><td{{if .Sensitive}} class="sensitive"{{end}}><a href="{{.URL}}">{{.URL}}</a></td><td>{{.Source}}</td><td>{{if .Status}}{{.Status}}{{end}}</td><td>{{.Title}}</td><td>{{.Redirect}}</td></tr>
{{end}}</table>

<h2>Sensitive information</h2>
<table>
<tr><th>Category</th><th>Values</th><th>Source</th></tr>
{{range .SensitiveInfo}}<tr><td>{{.Category}}</td><td>{{range $i, $v := .Values}}{{if $i}}<br>{{end}}{{$v}}{{end}}</td><td>{{.Source}}</td></tr>
{{end}}</table>

<h2>Domains</h2>
<ul>
{{range .Domains}}<li>{{.}}</li>
{{end}}</ul>
</body>
</html>
`))
