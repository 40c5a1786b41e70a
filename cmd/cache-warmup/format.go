package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/warmup"
)

// Report formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewFormatter returns the formatter registered under name.
// Returns EFORMATTER for unknown names.
func NewFormatter(name string, verbose bool) (warmup.Formatter, error) {
	switch name {
	case FormatText:
		return &TextFormatter{Verbose: verbose}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, warmup.Errorf(warmup.EFORMATTER, "unknown format %q (available: %s, %s)", name, FormatText, FormatJSON)
	}
}

// TextFormatter writes a human-readable summary. Failures are always
// listed; resolved sitemaps and successful URLs only when Verbose is set.
type TextFormatter struct {
	Verbose bool
}

// Format implements warmup.Formatter.
func (f *TextFormatter) Format(w io.Writer, report *warmup.Report) error {
	result := report.Result
	if result == nil {
		result = warmup.NewResult()
	}
	successful, failed := result.Successful(), result.Failed()

	ew := &errWriter{w: w}
	ew.printf("Sitemaps: %d (%d failed)\n", len(report.Sitemaps), len(report.FailedSitemaps))
	if f.Verbose {
		failedSitemaps := make(map[string]bool, len(report.FailedSitemaps))
		for _, s := range report.FailedSitemaps {
			failedSitemaps[s.Sitemap.URL] = true
		}
		for _, s := range report.Sitemaps {
			if !failedSitemaps[s.URL] {
				ew.printf("  OK   %s\n", s.URL)
			}
		}
	}
	for _, s := range report.FailedSitemaps {
		ew.printf("  FAIL %s: %s\n", s.Sitemap.URL, s.Reason())
	}
	ew.printf("URLs: %d (%d successful, %d failed)\n", len(report.URLs), len(successful), len(failed))
	if f.Verbose {
		for _, r := range successful {
			ew.printf("  OK   %s %d %s\n", r.URL, r.StatusCode, r.Duration.Round(time.Millisecond))
		}
	}
	for _, r := range failed {
		ew.printf("  FAIL %s: %s\n", r.URL, warmup.ErrorMessage(r.Err))
	}
	if report.Run != nil {
		ew.printf("Run: %s (%s)\n", report.Run.ID, report.Run.FinishedAt.Sub(report.Run.StartedAt).Round(time.Millisecond))
	}
	return ew.err
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

// JSONFormatter writes the report as one indented JSON document.
type JSONFormatter struct{}

type jsonFailedSitemap struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

type jsonReport struct {
	Sitemaps       []string            `json:"sitemaps"`
	FailedSitemaps []jsonFailedSitemap `json:"failedSitemaps"`
	URLs           []string            `json:"urls"`
	Result         *warmup.Result      `json:"result"`
	Run            *warmup.Run         `json:"run,omitempty"`
}

// Format implements warmup.Formatter.
func (f *JSONFormatter) Format(w io.Writer, report *warmup.Report) error {
	out := jsonReport{
		Sitemaps:       make([]string, 0, len(report.Sitemaps)),
		FailedSitemaps: make([]jsonFailedSitemap, 0, len(report.FailedSitemaps)),
		URLs:           report.URLs,
		Result:         report.Result,
		Run:            report.Run,
	}
	for _, s := range report.Sitemaps {
		out.Sitemaps = append(out.Sitemaps, s.URL)
	}
	for _, s := range report.FailedSitemaps {
		out.FailedSitemaps = append(out.FailedSitemaps, jsonFailedSitemap{URL: s.Sitemap.URL, Reason: s.Reason()})
	}
	if out.URLs == nil {
		out.URLs = []string{}
	}
	if out.Result == nil {
		out.Result = warmup.NewResult()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return warmup.WrapError(warmup.EFORMATTER, err, "encoding report")
	}
	return nil
}
