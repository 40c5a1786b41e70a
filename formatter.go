package warmup

import "io"

// Report is everything a warmup run produced.
type Report struct {
	Sitemaps       []Sitemap
	FailedSitemaps []FailedSitemap
	URLs           []string
	Result         *Result
	Run            *Run
}

// HasFailures reports whether any sitemap or URL failed.
func (r *Report) HasFailures() bool {
	if len(r.FailedSitemaps) > 0 {
		return true
	}
	return r.Result != nil && r.Result.HasFailures()
}

// Formatter renders a report for the user.
type Formatter interface {
	Format(w io.Writer, report *Report) error
}
