package crawl

import (
	"net/http"
	"strings"

	"github.com/fwojciec/warmup"
)

// Recognized crawler option keys.
const (
	OptionConcurrency       = "concurrency"
	OptionRequestMethod     = "request_method"
	OptionRequestHeaders    = "request_headers"
	OptionRequestOptions    = "request_options"
	OptionClientConfig      = "client_config"
	OptionRequestsPerSecond = "requests_per_second"
)

// Option defaults.
const (
	DefaultConcurrency   = 5
	DefaultRequestMethod = http.MethodHead
)

// DefaultOptions returns the options every ConcurrentCrawler starts with.
func DefaultOptions() warmup.Options {
	return warmup.Options{
		OptionConcurrency:       DefaultConcurrency,
		OptionRequestMethod:     DefaultRequestMethod,
		OptionRequestHeaders:    warmup.Options{},
		OptionRequestOptions:    warmup.Options{},
		OptionClientConfig:      warmup.Options{},
		OptionRequestsPerSecond: 0,
	}
}

// settings is the decoded form of the recognized options.
type settings struct {
	concurrency       int
	method            string
	header            http.Header
	requestOptions    warmup.RequestOptions
	clientConfig      warmup.Options
	requestsPerSecond float64
}

// decodeSettings validates opts and converts the recognized keys.
// Returns EOPTIONS for values that cannot be interpreted.
func decodeSettings(opts warmup.Options) (*settings, error) {
	s := &settings{header: http.Header{}}
	var err error

	if s.concurrency, err = opts.Int(OptionConcurrency, DefaultConcurrency); err != nil {
		return nil, err
	}
	if s.concurrency < 1 {
		return nil, warmup.Errorf(warmup.EOPTIONS, "option %q must be at least 1, got %d", OptionConcurrency, s.concurrency)
	}

	if s.method, err = opts.String(OptionRequestMethod, DefaultRequestMethod); err != nil {
		return nil, err
	}
	s.method = strings.ToUpper(strings.TrimSpace(s.method))
	if s.method == "" {
		return nil, warmup.Errorf(warmup.EOPTIONS, "option %q must not be empty", OptionRequestMethod)
	}

	headers, err := opts.StringMap(OptionRequestHeaders)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		s.header.Set(k, v)
	}

	reqOpts, err := opts.Map(OptionRequestOptions)
	if err != nil {
		return nil, err
	}
	if s.requestOptions.Timeout, err = reqOpts.Duration("timeout", 0); err != nil {
		return nil, err
	}
	if _, ok := reqOpts["follow_redirects"]; ok {
		follow, err := reqOpts.Bool("follow_redirects", true)
		if err != nil {
			return nil, err
		}
		s.requestOptions.FollowRedirects = &follow
	}

	if s.clientConfig, err = opts.Map(OptionClientConfig); err != nil {
		return nil, err
	}

	if s.requestsPerSecond, err = opts.Float(OptionRequestsPerSecond, 0); err != nil {
		return nil, err
	}
	if s.requestsPerSecond < 0 {
		return nil, warmup.Errorf(warmup.EOPTIONS, "option %q must not be negative", OptionRequestsPerSecond)
	}

	return s, nil
}

// request builds the request for url from the settings.
func (s *settings) request(url string) *warmup.Request {
	return &warmup.Request{
		Method:  s.method,
		URL:     url,
		Header:  s.header.Clone(),
		Options: s.requestOptions,
	}
}
