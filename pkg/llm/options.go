// Package llm provides options pattern for per-call parameter overrides.
//
// This package implements functional options for runtime parameter overrides
// on top of provider defaults configured at construction time.
package llm

import "github.com/sjy/llm-universe/pkg/events"

// CallOptions holds per-call overrides for a provider invocation.
//
// Overrides take precedence over everything the provider merges from its
// configuration, including the prompt-derived keys.
type CallOptions struct {
	// Overrides is an open-ended mapping merged into the request with the
	// highest precedence. Keys follow the vendor wire names ("temperature",
	// "top_p", "max_tokens", "stop", "request_id", ...).
	Overrides map[string]any

	// Emitter, when set, receives one fragment event per emitted streaming
	// fragment plus a terminal done/error event.
	Emitter events.Emitter
}

// CallOption is a functional option for configuring CallOptions.
type CallOption func(*CallOptions)

// NewCallOptions applies opts to an empty CallOptions.
func NewCallOptions(opts ...CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *CallOptions) set(key string, value any) {
	if o.Overrides == nil {
		o.Overrides = make(map[string]any)
	}
	o.Overrides[key] = value
}

// WithParams merges an arbitrary override mapping into the call.
// Later options win over earlier ones key by key.
func WithParams(params map[string]any) CallOption {
	return func(o *CallOptions) {
		for k, v := range params {
			o.set(k, v)
		}
	}
}

// WithTemperature overrides the sampling temperature for this call.
func WithTemperature(temp float64) CallOption {
	return func(o *CallOptions) {
		o.set("temperature", temp)
	}
}

// WithTopP overrides the nucleus-sampling top_p for this call.
func WithTopP(topP float64) CallOption {
	return func(o *CallOptions) {
		o.set("top_p", topP)
	}
}

// WithMaxTokens limits the response length for this call.
func WithMaxTokens(tokens int) CallOption {
	return func(o *CallOptions) {
		o.set("max_tokens", tokens)
	}
}

// WithStop sets stop sequences for this call.
func WithStop(stop []string) CallOption {
	return func(o *CallOptions) {
		o.set("stop", stop)
	}
}

// WithRequestID overrides the request identifier for this call.
func WithRequestID(id int64) CallOption {
	return func(o *CallOptions) {
		o.set("request_id", id)
	}
}

// WithEmitter attaches a progress-notification emitter to this call.
// The emitter is notified once per streamed fragment, after the fragment
// has been handed to the aggregation.
func WithEmitter(e events.Emitter) CallOption {
	return func(o *CallOptions) {
		o.Emitter = e
	}
}
