package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Dispatcher tries engines one after another, lightest first, and returns
// the first success. Runs are strictly sequential: an engine starts only
// after the previous one has failed.
type Dispatcher struct {
	engines []Engine
	timeout time.Duration
	memory  *DomainMemory
	last    Engine
}

// NewDispatcher creates a Dispatcher over engines in priority order.
// timeout is applied to every engine attempt; memory may be nil.
func NewDispatcher(engines []Engine, timeout time.Duration, memory *DomainMemory) *Dispatcher {
	return &Dispatcher{
		engines: engines,
		timeout: timeout,
		memory:  memory,
	}
}

// Dispatch returns the first successful result. If all engines fail, it
// returns the last error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout <= 0 {
		r := *req
		r.Timeout = d.timeout
		req = &r
	}
	domain := extractDomain(req.URL)

	var lastErr error
	for _, eng := range d.ordered(domain) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slog.DebugContext(ctx, "engine starting", "engine", eng.Name(), "url", req.URL)
		result, err := eng.Fetch(ctx, req)
		if err != nil {
			slog.DebugContext(ctx, "engine failed", "engine", eng.Name(), "url", req.URL, "error", err)
			if d.memory != nil && d.memory.Get(domain) == eng.Name() {
				d.memory.Delete(domain)
			}
			lastErr = err
			continue
		}
		d.last = eng
		if d.memory != nil {
			d.memory.Set(domain, eng.Name())
		}
		return result, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dispatcher: no engines configured for %s", req.URL)
	}
	return nil, lastErr
}

// Load fetches url and returns its HTML.
func (d *Dispatcher) Load(ctx context.Context, url string) (string, error) {
	result, err := d.Dispatch(ctx, &FetchRequest{URL: url})
	if err != nil {
		return "", err
	}
	return result.HTML, nil
}

// Reread asks the engine that produced the last success to read its page
// again.
func (d *Dispatcher) Reread(ctx context.Context) (string, error) {
	if d.last == nil {
		return "", fmt.Errorf("dispatcher: nothing loaded")
	}
	rr, ok := d.last.(Rereader)
	if !ok {
		return "", fmt.Errorf("dispatcher: engine %s cannot reread", d.last.Name())
	}
	return rr.Reread(ctx)
}

// ordered returns the engines with the remembered winner for domain moved
// to the front.
func (d *Dispatcher) ordered(domain string) []Engine {
	if d.memory == nil {
		return d.engines
	}
	remembered := d.memory.Get(domain)
	if remembered == "" {
		return d.engines
	}
	out := make([]Engine, 0, len(d.engines))
	for _, eng := range d.engines {
		if eng.Name() == remembered {
			out = append(out, eng)
		}
	}
	for _, eng := range d.engines {
		if eng.Name() != remembered {
			out = append(out, eng)
		}
	}
	return out
}

// extractDomain parses the hostname from a URL string.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}
