package engine

import (
	"context"
	"fmt"
)

// RodFetchFunc loads a URL in the browser session and returns its HTML.
// It is injected from main.go so engine/ never imports scraper/.
type RodFetchFunc func(ctx context.Context, url string) (string, error)

// RodRereadFunc returns the HTML of the page currently loaded in the session.
type RodRereadFunc func(ctx context.Context) (string, error)

// RodEngine is the browser-based engine. It delegates to the rod session
// through callbacks.
type RodEngine struct {
	fetchFunc  RodFetchFunc
	rereadFunc RodRereadFunc
}

// NewRodEngine creates a RodEngine. rereadFunc may be nil.
func NewRodEngine(fetchFunc RodFetchFunc, rereadFunc RodRereadFunc) *RodEngine {
	return &RodEngine{fetchFunc: fetchFunc, rereadFunc: rereadFunc}
}

func (e *RodEngine) Name() string { return "rod" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.fetchFunc == nil {
		return nil, fmt.Errorf("%s: fetchFunc not configured", e.Name())
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	content, err := e.fetchFunc(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	return &FetchResult{
		HTML:       content,
		Title:      extractTitle(content),
		FinalURL:   req.URL,
		EngineName: e.Name(),
	}, nil
}

func (e *RodEngine) Reread(ctx context.Context) (string, error) {
	if e.rereadFunc == nil {
		return "", fmt.Errorf("%s: reread not configured", e.Name())
	}
	return e.rereadFunc(ctx)
}
