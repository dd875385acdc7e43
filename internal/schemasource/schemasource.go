// Package schemasource discovers and resolves an external schema-description
// referenced by a document's root element. It fetches the description over
// HTTP, parses the XSD-subset declarations it contains, and caches the
// result for the lifetime of the process.
package schemasource

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"xmletl/internal/httpfetch"
	"xmletl/internal/value"
	"xmletl/internal/xlog"
)

// Resolver resolves schema-location URLs into parsed ExternalSchemas,
// caching results for the process lifetime. The zero value is not usable;
// construct with NewResolver.
type Resolver struct {
	client  *httpfetch.Client
	enabled bool

	cache sync.Map // url string -> *value.ExternalSchema
	group singleflight.Group
}

// NewResolver builds a Resolver. When enabled is false, Resolve always
// returns (nil, false) without touching the network — this is how a
// caller disables external-schema resolution entirely (mode=Auto/Manual).
func NewResolver(client *httpfetch.Client, enabled bool) *Resolver {
	return &Resolver{client: client, enabled: enabled}
}

// Resolve fetches and parses the schema description at sourceURL, or
// returns the cached result from a prior call. ok is false on any failure
// (disabled resolver, empty URL, network error, parse error) — Resolve
// never returns an error, treating every failure as "no schema available";
// failures are logged at warn level via internal/xlog.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (*value.ExternalSchema, bool) {
	if !r.enabled || sourceURL == "" {
		return nil, false
	}

	if cached, ok := r.cache.Load(sourceURL); ok {
		return cached.(*value.ExternalSchema), true
	}

	v, err, _ := r.group.Do(sourceURL, func() (any, error) {
		es, fetchErr := r.fetchAndParse(ctx, sourceURL)
		if fetchErr != nil {
			return nil, fetchErr
		}
		// LoadOrStore so a racing first-fetch from a different singleflight
		// generation (after the entry for this key was forgotten) still
		// converges on one cached value; both are equivalent by construction.
		actual, _ := r.cache.LoadOrStore(sourceURL, es)
		return actual, nil
	})
	if err != nil {
		xlog.Warnf("schemasource: resolve %s: %v", sourceURL, err)
		return nil, false
	}
	return v.(*value.ExternalSchema), true
}

func (r *Resolver) fetchAndParse(ctx context.Context, sourceURL string) (*value.ExternalSchema, error) {
	resp, err := r.client.Get(ctx, sourceURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ResolutionError{URL: sourceURL, Reason: "unexpected status " + resp.Status}
	}

	es, err := ParseXSD(resp.Body)
	if err != nil {
		return nil, &ResolutionError{URL: sourceURL, Reason: err.Error()}
	}
	es.SourceURL = sourceURL
	return es, nil
}

// ResolutionError records why an external schema could not be resolved.
// Only fatal to a caller operating in mode=External; C3 in every other mode
// tolerates it by proceeding without an external schema.
type ResolutionError struct {
	URL    string
	Reason string
}

func (e *ResolutionError) Error() string {
	return "schemasource: resolve " + e.URL + ": " + e.Reason
}
