// Package datasource defines the capability abstraction every external-IO
// component in this module is built behind, so tests can substitute
// in-memory fakes instead of touching the filesystem or network.
package datasource

import (
	"context"
	"io"
)

// Source yields a single readable handle. Implementations may be backed by
// the local filesystem, an in-memory buffer, or any other byte source.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
