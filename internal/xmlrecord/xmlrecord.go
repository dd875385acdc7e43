// Package xmlrecord implements a pull-mode streaming extractor over
// encoding/xml.Decoder: given a document whose root's children are the
// "records" of interest, it yields one value.Value tree per depth-2 child,
// in document order, without buffering more than one record at a time.
package xmlrecord

import (
	"bufio"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"xmletl/internal/datasource"
	"xmletl/internal/value"
	"xmletl/internal/xlog"
)

// Options configures an Extractor.
type Options struct {
	// StartOffset and EndOffset bound the byte window the extractor reads.
	// The extractor does not read StartOffset: it always decodes from the
	// beginning of the stream the source returns, so a start position comes
	// from a source already positioned there. EndOffset causes Next to stop
	// returning records once the running byte count has passed it, at the
	// next record boundary — never mid-record.
	StartOffset *int64
	EndOffset   *int64
}

// Extractor is a finite, non-restartable, single-threaded pull source of
// (elementName, value.Value) pairs. Callers must call Close exactly once,
// typically via defer, on every exit path.
type Extractor struct {
	rc      io.ReadCloser
	counter *countingReader
	dec     *xml.Decoder
	opts    Options

	rootName string
	depth    int
	done     bool
	closed   bool
}

// countingReader wraps an io.Reader, tracking the number of bytes read so
// far so Open can honor an optional end-of-window hint.
type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}

// Open acquires a handle from src and prepares a pull-mode decoder over it.
// The returned Extractor must be closed by the caller.
func Open(ctx context.Context, src datasource.Source, opts Options) (*Extractor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, inputErrorf("open", err)
	}

	cr := &countingReader{r: rc}
	dec := xml.NewDecoder(bufio.NewReader(cr))

	return &Extractor{
		rc:      rc,
		counter: cr,
		dec:     dec,
		opts:    opts,
	}, nil
}

// Close releases the underlying handle. Safe to call multiple times.
func (e *Extractor) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.rc.Close()
}

// Next pulls exactly one depth-2 record. ok is false once the document is
// exhausted or the byte window has been reached at a record boundary; err is
// non-nil only on a genuine failure (malformed XML, I/O error), in which case
// a partially-built record is discarded.
func (e *Extractor) Next(ctx context.Context) (name string, v value.Value, ok bool, err error) {
	if e.done {
		return "", value.Value{}, false, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", value.Value{}, false, err
		}

		if e.depth <= 1 && e.opts.EndOffset != nil && e.counter.count >= *e.opts.EndOffset {
			e.done = true
			return "", value.Value{}, false, nil
		}

		tok, tokErr := e.dec.Token()
		if tokErr != nil {
			e.done = true
			if tokErr == io.EOF {
				return "", value.Value{}, false, nil
			}
			return "", value.Value{}, false, inputErrorf("tokenize", tokErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			e.depth++
			if e.depth == 1 {
				e.rootName = t.Name.Local
				continue
			}
			if e.depth == 2 {
				rec, buildErr := parseElement(e.dec, t)
				e.depth--
				if buildErr != nil {
					e.done = true
					return "", value.Value{}, false, inputErrorf("build record", buildErr)
				}
				return t.Name.Local, rec, true, nil
			}
			// depth > 2 without having entered via depth==2 means malformed
			// nesting relative to our own bookkeeping; defensively skip.
			xlog.Warnf("xmlrecord: unexpected depth %d before a depth-2 start element", e.depth)

		case xml.EndElement:
			e.depth--
			if e.depth <= 0 {
				e.done = true
				return "", value.Value{}, false, nil
			}
		}
	}
}

// parseElement consumes tokens until the end-element matching start,
// building the value tree per the record-construction rules: attributes
// under "@"+localName, children always appended to an ordered list keyed by
// local name, text accumulated and trimmed at assembly, discarded when
// whitespace-only or when child elements are also present.
func parseElement(dec *xml.Decoder, start xml.StartElement) (value.Value, error) {
	var (
		order       []string
		childLists  = map[string][]value.Value{}
		attrPairs   []value.Pair
		text        strings.Builder
		hasChildren bool
	)

	for _, a := range start.Attr {
		attrPairs = append(attrPairs, value.Pair{Key: "@" + a.Name.Local, Val: value.String(a.Value)})
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return value.Value{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return value.Value{}, err
			}
			name := t.Name.Local
			if _, seen := childLists[name]; !seen {
				order = append(order, name)
			}
			childLists[name] = append(childLists[name], child)
			hasChildren = true

		case xml.CharData:
			text.Write(t)

		case xml.EndElement:
			pairs := make([]value.Pair, 0, len(attrPairs)+len(order)+1)
			pairs = append(pairs, attrPairs...)
			for _, name := range order {
				pairs = append(pairs, value.Pair{Key: name, Val: value.List(childLists[name]...)})
			}
			if trimmed := strings.TrimSpace(text.String()); trimmed != "" && !hasChildren {
				pairs = append(pairs, value.Pair{Key: "#text", Val: value.String(trimmed)})
			}
			return value.Record(pairs...), nil
		}
	}
}

// ProbeRoot opens its own handle (closed before returning) and reads only
// the root start-element, returning its local name and the first
// schema-location-like attribute value found on it, if any.
func ProbeRoot(ctx context.Context, src datasource.Source) (rootName string, schemaLocation string, err error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return "", "", inputErrorf("open", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(bufio.NewReader(rc))
	dec.Strict = false

	for {
		tok, tokErr := dec.Token()
		if tokErr != nil {
			if tokErr == io.EOF {
				return "", "", nil
			}
			return "", "", inputErrorf("probe", tokErr)
		}
		start, isStart := tok.(xml.StartElement)
		if !isStart {
			continue
		}
		rootName = start.Name.Local
		schemaLocation = findSchemaLocation(start.Attr)
		return rootName, schemaLocation, nil
	}
}

// findSchemaLocation looks for an attribute whose local name suggests a
// schema-location reference and returns its value: either a
// whitespace-separated (namespace, url) pair — the first "http"-prefixed
// token wins — or a bare URL returned unsplit.
func findSchemaLocation(attrs []xml.Attr) string {
	for _, a := range attrs {
		if !strings.Contains(strings.ToLower(a.Name.Local), "schemalocation") {
			continue
		}
		fields := strings.Fields(a.Value)
		for _, f := range fields {
			if strings.HasPrefix(f, "http") {
				return f
			}
		}
		return a.Value
	}
	return ""
}
