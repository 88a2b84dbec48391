package document

import (
	"errors"
	"fmt"
)

// ErrNoDocument is returned by operations that need a loaded document.
var ErrNoDocument = errors.New("no document loaded")

// Reasons carried by LoadError.
const (
	ReasonInvalidLocator = "invalid locator"
	ReasonNoFetcher      = "no fetcher for scheme"
	ReasonFetch          = "fetch failed"
	ReasonUnsupported    = "unsupported encoding"
	ReasonEncrypted      = "encrypted document"
	ReasonCorrupt        = "corrupt document"
	ReasonNoPages        = "document has no pages"
	ReasonCanceled       = "canceled"
)

// LoadError reports why a document could not be opened. It is terminal for the
// session until a new locator is supplied.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return "load document: " + e.Reason
	}
	return fmt.Sprintf("load document: %s: %v", e.Reason, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Remedy is the user-facing fallback suggestion.
func (e *LoadError) Remedy() string {
	if e.Reason == ReasonCanceled {
		return "Reload the document."
	}
	return "Download the file or open it in an external viewer."
}

// PageRangeError rejects a page number outside [1, PageCount].
type PageRangeError struct {
	Page      int
	PageCount int
}

func (e *PageRangeError) Error() string {
	return fmt.Sprintf("page %d out of range [1, %d]", e.Page, e.PageCount)
}

// Clamp returns the nearest valid page, or 0 for an empty document.
func (e *PageRangeError) Clamp() int { return Clamp(e.Page, e.PageCount) }

// Clamp limits page to [1, count].
func Clamp(page, count int) int {
	if count <= 0 {
		return 0
	}
	return min(max(page, 1), count)
}
