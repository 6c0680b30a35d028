package extractor

import "errors"

// ExtractionError is returned for any backend failure: network errors,
// unsupported sites, removed videos, invalid format selectors.
type ExtractionError struct {
	Op      string // "probe" or "fetch"
	URL     string
	Message string
	Err     error
}

// Error returns the backend's message verbatim so callers can surface it
func (e *ExtractionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "extraction failed"
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsExtractionError reports whether err is (or wraps) an ExtractionError
func IsExtractionError(err error) bool {
	var extErr *ExtractionError
	return errors.As(err, &extErr)
}

func probeError(url string, err error) error {
	return wrapError("probe", url, err)
}

func fetchError(url string, err error) error {
	return wrapError("fetch", url, err)
}

func wrapError(op, url string, err error) error {
	if err == nil {
		return nil
	}
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		if extErr.Op == "" {
			extErr.Op = op
		}
		if extErr.URL == "" {
			extErr.URL = url
		}
		return err
	}
	return &ExtractionError{Op: op, URL: url, Message: err.Error(), Err: err}
}
