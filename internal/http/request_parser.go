// Package http serves the budget ledger as a JSON API.
//
// This file implements utilities for parsing and validating HTTP request data.
// Every parse failure is reported as core.ErrBadFormat so the handlers can
// render it through the common error mapping.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budget/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return fmt.Errorf("%w: content type %q, expected application/json", core.ErrBadFormat, ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", core.ErrBadFormat)
		}
		// Field decoders wrap core.ErrBadFormat already; keep their message.
		if errors.Is(err, core.ErrBadFormat) {
			return err
		}
		return fmt.Errorf("%w: %s", core.ErrBadFormat, err.Error())
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", core.ErrBadFormat)
	}
	return nil
}

// PathID parses the {name} path segment as a positive integer id.
func PathID(r *http.Request, name string) (int64, error) {
	return parseID(name, r.PathValue(name))
}

// QueryID parses a required positive integer query parameter.
func QueryID(q url.Values, name string) (int64, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, fmt.Errorf("%w: %s required", core.ErrBadFormat, name)
	}
	return parseID(name, v)
}

func parseID(name, v string) (int64, error) {
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", core.ErrBadFormat, name, v)
	}
	return id, nil
}

// QueryBucket parses an optional bucket query parameter. Nil means all buckets.
func QueryBucket(q url.Values, name string) (*core.Bucket, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	b, err := core.ParseBucket(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// QueryMonthKey parses a required YYYY-MM query parameter.
func QueryMonthKey(q url.Values, name string) (string, error) {
	v := strings.TrimSpace(q.Get(name))
	if err := core.ValidateMonthKey(v); err != nil {
		return "", err
	}
	return v, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, then trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
