// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data:
// JSON entry drafts and the period, date and month query parameters.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"timesheet/internal/analytics"
	"timesheet/internal/core"
)

const maxBodyBytes = 64 << 10

var errInvalidBody = errors.New("invalid request body")

// DecodeDraft reads a JSON entry draft from the request body. Unknown fields
// are rejected and text fields are sanitized.
func DecodeDraft(w http.ResponseWriter, r *http.Request) (core.EntryDraft, error) {
	var d core.EntryDraft

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return d, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return d, fmt.Errorf("%w: trailing data after JSON object", errInvalidBody)
	}

	d.Date = strings.TrimSpace(d.Date)
	d.StartTime = strings.TrimSpace(d.StartTime)
	d.EndTime = strings.TrimSpace(d.EndTime)
	d.MainCategoryID = strings.TrimSpace(d.MainCategoryID)
	d.SubCategoryID = strings.TrimSpace(d.SubCategoryID)
	d.Description = sanitizeInput(d.Description)
	return d, nil
}

// RangeParams is a parsed analytics query.
type RangeParams struct {
	Kind  analytics.PeriodKind
	Range core.DateRange
}

// ParseRangeParams resolves period, start and end from query against today.
// start and end are only read for a custom period and must come together.
func ParseRangeParams(query url.Values, today time.Time) (RangeParams, error) {
	kind := analytics.ParsePeriodKind(query.Get("period"))
	if kind == "" {
		kind = analytics.ThisWeek
	}

	var custom *core.DateRange
	if kind == analytics.Custom {
		start := strings.TrimSpace(query.Get("start"))
		end := strings.TrimSpace(query.Get("end"))
		switch {
		case start == "" && end == "":
		case start == "" || end == "":
			return RangeParams{}, fmt.Errorf("%w: custom period needs both start and end", core.ErrInvalidDate)
		case !core.ValidDate(start) || !core.ValidDate(end):
			return RangeParams{}, fmt.Errorf("%w: start and end must be YYYY-MM-DD", core.ErrInvalidDate)
		default:
			custom = &core.DateRange{Start: start, End: end}
		}
	}

	return RangeParams{Kind: kind, Range: analytics.Resolve(kind, today, custom)}, nil
}

// ParseDateParam returns the YYYY-MM-DD value of key, defaulting to today.
func ParseDateParam(query url.Values, key string, today time.Time) (string, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return today.Format(core.DateLayout), nil
	}
	if !core.ValidDate(v) {
		return "", fmt.Errorf("%w: %s must be YYYY-MM-DD", core.ErrInvalidDate, key)
	}
	return v, nil
}

// ParseMonthParam returns the YYYY-MM value of key, defaulting to the month
// of today.
func ParseMonthParam(query url.Values, key string, today time.Time) (string, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return today.Format("2006-01"), nil
	}
	if _, err := time.Parse("2006-01", v); err != nil {
		return "", fmt.Errorf("%w: %s must be YYYY-MM", core.ErrInvalidDate, key)
	}
	return v, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
