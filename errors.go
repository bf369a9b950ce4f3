package jsonbinpack

import "errors"

// ErrTrailingData is returned by Unmarshal when bytes remain after the
// document.
var ErrTrailingData = errors.New("jsonbinpack: trailing bytes after document")

// ErrNilPlan is returned when a nil *Plan is used.
var ErrNilPlan = errors.New("jsonbinpack: nil plan")
