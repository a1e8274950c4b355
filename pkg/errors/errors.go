// Package errors provides the error taxonomy used across the potable pipeline.
//
// Three categories matter to callers: DataError (the input data cannot support
// the requested operation), ConfigError (an invalid grid, fold count or other
// configuration), and FitError (a single hyperparameter combination failed to
// fit; recorded and skipped, never fatal on its own). Estimator guards
// (NotFittedError, DimensionError) round out the set. All constructors attach
// a stack trace via cockroachdb/errors.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// DataError reports data that cannot support the requested operation,
// e.g. a column whose median is undefined because every entry is missing.
type DataError struct {
	Op     string // operation that failed, e.g. "MedianImputer.Fit"
	Column string // offending column, empty when not column-specific
	Reason string
}

func (e *DataError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("potable: %s: column %q: %s", e.Op, e.Column, e.Reason)
	}
	return fmt.Sprintf("potable: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "DataError")
}

// NewDataError creates a DataError with a stack trace attached.
func NewDataError(op, column, reason string) error {
	return errors.WithStack(&DataError{Op: op, Column: column, Reason: reason})
}

// ConfigError reports an invalid configuration value, e.g. an empty
// hyperparameter grid or a fold count exceeding the number of rows.
type ConfigError struct {
	Op     string
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("potable: %s: parameter %q: %s", e.Op, e.Param, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param", e.Param).
		Str("reason", e.Reason).
		Str("type", "ConfigError")
}

// NewConfigError creates a ConfigError with a stack trace attached.
func NewConfigError(op, param, reason string) error {
	return errors.WithStack(&ConfigError{Op: op, Param: param, Reason: reason})
}

// FitError reports that a specific hyperparameter combination failed to fit.
// Grid search records these and continues; only exhaustive failure is fatal.
type FitError struct {
	Model  string
	Params map[string]interface{}
	Err    error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("potable: fit failed for %s with params %v: %v", e.Model, e.Params, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *FitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model", e.Model).
		Interface("params", e.Params).
		AnErr("cause", e.Err).
		Str("type", "FitError")
}

// NewFitError creates a FitError with a stack trace attached.
func NewFitError(model string, params map[string]interface{}, err error) error {
	return errors.WithStack(&FitError{Model: model, Params: params, Err: err})
}

// NotFittedError reports Predict or Transform being called before Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("potable: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError reports input whose shape differs from what the estimator
// saw during fitting.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("potable: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValueError reports an argument whose value is out of the accepted domain.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("potable: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// IsData reports whether err is (or wraps) a DataError.
func IsData(err error) bool {
	var target *DataError
	return errors.As(err, &target)
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsFit reports whether err is (or wraps) a FitError.
func IsFit(err error) bool {
	var target *FitError
	return errors.As(err, &target)
}

// Is reports whether err matches target, unwrapping as needed.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}
