package abi

import (
	"fmt"
	"strconv"
)

// GrammarErrorCode classifies a GrammarError.
type GrammarErrorCode int

const (
	// ExpectedParamType is reported for descriptors that do not name a valid parameter type.
	ExpectedParamType GrammarErrorCode = iota
	// InvalidComponents is reported when tuple components do not fit the type they are attached to.
	InvalidComponents
)

func (c GrammarErrorCode) String() string {
	switch c {
	case ExpectedParamType:
		return "expected param type"
	case InvalidComponents:
		return "invalid components"
	default:
		return fmt.Sprintf("grammar error %d", int(c))
	}
}

// GrammarError is returned for malformed type descriptors.
type GrammarError struct {
	Code       GrammarErrorCode
	Descriptor string
	Reason     string
}

func (e *GrammarError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %q", e.Code, e.Descriptor)
	}
	return fmt.Sprintf("%s: %q: %s", e.Code, e.Descriptor, e.Reason)
}

func expectedParamType(descriptor, format string, args ...interface{}) *GrammarError {
	return &GrammarError{Code: ExpectedParamType, Descriptor: descriptor, Reason: fmt.Sprintf(format, args...)}
}

// SchemaError is returned when a value does not satisfy the parameter it is encoded against.
type SchemaError struct {
	// Field is the dotted path of the offending value, e.g. "recipients.3.amount".
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Reason)
}

func schemaErrorf(field, format string, args ...interface{}) *SchemaError {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DecodeError is returned when a payload cannot be read against a schema.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "cannot decode payload: " + e.Reason
	}
	return fmt.Sprintf("cannot decode %q: %s", e.Field, e.Reason)
}

func decodeErrorf(field, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func joinField(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}

func itoa(i int) string { return strconv.Itoa(i) }
