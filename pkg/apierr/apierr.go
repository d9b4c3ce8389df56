// Package apierr interprets structured errors returned by the logging API.
//
// The API reports failures as a message that carries an error code, either
// as a leading "[Code]" or as a JSON object {"errorCode": ..., "message": ...}.
// Refine splits such messages into a Code from a closed enumeration plus the
// human-readable remainder.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Code enumerates the error codes the wizard reacts to.
type Code string

const (
	CodeDuplicatedIndexPrefix             Code = "DuplicatedIndexPrefix"
	CodeOverlapIndexPrefix                Code = "OverlapIndexPrefix"
	CodeDuplicatedWithInactiveIndexPrefix Code = "DuplicatedWithInactiveIndexPrefix"
	CodeOverlapWithInactiveIndexPrefix    Code = "OverlapWithInactiveIndexPrefix"
	CodeItemAlreadyExists                 Code = "ItemAlreadyExists"
	CodeAccountNotFound                   Code = "AccountNotFound"
	CodeUnknown                           Code = "Unknown"
)

var known = map[Code]struct{}{
	CodeDuplicatedIndexPrefix:             {},
	CodeOverlapIndexPrefix:                {},
	CodeDuplicatedWithInactiveIndexPrefix: {},
	CodeOverlapWithInactiveIndexPrefix:    {},
	CodeItemAlreadyExists:                 {},
	CodeAccountNotFound:                   {},
}

// ParseCode maps a raw code to the enumeration; unrecognised values become
// CodeUnknown.
func ParseCode(raw string) Code {
	c := Code(strings.TrimSpace(raw))
	if _, ok := known[c]; ok {
		return c
	}
	return CodeUnknown
}

// IsIndexConflict reports whether code is one of the index-prefix conflicts
// handled by the conflict dialog.
func IsIndexConflict(code Code) bool {
	switch code {
	case CodeDuplicatedIndexPrefix, CodeOverlapIndexPrefix,
		CodeDuplicatedWithInactiveIndexPrefix, CodeOverlapWithInactiveIndexPrefix:
		return true
	default:
		return false
	}
}

// AllowsForce reports whether a conflict may be bypassed by resubmitting
// with force enabled. Only conflicts with inactive pipelines qualify.
func AllowsForce(code Code) bool {
	switch code {
	case CodeDuplicatedWithInactiveIndexPrefix, CodeOverlapWithInactiveIndexPrefix:
		return true
	default:
		return false
	}
}

// Error is a refined API failure.
type Error struct {
	Code    Code
	Message string
	// Raw holds the message as received.
	Raw string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Code == CodeUnknown || e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Refine parses a raw API error message.
func Refine(raw string) *Error {
	msg := strings.TrimSpace(raw)
	out := &Error{Code: CodeUnknown, Message: msg, Raw: raw}

	if strings.HasPrefix(msg, "{") {
		var payload struct {
			ErrorCode string `json:"errorCode"`
			Code      string `json:"code"`
			Message   string `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg), &payload); err == nil {
			code := payload.ErrorCode
			if code == "" {
				code = payload.Code
			}
			out.Code = ParseCode(code)
			if payload.Message != "" {
				out.Message = strings.TrimSpace(payload.Message)
			}
			// Unknown codes stay visible in the message.
			if out.Code == CodeUnknown && code != "" && code != string(CodeUnknown) {
				out.Message = fmt.Sprintf("[%s] %s", code, out.Message)
			}
			return out
		}
	}

	if strings.HasPrefix(msg, "[") {
		if end := strings.Index(msg, "]"); end > 0 {
			if code := ParseCode(msg[1:end]); code != CodeUnknown {
				out.Code = code
				out.Message = strings.TrimSpace(msg[end+1:])
			}
		}
	}
	return out
}

// FromError refines err. Errors that already wrap an *Error are returned as
// is; any other error is refined from its text.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return Refine(err.Error())
}
