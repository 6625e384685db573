/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package apperr is the error taxonomy exposed by the wallet service.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "ValidationError"
	KindInsufficient    Kind = "InsufficientFunds"
	KindNotFound        Kind = "NotFound"
	KindForbidden       Kind = "Forbidden"
	KindPaymentProvider Kind = "PaymentProviderError"
	KindUnknown         Kind = "UnknownError"
)

// Kind sentinels for errors.Is
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrInsufficient    = &Error{Kind: KindInsufficient}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrPaymentProvider = &Error{Kind: KindPaymentProvider}
	ErrUnknown         = &Error{Kind: KindUnknown}
)

// Code values carried by errors that need a finer machine-readable reason
const (
	CodeBalanceCapExceeded = "balance_cap_exceeded"
	CodeSelfTransfer       = "self_transfer"
	CodeInvalidAmount      = "invalid_amount"
	CodeUnsupportedCoin    = "unsupported_currency"
	CodeInvalidAddress     = "invalid_address"
	CodeInvalidSignature   = "invalid_signature"
	CodeUnknownProvider    = "unknown_provider"
	CodeMaintenance        = "maintenance_mode"
	CodeWalletInactive     = "wallet_inactive"
	CodeMissingEventId     = "missing_event_id"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Code    string
	Data    map[string]any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every NotFound regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

func newErr(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func Validation(op, format string, args ...any) *Error {
	return newErr(KindValidation, op, format, args...)
}

func InsufficientFunds(op, format string, args ...any) *Error {
	return newErr(KindInsufficient, op, format, args...)
}

func NotFound(op, format string, args ...any) *Error {
	return newErr(KindNotFound, op, format, args...)
}

func Forbidden(op, format string, args ...any) *Error {
	return newErr(KindForbidden, op, format, args...)
}

func PaymentProvider(op string, err error) *Error {
	return &Error{Kind: KindPaymentProvider, Op: op, Message: "payment provider request failed", Err: err}
}

func Unknown(op string, err error) *Error {
	return &Error{Kind: KindUnknown, Op: op, Message: "unexpected error", Err: err}
}

// WithCode sets the machine-readable reason
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// WithData attaches a caller-visible payload entry
func (e *Error) WithData(key string, value any) *Error {
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	e.Data[key] = value
	return e
}

// Wrap records the underlying cause
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// As returns the typed error in err's chain, if any
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err; untyped errors are UnknownError
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps a kind to the status code collaborators should answer with
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindInsufficient:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
