// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package data

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrMalformedFiling     = errors.New("malformed filing")
	ErrMappingUncertain    = errors.New("mapping uncertain")
	ErrAmbiguousAdjustment = errors.New("quarterly adjustment ambiguous")
	ErrCacheCorrupt        = errors.New("cache entry corrupt")
	ErrInvalidValue        = errors.New("invalid value")
)

// Error carries a stable error kind, the component where the problem originated and a
// human readable message. errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Kind      error
	Component string
	Msg       string
	Err       error
}

// NewError builds an Error of the given kind
func NewError(kind error, component string, err error, format string, args ...any) *Error {
	return &Error{
		Kind:      kind,
		Component: component,
		Msg:       fmt.Sprintf(format, args...),
		Err:       err,
	}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Component, e.Kind)
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}

	if errors.Is(e.Kind, ErrUpstreamUnavailable) {
		msg += " (wait a few minutes before trying again)"
	}

	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// KindOf returns the error kind of err or nil if err does not carry one of the known kinds.
// The kind of the outermost Error wins.
func KindOf(err error) error {
	var typed *Error
	if errors.As(err, &typed) && typed.Kind != nil {
		return typed.Kind
	}

	for _, kind := range []error{ErrNotFound, ErrUpstreamUnavailable, ErrMalformedFiling,
		ErrMappingUncertain, ErrAmbiguousAdjustment, ErrCacheCorrupt, ErrInvalidValue} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}
