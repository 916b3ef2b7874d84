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
package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var (
	ErrStatus    = errors.New("status code is invalid")
	ErrInvalidID = errors.New("healthcheck id is not a uuid")
)

// BaseURL is the healthchecks.io ping endpoint
var BaseURL = "https://hc-ping.com"

type signal string

const (
	signalSuccess signal = ""
	signalStart   signal = "/start"
	signalFail    signal = "/fail"
)

// Check pings a single healthchecks.io check
type Check struct {
	id     uuid.UUID
	client *resty.Client
}

// New validates id and returns a check that can be pinged
func New(id string) (*Check, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, err)
	}

	return &Check{
		id:     parsed,
		client: resty.New(),
	}, nil
}

// ID returns the check id
func (check *Check) ID() string {
	return check.id.String()
}

// Start signals that a run began
func (check *Check) Start(ctx context.Context) error {
	return check.ping(ctx, signalStart, "")
}

// Success signals that a run finished, body is attached as the ping's log
func (check *Check) Success(ctx context.Context, body string) error {
	return check.ping(ctx, signalSuccess, body)
}

// Fail signals that a run failed, body is attached as the ping's log
func (check *Check) Fail(ctx context.Context, body string) error {
	return check.ping(ctx, signalFail, body)
}

func (check *Check) ping(ctx context.Context, sig signal, body string) error {
	resp, err := check.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "text/plain").
		SetBody(body).
		Post(fmt.Sprintf("%s/%s%s", strings.TrimRight(BaseURL, "/"), check.id, sig))

	if err != nil {
		return err
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode())
	}

	return nil
}
