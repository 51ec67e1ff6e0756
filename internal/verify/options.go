// Copyright 2025 The ubl-auth Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package verify

import "time"

// DefaultLeeway is the clock-skew tolerance applied to exp, nbf, and iat.
const DefaultLeeway = 300 * time.Second

// Options holds the per-call verification policy. The zero value is not
// usable; construct with DefaultOptions and refine with the With* helpers.
type Options struct {
	// Issuer, when non-empty, must equal the token's iss claim exactly.
	Issuer string
	// Audience, when non-empty, must appear in the token's aud claim.
	Audience string
	// Leeway is the symmetric clock-skew tolerance for time claims.
	Leeway time.Duration
	// Clock supplies "now"; captured once per verification call.
	Clock func() time.Time
}

// DefaultOptions returns Options with the default leeway and wall clock.
func DefaultOptions() Options {
	return Options{
		Leeway: DefaultLeeway,
		Clock:  time.Now,
	}
}

// WithIssuer enables the exact-match issuer check.
func (o Options) WithIssuer(iss string) Options {
	o.Issuer = iss
	return o
}

// WithAudience enables the audience set-membership check.
func (o Options) WithAudience(aud string) Options {
	o.Audience = aud
	return o
}

// WithLeeway overrides the clock-skew tolerance.
func (o Options) WithLeeway(leeway time.Duration) Options {
	o.Leeway = leeway
	return o
}

// WithClock overrides the time source. For tests.
func (o Options) WithClock(now func() time.Time) Options {
	o.Clock = now
	return o
}

func (o Options) now() time.Time {
	if o.Clock != nil {
		return o.Clock()
	}
	return time.Now()
}
