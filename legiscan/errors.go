// Copyright 2025 Poiesic Systems
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

package legiscan

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey indicates no API key was configured or found in
	// the environment.
	ErrMissingAPIKey = errors.New("legiscan api key not set")

	// ErrUnsupportedMIME indicates a document's declared MIME type has no
	// extraction strategy.
	ErrUnsupportedMIME = errors.New("unsupported document mime type")

	// ErrInvalidMaxAttempts indicates RetryWithBackoff was called with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than zero")
)

// APIError is a non-OK response from the LegiScan API.
type APIError struct {
	// Op is the API operation that failed, e.g. "getBill".
	Op string

	// Message is the API's alert message.
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("legiscan %s: %s", e.Op, e.Message)
}
