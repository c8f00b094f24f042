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

package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider indicates the registry has no builder registered
	// under the requested provider name.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrMissingCredentials indicates a backend requires an API key or
	// endpoint that was neither configured nor present in the environment.
	ErrMissingCredentials = errors.New("missing llm credentials")

	// ErrEmptyResponse indicates the model returned no choices.
	ErrEmptyResponse = errors.New("llm returned no choices")
)

// CompletionError wraps a failed chat completion with the provider that
// produced it, so vendor exception types never leak past the ai boundary.
type CompletionError struct {
	// Provider is the failing backend's Name().
	Provider string

	// Err is the underlying cause.
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
