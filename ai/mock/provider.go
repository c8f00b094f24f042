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

package mock

import (
	"context"

	"github.com/poiesic/billscan/ai"
)

// Provider is a test double for ai.Provider.
// It allows custom behavior injection via function fields, or scripted
// responses returned in FIFO order.
type Provider struct {
	// ChatCompletionFunc is called by ChatCompletion if set.
	// If nil, scripted responses queued via EnqueueResponse are returned
	// in order, then an empty JSON object once the queue is drained.
	ChatCompletionFunc func(ctx context.Context, messages []ai.Message) (string, error)

	responses []string
	calls     [][]ai.Message
}

// NewProvider creates a mock provider with default behavior.
// Note: Returns concrete type to allow test assertions via CallCount and Call.
func NewProvider() *Provider {
	return &Provider{}
}

// EnqueueResponse appends a scripted response. Each ChatCompletion call
// consumes one response from the front of the queue.
func (m *Provider) EnqueueResponse(response string) {
	m.responses = append(m.responses, response)
}

// ChatCompletion records the call and returns the injected function's
// result, the next scripted response, or an empty JSON object.
func (m *Provider) ChatCompletion(ctx context.Context, messages []ai.Message, opts ...ai.CallOption) (string, error) {
	m.calls = append(m.calls, messages)

	if m.ChatCompletionFunc != nil {
		return m.ChatCompletionFunc(ctx, messages)
	}

	if len(m.responses) > 0 {
		response := m.responses[0]
		m.responses = m.responses[1:]
		return response, nil
	}

	return "{}", nil
}

// Name identifies the mock in logs.
func (m *Provider) Name() string {
	return "mock"
}

// Close is a no-op for the mock provider.
func (m *Provider) Close() error {
	return nil
}

// CallCount returns the number of times ChatCompletion was called.
func (m *Provider) CallCount() int {
	return len(m.calls)
}

// Call returns the messages sent on the i-th ChatCompletion call.
// Returns nil if no such call was made.
func (m *Provider) Call(i int) []ai.Message {
	if i < 0 || i >= len(m.calls) {
		return nil
	}
	return m.calls[i]
}

// Reset clears recorded calls, scripted responses, and custom functions.
func (m *Provider) Reset() {
	m.responses = nil
	m.calls = nil
	m.ChatCompletionFunc = nil
}
