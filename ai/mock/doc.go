// Package mock provides a test double implementation of ai.Provider.
//
// The mock allows tests to run without external model services and enables
// controlled, deterministic behavior: responses can be scripted in order,
// or computed per call via an injected function.
//
// # Usage in Tests
//
//	// Scripted responses, returned in order
//	m := mock.NewProvider()
//	m.EnqueueResponse(`{"relevant": true, "reason": "hospice coverage"}`)
//	m.EnqueueResponse(`{"relevant": false, "reason": "unrelated"}`)
//
//	// Custom behavior injection
//	m.ChatCompletionFunc = func(ctx context.Context, messages []ai.Message) (string, error) {
//	    return "", errors.New("model unavailable")
//	}
//
//	// Assertions
//	count := m.CallCount()
//	sent := m.Call(0)
//
// # Default Behavior
//
// With no scripted responses and no injected function, ChatCompletion
// returns an empty JSON object.
package mock
