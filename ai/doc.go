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

// Package ai provides the LLM abstraction used by the bill pipelines.
//
// This package defines a chat completion interface over interchangeable
// model backends. It follows the dependency inversion principle, allowing
// the pipeline passes to depend on abstractions rather than concrete
// implementations, so the application can switch between remote and local
// models via configuration without code changes.
//
// # Design Principles
//
// The package is designed around two key pieces:
//
//   - Provider: generates chat completions from a configured model
//   - Registry: resolves configured provider names to backends
//
// # Implementation Packages
//
// The ai package includes four implementation sub-packages:
//
//   - ai/gateway: OpenAI models routed through the Portkey.ai gateway
//   - ai/azure: Azure OpenAI Service deployments
//   - ai/ollama: Local models served by Ollama's OpenAI-compatible API
//   - ai/mock: Test doubles for unit testing without external services
//
// # Constructor Return Type Pattern
//
// Production constructors (gateway.New, azure.New, ollama.New) return the
// ai.Provider INTERFACE to enforce abstraction and prevent accidental
// coupling to a concrete backend.
//
//	provider, err := gateway.New(config)  // returns ai.Provider
//
// The test utility constructor (mock.NewProvider) returns a CONCRETE type
// to enable test assertions and behavior injection via the mock's public
// methods (EnqueueResponse, CallCount, Reset, etc.).
//
//	m := mock.NewProvider()                    // returns *mock.Provider
//	m.EnqueueResponse(`{"relevant": true}`)    // scripted behavior
//	count := m.CallCount()                     // test assertion
//
// # Usage Example
//
//	registry := ai.NewRegistry()
//	registry.Register(ai.ProviderPortkey, gateway.New)
//	registry.Register(ai.ProviderAzure, azure.New)
//	registry.Register(ai.ProviderOllama, ollama.New)
//
//	cfg := ai.NewConfig(ai.WithProvider("ollama"), ai.WithModel("llama3.1:8b-instruct"))
//	provider, err := registry.CreateFromEnv(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	response, err := provider.ChatCompletion(ctx,
//	    []ai.Message{
//	        ai.SystemMessage("You are a data relevance filter."),
//	        ai.UserMessage(payload),
//	    },
//	    ai.WithTemperature(0.3),
//	    ai.WithJSONResponse(),
//	)
package ai
