package advisor

import (
	"context"
	"errors"
	"sync"
)

// StubResponse is what StubInvoker answers for one model.
type StubResponse struct {
	Text string
	Err  error
}

// StubInvoker answers from a fixed table and records every call.
type StubInvoker struct {
	mu        sync.Mutex
	responses map[string]StubResponse
	calls     []StubCall
}

type StubCall struct {
	Model             string
	Prompt            string
	SystemInstruction string
}

func NewStubInvoker(responses map[string]StubResponse) *StubInvoker {
	return &StubInvoker{responses: responses}
}

func (s *StubInvoker) Invoke(ctx context.Context, model string, prompt string, systemInstruction string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, StubCall{Model: model, Prompt: prompt, SystemInstruction: systemInstruction})
	response, ok := s.responses[model]
	if !ok {
		return "", &InvocationError{Model: model, Class: ClassNotFound, Err: errors.New("404 model not found")}
	}
	return response.Text, response.Err
}

func (s *StubInvoker) Calls() []StubCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StubCall, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *StubInvoker) CalledModels() []string {
	calls := s.Calls()
	models := make([]string, 0, len(calls))
	for _, c := range calls {
		models = append(models, c.Model)
	}
	return models
}

// StubInvokerFactory hands out the same invoker for every key and remembers the keys asked for.
type StubInvokerFactory struct {
	Invoker Invoker
	Err     error
	Keys    []string
}

func (f *StubInvokerFactory) ForKey(ctx context.Context, apiKey string) (Invoker, error) {
	f.Keys = append(f.Keys, apiKey)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Invoker, nil
}
