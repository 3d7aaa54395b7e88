package judge

import (
	"context"
	"sync"
)

// MockResponse is a canned reply for Mock.
type MockResponse struct {
	Verdict Verdict
	Err     error
}

// Mock returns canned responses in FIFO order and records every request.
// An empty queue answers with an UnavailableError.
type Mock struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

func NewMock(responses ...MockResponse) *Mock {
	return &Mock{responses: responses}
}

func (m *Mock) Judge(_ context.Context, req Request) (Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if len(m.responses) == 0 {
		return Verdict{}, &UnavailableError{}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp.Verdict, resp.Err
}

func (m *Mock) Add(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func (m *Mock) Ping(context.Context) error { return nil }
