package api

import (
	"io"

	fhttp "github.com/bogdanfinn/fhttp"
)

// mockResponseBody is a ReadCloser that simulates reading response data
type mockResponseBody struct {
	data   []byte
	pos    int
	closed bool
}

func newMockResponseBody(data []byte) *mockResponseBody {
	return &mockResponseBody{data: data}
}

func (m *mockResponseBody) Read(p []byte) (n int, err error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n = copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func (m *mockResponseBody) Close() error {
	m.closed = true
	return nil
}

// mockDoer is an HTTPDoer returning a canned response and recording the request
type mockDoer struct {
	statusCode int
	status     string
	body       []byte
	err        error

	calls       int
	lastRequest *fhttp.Request
	lastBody    []byte
	respBody    *mockResponseBody
}

func newMockDoer(statusCode int, status string, body string) *mockDoer {
	return &mockDoer{statusCode: statusCode, status: status, body: []byte(body)}
}

func (m *mockDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	m.calls++
	m.lastRequest = req
	if req.Body != nil {
		m.lastBody, _ = io.ReadAll(req.Body)
	}
	if m.err != nil {
		return nil, m.err
	}

	m.respBody = newMockResponseBody(m.body)
	return &fhttp.Response{
		StatusCode: m.statusCode,
		Status:     m.status,
		Body:       m.respBody,
		Header:     make(fhttp.Header),
	}, nil
}
