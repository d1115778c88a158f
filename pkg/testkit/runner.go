package testkit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Runner fires scenarios in order and keeps the captured variables.
type Runner struct {
	handler http.Handler
	vars    map[string]string
}

// NewRunner returns a Runner for handler. vars seeds the variable set.
func NewRunner(handler http.Handler, vars map[string]string) *Runner {
	v := make(map[string]string, len(vars))
	for k, val := range vars {
		v[k] = val
	}
	return &Runner{handler: handler, vars: v}
}

// Var returns a captured variable.
func (r *Runner) Var(name string) string { return r.vars[name] }

// RunFile loads path and runs every step as a subtest. A failing step stops
// the remaining ones, since later steps usually depend on earlier ones.
func RunFile(t *testing.T, handler http.Handler, path string) *Runner {
	t.Helper()

	scenarios, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	r := NewRunner(handler, nil)
	for _, s := range scenarios {
		if !t.Run(s.Name, func(t *testing.T) { r.Run(t, s) }) {
			t.FailNow()
		}
	}
	return r
}

// Run executes one scenario.
func (r *Runner) Run(t *testing.T, s *Scenario) {
	t.Helper()

	var body io.Reader
	if len(s.Body) > 0 {
		body = strings.NewReader(r.expand(string(s.Body)))
	}

	req := httptest.NewRequest(strings.ToUpper(s.Method), r.expand(s.URL), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, r.expand(v))
	}

	rec := httptest.NewRecorder()
	r.handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if len(s.Response) > 0 {
		AssertJSONSubset(t, s, []byte(r.expand(string(s.Response))), rec.Body.Bytes())
	}
	if len(s.Capture) > 0 {
		r.capture(t, s, rec.Body.Bytes())
	}
}

func (r *Runner) expand(in string) string {
	return placeholder.ReplaceAllStringFunc(in, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := r.vars[name]; ok {
			return v
		}
		return m
	})
}

func (r *Runner) capture(t *testing.T, s *Scenario, body []byte) {
	t.Helper()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("[%s] capture: response is not a JSON object: %s", s.Name, body)
	}
	for name, field := range s.Capture {
		raw, ok := fields[field]
		if !ok {
			t.Fatalf("[%s] capture: field %q missing from %s", s.Name, field, body)
		}
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			r.vars[name] = str
			continue
		}
		r.vars[name] = string(bytes.TrimSpace(raw))
	}
}
