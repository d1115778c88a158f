// Package testkit runs JSON-described HTTP scenarios against an
// http.Handler.
//
// A scenario file holds an ordered array of steps. Steps share a variable
// set: a value captured from one response can be spliced into later URLs,
// headers and bodies as {{name}}.
//
//	[
//	  {"name": "login", "method": "POST", "url": "/login",
//	   "body": {"email": "ana@rincon.mx", "password": "secreto"},
//	   "expectedCode": 200, "capture": {"token": "token"}},
//	  {"name": "list", "url": "/productos",
//	   "headers": {"Authorization": "Bearer {{token}}"},
//	   "expectedCode": 200, "response": []}
//	]
//
// Example _test.go:
//
//	func TestCatalog(t *testing.T) {
//	    testkit.RunFile(t, handler, "testdata/catalog.json")
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one request and what its response must look like.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Request
	Method  string            `json:"method"` // GET when empty
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`

	// Response assertions
	ExpectedCode int             `json:"expectedCode"`
	Response     json.RawMessage `json:"response"` // every key present must match

	// Capture maps a variable name to a top-level response field.
	Capture map[string]string `json:"capture"`
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	return nil
}

// LoadFile reads and validates the scenarios in path.
func LoadFile(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	for i, s := range scenarios {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: %q step %d: %w", abs, i, err)
		}
	}
	return scenarios, nil
}
