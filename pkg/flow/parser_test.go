package flow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_FullFlow(t *testing.T) {
	yaml := `
name: Order lifecycle
description: Create an order and wait for completion
tags:
  - smoke
  - orders
steps:
  - name: Create order
    request:
      method: POST
      url: /orders
      headers:
        Authorization: Bearer ${token}
      body:
        sku: A-100
        quantity: 2
    capture:
      - name: orderId
        path: data.id
    assertions:
      - path: httpStatus
        operator: equals
        value: 201
  - name: Wait for completion
    request:
      method: GET
      url: /orders/${orderId}
    waitUntil:
      path: data.status
      operator: equals
      value: completed
    assertions:
      - path: data.status
        operator: equals
        value: completed
        message: order should complete
`
	f, err := Parse([]byte(yaml), "orders.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Name != "Order lifecycle" {
		t.Errorf("expected name, got %q", f.Name)
	}
	if !f.HasTag("smoke") || f.HasTag("slow") {
		t.Error("tag lookup wrong")
	}
	if len(f.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(f.Steps))
	}

	create := f.Steps[0]
	if create.Request.Method != "POST" || create.Request.URL != "/orders" {
		t.Errorf("request wrong: %+v", create.Request)
	}
	if create.Request.Headers["Authorization"] != "Bearer ${token}" {
		t.Errorf("headers wrong: %v", create.Request.Headers)
	}
	if len(create.Capture) != 1 || create.Capture[0].Name != "orderId" || create.Capture[0].Path != "data.id" {
		t.Errorf("capture wrong: %+v", create.Capture)
	}
	if create.Assertions[0].Operator != OpEquals {
		t.Errorf("operator wrong: %q", create.Assertions[0].Operator)
	}

	wait := f.Steps[1]
	if wait.WaitUntil == nil {
		t.Fatal("expected waitUntil")
	}
	if wait.WaitUntil.Timeout != DefaultPollTimeoutMs {
		t.Errorf("expected default timeout %d, got %d", DefaultPollTimeoutMs, wait.WaitUntil.Timeout)
	}
	if wait.WaitUntil.Interval != DefaultPollIntervalMs {
		t.Errorf("expected default interval %d, got %d", DefaultPollIntervalMs, wait.WaitUntil.Interval)
	}
	if wait.Assertions[0].Message != "order should complete" {
		t.Errorf("message wrong: %q", wait.Assertions[0].Message)
	}
}

func TestParse_GraphQL(t *testing.T) {
	yaml := `
name: GraphQL query
steps:
  - name: Fetch user
    request:
      method: POST
      url: /graphql
      graphql:
        query: "query($id: ID!) { user(id: $id) { name } }"
        variables:
          id: ${userId}
        operationName: FetchUser
    assertions:
      - path: data.user.name
        operator: exists
`
	f, err := Parse([]byte(yaml), "gql.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g := f.Steps[0].Request.GraphQL
	if g == nil {
		t.Fatal("expected graphql section")
	}
	if !strings.Contains(g.Query, "user(id: $id)") {
		t.Errorf("query wrong: %q", g.Query)
	}
	if g.Variables["id"] != "${userId}" {
		t.Errorf("variables wrong: %v", g.Variables)
	}
	if g.OperationName != "FetchUser" {
		t.Errorf("operationName wrong: %q", g.OperationName)
	}
}

func TestParse_ExplicitPollTimings(t *testing.T) {
	yaml := `
name: Custom poll
steps:
  - name: Wait
    request:
      method: GET
      url: /jobs/1
    waitUntil:
      path: status
      operator: equals
      value: done
      timeout: 5000
      interval: 250
`
	f, err := Parse([]byte(yaml), "poll.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := f.Steps[0].WaitUntil
	if w.Timeout != 5000 || w.Interval != 250 {
		t.Errorf("expected explicit timings preserved, got timeout=%d interval=%d", w.Timeout, w.Interval)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			"missing flow name",
			"steps:\n  - name: s\n    request: {method: GET, url: /x}\n",
			"missing a name",
		},
		{
			"no steps",
			"name: Empty\n",
			"has no steps",
		},
		{
			"missing step name",
			"name: F\nsteps:\n  - request: {method: GET, url: /x}\n",
			"step 1 is missing a name",
		},
		{
			"bad method",
			"name: F\nsteps:\n  - name: s\n    request: {method: FETCH, url: /x}\n",
			`unsupported method "FETCH"`,
		},
		{
			"lowercase method rejected",
			"name: F\nsteps:\n  - name: s\n    request: {method: get, url: /x}\n",
			"unsupported method",
		},
		{
			"missing url",
			"name: F\nsteps:\n  - name: s\n    request: {method: GET}\n",
			"missing a request url",
		},
		{
			"graphql without query",
			"name: F\nsteps:\n  - name: s\n    request:\n      method: POST\n      url: /graphql\n      graphql:\n        operationName: Op\n",
			"missing a query",
		},
		{
			"capture without path",
			"name: F\nsteps:\n  - name: s\n    request: {method: GET, url: /x}\n    capture:\n      - name: v\n",
			"need both name and path",
		},
		{
			"assertion without operator",
			"name: F\nsteps:\n  - name: s\n    request: {method: GET, url: /x}\n    assertions:\n      - path: status\n",
			"missing an operator",
		},
		{
			"waitUntil without path",
			"name: F\nsteps:\n  - name: s\n    request: {method: GET, url: /x}\n    waitUntil:\n      operator: equals\n      value: done\n",
			"waitUntil is missing a path",
		},
		{
			"waitUntil with contains",
			"name: F\nsteps:\n  - name: s\n    request: {method: GET, url: /x}\n    waitUntil:\n      path: status\n      operator: contains\n      value: d\n",
			"must be one of equals, notEquals, exists, notExists",
		},
		{
			"invalid yaml",
			"name: [unclosed\n",
			"invalid YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "bad.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_UnknownOperatorRejected(t *testing.T) {
	yaml := `
name: F
steps:
  - name: s
    request: {method: GET, url: /x}
    assertions:
      - path: status
        operator: eq
        value: done
`
	_, err := Parse([]byte(yaml), "bad.yaml")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `unknown operator "eq"`) {
		t.Errorf("error %q should name the operator", err.Error())
	}
	if !strings.Contains(err.Error(), "line") {
		t.Errorf("error %q should carry a line number", err.Error())
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ping.yaml")
	content := "name: Ping\nsteps:\n  - name: ping\n    request: {method: GET, url: /ping}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.SourcePath != path {
		t.Errorf("expected SourcePath %q, got %q", path, f.SourcePath)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestOperator_ValidForPoll(t *testing.T) {
	allowed := []Operator{OpEquals, OpNotEquals, OpExists, OpNotExists}
	for _, op := range allowed {
		if !op.ValidForPoll() {
			t.Errorf("%s should be allowed in waitUntil", op)
		}
	}
	denied := []Operator{OpContains, OpGreaterThan, OpMatches, OpAIEvaluate, Operator("bogus")}
	for _, op := range denied {
		if op.ValidForPoll() {
			t.Errorf("%s should not be allowed in waitUntil", op)
		}
	}
}
