package sandbox

import (
	"context"
	"testing"
)

func TestDOMFromHTML(t *testing.T) {
	dom, err := DOMFromHTML(`
		<div id="app" class="container">
			<h1 class="title">Dashboard</h1>
			<ul id="items"><li class="item">one</li><li class="item">two</li></ul>
		</div>
	`)
	if err != nil {
		t.Fatalf("DOMFromHTML() error = %v", err)
	}

	tests := []struct {
		name     string
		selector string
		wantLen  int
	}{
		{"id selector", "#app", 1},
		{"class selector", ".item", 2},
		{"tag selector", "li", 2},
		{"nested id", "#items", 1},
		{"missing", "#nope", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dom.Query(tt.selector)
			if len(got) != tt.wantLen {
				t.Errorf("Query(%s) = %d elements, want %d", tt.selector, len(got), tt.wantLen)
			}
		})
	}
}

func TestDOMRecordsChanges(t *testing.T) {
	dom, err := DOMFromHTML(`<div id="box">hello</div>`)
	if err != nil {
		t.Fatalf("DOMFromHTML() error = %v", err)
	}

	box := dom.Query("#box")[0]
	box.SetAttribute("data-state", "done")
	box.SetText("goodbye")

	changes := dom.Changes()
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Type != "set_attribute" || changes[0].Property != "data-state" {
		t.Errorf("unexpected first change: %+v", changes[0])
	}
	if changes[1].Type != "set_text" || changes[1].Value != "goodbye" {
		t.Errorf("unexpected second change: %+v", changes[1])
	}
}

func TestDocumentStrategy(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	code := `
		function runTest() {
			var el = document.querySelector('#status');
			el.setAttribute('data-ready', 'true');
			el.setText('loaded');
			return el.textContent;
		}
	`
	result, err := e.Execute(ctx, Request{
		Code:     code,
		Input:    map[string]interface{}{"html": `<span id="status">loading</span>`},
		Strategy: "embedded-document",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got fault: %v", result.Err)
	}
	// The proxy snapshot predates the mutation
	if result.Output != "loading" {
		t.Errorf("Output = %v, want 'loading'", result.Output)
	}
}

func TestDocumentStrategyReturnsChanges(t *testing.T) {
	e := newTestExecutor(t)
	ctx := context.Background()

	code := `
		function runTest() {
			document.querySelector('#status').setText('done');
		}
	`
	result, err := e.Execute(ctx, Request{
		Code:     code,
		Input:    map[string]interface{}{"html": `<span id="status"></span>`},
		Strategy: "embedded-document",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got fault: %v", result.Err)
	}

	out, ok := result.Output.(map[string]interface{})
	if !ok {
		t.Fatalf("expected change map output, got %T", result.Output)
	}
	changes, ok := out["dom_changes"].([]Change)
	if !ok || len(changes) != 1 {
		t.Fatalf("expected 1 recorded change, got %v", out["dom_changes"])
	}
	if changes[0].Value != "done" {
		t.Errorf("change value = %v, want 'done'", changes[0].Value)
	}
}
