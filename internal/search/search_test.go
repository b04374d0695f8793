package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockProvider is a simple test provider.
type mockProvider struct {
	name    string
	results []Result
	err     error
}

func (m *mockProvider) Name() string { return m.name }
func (m *mockProvider) Search(_ context.Context, _ string, _ Options) ([]Result, error) {
	return m.results, m.err
}

func TestManagerSearch(t *testing.T) {
	mgr := NewManager("mock")
	mgr.Register(&mockProvider{
		name: "mock",
		results: []Result{
			{Title: "Test", URL: "https://example.com", Snippet: "A test result"},
		},
	})

	results, err := mgr.Search(context.Background(), "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Title != "Test" {
		t.Errorf("expected title 'Test', got %q", results[0].Title)
	}
}

func TestManagerSearchWith(t *testing.T) {
	mgr := NewManager("primary")
	mgr.Register(&mockProvider{name: "primary", results: []Result{{Title: "Primary"}}})
	mgr.Register(&mockProvider{name: "secondary", results: []Result{{Title: "Secondary"}}})

	results, err := mgr.SearchWith(context.Background(), "secondary", "test", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Title != "Secondary" {
		t.Errorf("expected 'Secondary', got %q", results[0].Title)
	}
}

func TestManagerUnconfigured(t *testing.T) {
	mgr := NewManager("missing")
	_, err := mgr.Search(context.Background(), "test", Options{})
	if err == nil {
		t.Fatal("expected error for missing provider")
	}
}

const ddgSampleHTML = `<!DOCTYPE html>
<html><body>
<div class="results">
  <div class="result results_links">
    <h2 class="result__title">
      <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.japan-guide.com%2Fe%2Fe2158.html">Kyoto Travel Guide</a>
    </h2>
    <a class="result__snippet" href="#">Kyoto served as Japan's capital for over a thousand years.</a>
  </div>
  <div class="result results_links">
    <h2 class="result__title">
      <a class="result__a" href="https://en.wikipedia.org/wiki/Kyoto">Kyoto - Wikipedia</a>
    </h2>
    <a class="result__snippet" href="#">Kyoto is a city in the Kansai region.</a>
  </div>
</div>
</body></html>`

func TestDuckDuckGoSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostForm.Get("q"); got != "kyoto travel" {
			t.Errorf("q = %q", got)
		}
		if got := r.PostForm.Get("kl"); got != "us-en" {
			t.Errorf("kl = %q, want us-en default", got)
		}
		w.Write([]byte(ddgSampleHTML))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(WithEndpoint(srv.URL))
	results, err := d.Search(context.Background(), "kyoto travel", Options{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Title != "Kyoto Travel Guide" {
		t.Errorf("title = %q", results[0].Title)
	}
	// Redirect links must be unwrapped to the destination URL.
	if results[0].URL != "https://www.japan-guide.com/e/e2158.html" {
		t.Errorf("url = %q, want unwrapped destination", results[0].URL)
	}
	if results[0].Snippet == "" {
		t.Error("snippet missing")
	}
	if results[1].URL != "https://en.wikipedia.org/wiki/Kyoto" {
		t.Errorf("direct url mangled: %q", results[1].URL)
	}
}

func TestDuckDuckGoCountClamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ddgSampleHTML))
	}))
	defer srv.Close()

	d := NewDuckDuckGo(WithEndpoint(srv.URL))
	results, err := d.Search(context.Background(), "kyoto", Options{Count: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestCleanDDGURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpage", "https://example.com/page"},
		{"https://example.com/direct", "https://example.com/direct"},
		{"//duckduckgo.com/l/?other=1", "https://duckduckgo.com/l/?other=1"},
	}
	for _, tt := range tests {
		if got := cleanDDGURL(tt.in); got != tt.want {
			t.Errorf("cleanDDGURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatResults(t *testing.T) {
	results := []Result{
		{Title: "First", URL: "https://a.com", Snippet: "Snippet A"},
		{Title: "Second", URL: "https://b.com"},
	}
	out := FormatResults(results, 2)
	if out == "" {
		t.Fatal("expected non-empty output")
	}
}

func TestFormatResultsEmpty(t *testing.T) {
	out := FormatResults(nil, 0)
	if out != "No results found." {
		t.Errorf("expected 'No results found.', got %q", out)
	}
}
