package litellm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Strob0t/Overseer/internal/port/model"
	"github.com/Strob0t/Overseer/internal/resilience"
)

func TestCompleteReturnsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key-1" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "gpt-test" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"all done"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1")
	turn, err := c.Complete(context.Background(), "gpt-test", []model.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if turn.Text != "all done" {
		t.Errorf("expected text, got %q", turn.Text)
	}
	if len(turn.ToolRequests) != 0 {
		t.Errorf("expected no tool requests, got %v", turn.ToolRequests)
	}
}

func TestCompleteDecodesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{
			"content": "",
			"tool_calls": [
				{"id":"tc-1","function":{"name":"shell","arguments":"{\"command\":\"ls\"}"}}
			]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	turn, err := c.Complete(context.Background(), "gpt-test", []model.Message{{Role: "user", Content: "list files"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(turn.ToolRequests) != 1 {
		t.Fatalf("expected 1 tool request, got %d", len(turn.ToolRequests))
	}
	tr := turn.ToolRequests[0]
	if tr.ID != "tc-1" || tr.Name != "shell" {
		t.Errorf("unexpected tool request: %+v", tr)
	}
	if tr.Args["command"] != "ls" {
		t.Errorf("unexpected args: %v", tr.Args)
	}
}

func TestCompleteRejectsMalformedArguments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{
			"tool_calls": [{"id":"tc-1","function":{"name":"shell","arguments":"{broken"}}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Complete(context.Background(), "m", []model.Message{{Role: "user", Content: "x"}}); err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestCompleteSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.Complete(context.Background(), "ghost", []model.Message{{Role: "user", Content: "x"}}); err == nil {
		t.Fatal("expected API error")
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	c.SetBreaker(resilience.NewBreaker(2, 0))

	msgs := []model.Message{{Role: "user", Content: "x"}}
	for i := 0; i < 2; i++ {
		_, _ = c.Complete(context.Background(), "m", msgs)
	}

	_, err := c.Complete(context.Background(), "m", msgs)
	if err == nil {
		t.Fatal("expected error")
	}
}
