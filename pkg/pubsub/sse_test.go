package pubsub

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	event := Event{Topic: TopicConversionGraph, Type: EventGraphUpdated, Data: json.RawMessage(`{"nodes":3}`), Version: 7}
	if err := WriteSSE(&buf, event); err != nil {
		t.Fatalf("WriteSSE() error = %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "id: 7\nevent: graph_updated\ndata: {") {
		t.Errorf("Unexpected framing %q", out)
	}
	if !strings.HasSuffix(out, "}\n\n") {
		t.Errorf("Expected blank line terminator, got %q", out)
	}
}

func TestServeSSE(t *testing.T) {
	f := NewFeed()
	_ = f.PublishGraph(GraphUpdate{Source: "builtin", Nodes: 3, Edges: 5})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, f)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 5 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("Stream ended early: %v", err)
		}
		lines = append(lines, line)
	}
	if lines[0] != ": connected\n" || lines[2] != "id: 1\n" || lines[3] != "event: graph_updated\n" {
		t.Errorf("Unexpected stream start %q", lines)
	}

	// Closing the feed ends the stream
	f.Close()
	for {
		if _, err := reader.ReadString('\n'); err != nil {
			break
		}
	}
}
