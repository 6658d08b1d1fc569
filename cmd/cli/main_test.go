package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}
	return buf.String()
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	out := captureOutput(t, func() {
		printJSON(struct {
			A int `json:"a"`
		}{A: 1})
	})

	expected := "{\n  \"a\": 1\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestGetJSONSendsOwnerHeader(t *testing.T) {
	var gotOwner string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner = r.Header.Get("X-Owner-ID")
		json.NewEncoder(w).Encode(map[string]any{"owner_id": "owner-1", "balance": 7})
	}))
	defer srv.Close()

	baseURL = srv.URL

	out := captureOutput(t, func() {
		if err := getJSON("/api/v1/credits/balance", "owner-1"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	if gotOwner != "owner-1" {
		t.Errorf("expected X-Owner-ID owner-1, got %q", gotOwner)
	}
	if !bytes.Contains([]byte(out), []byte(`"balance": 7`)) {
		t.Errorf("expected balance in output, got:\n%s", out)
	}
}

func TestDoRequestSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"insufficient credits"}`))
	}))
	defer srv.Close()

	baseURL = srv.URL

	err := getJSON("/api/v1/fulfillments", "owner-1")
	if err == nil {
		t.Fatal("expected error for 402 response")
	}
}
