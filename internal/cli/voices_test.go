package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newSpeakersServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/studio_speakers" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"Claribel Dervla":{},"Ana Florence":{},"Baldur Sanjin":{}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVoices_ListSorted(t *testing.T) {
	srv := newSpeakersServer(t)

	stdout, _, err := runCLI(t, "--server-url", srv.URL, "voices")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := "Ana Florence  Ana Florence\n" +
		"Baldur Sanjin  Baldur Sanjin\n" +
		"Claribel Dervla  Claribel Dervla\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestVoices_QueryFindsPhoneticMatch(t *testing.T) {
	srv := newSpeakersServer(t)

	stdout, _, err := runCLI(t, "--server-url", srv.URL, "voices", "clarabel durvla")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(stdout, "Claribel Dervla") {
		t.Errorf("stdout = %q, want the matched voice", stdout)
	}
	if !strings.Contains(stdout, "confidence") {
		t.Errorf("stdout = %q, want a confidence score", stdout)
	}
}

func TestVoices_QueryNoMatch(t *testing.T) {
	srv := newSpeakersServer(t)

	stdout, stderr, err := runCLI(t, "--server-url", srv.URL, "voices", "xqzzkj")
	if err == nil {
		t.Fatal("expected a no-match error")
	}
	if !strings.Contains(err.Error(), "no voice matching") {
		t.Errorf("error = %q, want a no-match message", err)
	}
	if stdout != "" {
		t.Errorf("stdout should be empty on no match, got %q", stdout)
	}
	if strings.Contains(stderr, "Usage:") {
		t.Error("a failed lookup must not dump the usage block")
	}
}

func TestVoices_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model still loading", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, _, err := runCLI(t, "--server-url", srv.URL, "voices")
	if err == nil {
		t.Fatal("expected the backend error to propagate")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error = %q, want the backend status", err)
	}
}
