package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/cratetree/pkg/cache"
	cterrors "github.com/matzehuels/cratetree/pkg/errors"
)

func newTestClient(t *testing.T, srv *httptest.Server) (*Client, cache.Cache) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	client := NewClient(c, nil, time.Hour, map[string]string{"X-Default": "default"})
	client.http = srv.Client()
	client.backoff = Backoff{Attempts: 3, Delay: time.Millisecond}
	return client, c
}

func TestClientFetch(t *testing.T) {
	var accept, custom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		custom = r.Header.Get("X-Default")
		w.Write([]byte(`{"@graph":[]}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	data, hit, err := client.Fetch(context.Background(), srv.URL+"/crate.json", false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != `{"@graph":[]}` || hit {
		t.Errorf("Fetch() = %q, hit %v", data, hit)
	}
	if accept == "" || custom != "default" {
		t.Errorf("headers = %q / %q, want accept and default header", accept, custom)
	}
}

func TestClientFetchCached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("body"))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	ctx := context.Background()

	for i := range 3 {
		_, hit, err := client.Fetch(ctx, srv.URL, false)
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if hit != (i > 0) {
			t.Errorf("Fetch() #%d hit = %v", i, hit)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}

	if _, _, err := client.Fetch(ctx, srv.URL, true); err != nil {
		t.Fatalf("Fetch(refresh) error: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls after refresh = %d, want 2", got)
	}
}

func TestClientFetch404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	_, _, err := client.Fetch(context.Background(), srv.URL, false)
	if !cterrors.Is(err, cterrors.ErrCodeFileNotFound) {
		t.Errorf("Fetch() error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestClientFetch500Retries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	data, _, err := client.Fetch(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "ok" || calls.Load() != 3 {
		t.Errorf("Fetch() = %q after %d calls, want ok after 3", data, calls.Load())
	}
}

func TestClientFetch500Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv)
	_, _, err := client.Fetch(context.Background(), srv.URL, false)
	if !cterrors.Is(err, cterrors.ErrCodeNetwork) {
		t.Errorf("Fetch() error = %v, want NETWORK_ERROR", err)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		retryable bool
	}{
		{http.StatusOK, false, false},
		{http.StatusNotFound, true, false},
		{http.StatusForbidden, true, false},
		{http.StatusTooManyRequests, true, true},
		{http.StatusInternalServerError, true, true},
		{http.StatusServiceUnavailable, true, true},
	}
	for _, tt := range tests {
		err := checkStatus(&http.Response{StatusCode: tt.code, Header: http.Header{}}, "http://example.org")
		if (err != nil) != tt.wantErr {
			t.Errorf("checkStatus(%d) error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
		if got := errors.As(err, new(*RetryableError)); got != tt.retryable {
			t.Errorf("checkStatus(%d) retryable = %v, want %v", tt.code, got, tt.retryable)
		}
	}
}

func TestCheckStatusRetryAfter(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": {"7"}}}
	var re *RetryableError
	if !errors.As(checkStatus(resp, "http://example.org"), &re) {
		t.Fatal("429 should be retryable")
	}
	if re.After != 7*time.Second {
		t.Errorf("After = %v, want 7s", re.After)
	}
}

func TestRetryAfter(t *testing.T) {
	tests := map[string]time.Duration{
		"":                              0,
		"3":                             3 * time.Second,
		"-1":                            0,
		"Wed, 21 Oct 2015 07:28:00 GMT": 0,
	}
	for in, want := range tests {
		h := http.Header{}
		if in != "" {
			h.Set("Retry-After", in)
		}
		if got := retryAfter(h); got != want {
			t.Errorf("retryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBackoffDo(t *testing.T) {
	temporary := &RetryableError{Err: errors.New("temporary")}
	permanent := errors.New("permanent")

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"first call succeeds", []error{nil}, 1, nil},
		{"retry then succeed", []error{temporary, temporary, nil}, 3, nil},
		{"permanent stops", []error{permanent, nil}, 1, permanent},
		{"exhausted", []error{temporary, temporary, temporary, nil}, 3, temporary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			b := Backoff{Attempts: 3, Delay: time.Millisecond}
			err := b.Do(context.Background(), func() error {
				err := tt.errs[calls]
				calls++
				return err
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if err != tt.wantErr {
				t.Errorf("Do() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBackoffDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := Backoff{Attempts: 5, Delay: time.Hour}
	err := b.Do(ctx, func() error {
		cancel()
		return &RetryableError{Err: errors.New("temporary")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestBackoffWait(t *testing.T) {
	b := Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 5 * time.Second}
	if got := b.wait(time.Second, &RetryableError{Err: errors.New("x"), After: time.Minute}); got != 5*time.Second {
		t.Errorf("wait() = %v, want the 5s cap", got)
	}
	if got := b.wait(2*time.Second, &RetryableError{Err: errors.New("x")}); got != 2*time.Second {
		t.Errorf("wait() = %v, want 2s", got)
	}
}

func TestIsURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.org/crate.json": true,
		"http://localhost:8080/x":        true,
		"ro-crate-metadata.json":         false,
		"/abs/path.json":                 false,
		"ftp://example.org/x":            false,
		"https://":                       false,
	}
	for in, want := range tests {
		if got := IsURL(in); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}
