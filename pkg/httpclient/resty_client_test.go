package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRestyClientSendsHeadersAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "UA/1.0" {
			t.Errorf("expected default User-Agent, got %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page=2, got %q", got)
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	client := NewRestyClient(2*time.Second, map[string]string{"User-Agent": "UA/1.0"})
	resp, err := client.Get(context.Background(), srv.URL+"/noticias?page=2", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !IsSuccess(resp) {
		t.Fatalf("expected success status, got %d", resp.StatusCode())
	}
	if string(resp.Body()) != "<html>ok</html>" {
		t.Fatalf("unexpected body %q", resp.Body())
	}
}

func TestRestyClientReportsNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second, nil).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if IsSuccess(resp) || resp.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode())
	}
}

func TestRestyClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := NewRestyClient(time.Second, nil).Get(context.Background(), url, nil); err == nil {
		t.Fatalf("expected transport error against closed server")
	}
}

func TestIsSuccessNil(t *testing.T) {
	if IsSuccess(nil) {
		t.Fatalf("nil response must not be a success")
	}
}
