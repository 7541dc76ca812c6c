package util

import (
	"net/http"
	"testing"
	"time"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "http://secure:8443")

	req, _ := http.NewRequest(http.MethodGet, "https://arxiv.org/list/cs/new", nil)
	u, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u.Host != "secure:8443" {
		t.Errorf("expected https proxy, got %s", u.Host)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://localhost:11434/api/chat", nil)
	u, err = proxy(req)
	if err != nil {
		t.Fatalf("proxy failed: %v", err)
	}
	if u.Host != "plain:8080" {
		t.Errorf("expected http proxy, got %s", u.Host)
	}
}

func TestNewHTTPClient(t *testing.T) {
	c := NewHTTPClient(3*time.Second, "", "")
	if c.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", c.Timeout)
	}
	if c.CheckRedirect == nil {
		t.Error("expected redirect policy")
	}
}
