package proxy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxySupplier_KeepsWorkingProxiesInOrder(t *testing.T) {
	check := func(_ context.Context, proxyURL, _ string) bool {
		return !strings.Contains(proxyURL, "dead")
	}
	s := newProxySupplier(context.Background(), []string{
		"http://a:1", " http://dead:2 ", "http://b:3", "http://a:1", "",
	}, "https://www.partselect.com", check)

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "http://a:1", s.Get())
	assert.Equal(t, "http://b:3", s.Get())
	assert.Equal(t, "http://a:1", s.Get())
}

func TestProxySupplier_Empty(t *testing.T) {
	s := NewProxySupplier(context.Background(), nil, "https://www.partselect.com")

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Get())
}

func TestIsProxyValid(t *testing.T) {
	// A plain HTTP server accepts absolute-form requests, so it can stand in
	// for a forward proxy.
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer ok.Close()
	denied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer denied.Close()

	assert.True(t, isProxyValid(context.Background(), ok.URL, "http://www.partselect.com/"))
	assert.False(t, isProxyValid(context.Background(), denied.URL, "http://www.partselect.com/"))
}
