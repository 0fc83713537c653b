// Package network provides the pre-configured HTTP client shared by every catalog request.
package network

import (
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/podtube-cli/podtube/constant"
	"github.com/podtube-cli/podtube/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"golang.org/x/net/publicsuffix"
)

var (
	client     *http.Client
	clientOnce sync.Once
)

// Client returns the process-wide HTTP client.
// Its transport is chosen once, from network.tls_fingerprint, on first use.
func Client() *http.Client {
	clientOnce.Do(func() {
		client = New(viper.GetBool(key.NetworkTLSFingerprint))
	})
	return client
}

// New builds a client with a cookie jar and a tuned transport.
// With fingerprint set, TLS handshakes mimic Chrome through uTLS.
func New(fingerprint bool) *http.Client {
	var transport http.RoundTripper = newTransport()
	if fingerprint {
		transport = newFingerprintTransport()
	}

	return &http.Client{
		Timeout:   time.Minute,
		Jar:       lo.Must(cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})),
		Transport: &userAgentTransport{next: transport},
	}
}

// newTransport initializes a tuned http.Transport with pool and timeout parameters suited to a single API host.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 32
	t.MaxIdleConnsPerHost = 16
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 5 * time.Second
	return t
}

// userAgentTransport stamps the default User-Agent on requests that do not carry one.
type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	return t.next.RoundTrip(req)
}
