// Package fetch downloads remote result archives.
package fetch

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// ProxyFromEnvironment is proxy setting value which tells to use standard
// proxy environment variables.
const ProxyFromEnvironment = "env"

// ProxyFunc returns proxy selector for the setting: empty means direct
// connection ignoring environment, ProxyFromEnvironment uses environment,
// anything else is proxy URL used for all requests. Nil function means
// direct connection.
func ProxyFunc(setting string) (func(*http.Request) (*url.URL, error), error) {
	var cfg *httpproxy.Config
	switch setting {
	case "":
		return nil, nil
	case ProxyFromEnvironment:
		cfg = httpproxy.FromEnvironment()
	default:
		if _, err := url.Parse(setting); err != nil {
			return nil, fmt.Errorf("unable to parse proxy URL (%s): %w", setting, err)
		}
		cfg = &httpproxy.Config{HTTPProxy: setting, HTTPSProxy: setting}
	}
	pf := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return pf(req.URL)
	}, nil
}

// NewTransport creates transport with requested proxy policy.
func NewTransport(proxy string, connectTimeout time.Duration, verifySSL bool) (*http.Transport, error) {
	pf, err := ProxyFunc(proxy)
	if err != nil {
		return nil, err
	}
	t := &http.Transport{
		Proxy: pf,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if !verifySSL {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return t, nil
}
