package netutil

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewTransport creates the HTTP transport shared by backend calls. Dials are
// logged at debug level with whether the target looks local.
func NewTransport(insecureTLS bool, logger *logrus.Logger) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialContext(logger),
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: insecureTLS, MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
	}
}

func dialContext(logger *logrus.Logger) func(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		logger.WithFields(logrus.Fields{
			"host":  host,
			"local": IsLocalOrPrivateHost(host),
		}).Debug("Dialing backend")
		return dialer.DialContext(ctx, network, addr)
	}
}

// IsLocalOrPrivateHost checks if a hostname is localhost or a private network address
func IsLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".lan") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast()
}

// NewHTTPClient returns a client without an overall timeout; callers bound
// each request with a context deadline.
func NewHTTPClient(insecureTLS bool, logger *logrus.Logger) *http.Client {
	return &http.Client{Transport: NewTransport(insecureTLS, logger)}
}
