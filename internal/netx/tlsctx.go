package netx

import (
	"crypto/tls"
	"crypto/x509"
	"sync"
)

// clientTLSPool is the process-wide system trust anchor pool, loaded
// once on first use per spec.md §5/§9: "lazy-initialized singleton;
// document that it must not be reconfigured after first use."
var clientTLSPool struct {
	once sync.Once
	pool *x509.CertPool
	err  error
}

func systemPool() (*x509.CertPool, error) {
	clientTLSPool.once.Do(func() {
		clientTLSPool.pool, clientTLSPool.err = x509.SystemCertPool()
	})
	return clientTLSPool.pool, clientTLSPool.err
}

// clientTLSConfig builds a tls.Config for connecting to host: SNI set
// to host, verify_peer mode (no InsecureSkipVerify), hostname
// verification via ServerName, TLS 1.2 minimum per spec.md §6.2.
//
// Each call returns a fresh *tls.Config (tls.Config is not safe to
// mutate concurrently once in use, but is safe to read/clone); the
// shared, lazily-built system root pool underneath it is the actual
// process-wide singleton spec.md describes.
func clientTLSConfig(host string) *tls.Config {
	pool, err := systemPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	return &tls.Config{
		ServerName: host,
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}
}
