package httpclient

import "crypto/tls"

// tlsConfigInsecure returns a TLS config with certificate verification
// disabled, grounded on goresearch/internal/app/http.go's
// newHighThroughputHTTPClient(sslVerify bool) toggle.
func tlsConfigInsecure() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}
