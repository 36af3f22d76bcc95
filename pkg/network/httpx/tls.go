package httpx

import (
	"crypto/tls"
	"os"
	"path/filepath"

	"golang.org/x/crypto/acme/autocert"
)

// autoCert returns a TLS config backed by a Let's Encrypt manager,
// with issued certificates cached on disk between restarts. An empty
// domain leaves the host policy open.
func autoCert(domain string) *tls.Config {
	m := &autocert.Manager{
		Prompt: autocert.AcceptTOS,
		Cache:  autocert.DirCache(certCacheDir()),
	}
	if domain != "" {
		m.HostPolicy = autocert.HostWhitelist(domain)
	}
	return m.TLSConfig()
}

func certCacheDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".caster", "acme")
	}
	return filepath.Join(os.TempDir(), "caster-acme")
}
