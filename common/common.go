package common

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

var errDirIsFile = errors.New("path exists but is not a directory")

// NewHTTPClientWithTimeout initialises a new HTTP client and its underlying
// transport with the specified timeout. insecure disables certificate
// verification for broker test environments that serve untrusted chains.
func NewHTTPClientWithTimeout(t time.Duration, insecure bool) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.IdleConnTimeout = 90 * time.Second
	if insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // broker UAT certificate chain
	}
	return &http.Client{
		Transport: tr,
		Timeout:   t,
	}
}

// CheckDir checks to see if a path exists and is a directory. When create is
// true a missing directory is created.
func CheckDir(dir string, create bool) error {
	fi, err := os.Stat(dir)
	if err == nil {
		if !fi.IsDir() {
			return fmt.Errorf("%s: %w", dir, errDirIsFile)
		}
		return nil
	}
	if !os.IsNotExist(err) || !create {
		return err
	}
	if err = os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", dir, err)
	}
	return nil
}
