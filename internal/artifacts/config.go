// Package artifacts uploads simulation files to an S3 compatible object
// store.
package artifacts

import (
	"fmt"
	"strings"
)

const DefaultBucket = "mcerd-runs"

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Enabled reports whether an endpoint has been configured at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("object store endpoint is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("object store endpoint must be host[:port], got %q", c.Endpoint)
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("object store credentials are required")
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("object store bucket is required")
	}
	return nil
}
