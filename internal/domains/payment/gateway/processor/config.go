package processor

import (
	"fmt"
	"strings"
	"time"
)

// =====================================================
// PROCESSOR CONFIGURATION
// =====================================================

type Config struct {
	APIURL             string        // vd https://api.stripe.com
	SecretKey          string        // server-side API key
	WebhookSecret      string        // secret ký webhook
	Timeout            time.Duration // timeout cho mỗi call ra processor
	SignatureTolerance time.Duration // độ lệch tối đa của t= trong header
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("processor APIURL is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("processor SecretKey is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("processor WebhookSecret is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("processor Timeout must be positive")
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")
	return nil
}
