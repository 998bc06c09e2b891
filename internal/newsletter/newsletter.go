// Package newsletter subscribes visitor emails to a mailing list through a
// hosted provider.
package newsletter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/zoptal/collabd/internal/config"
)

var (
	// ErrInvalidEmail indicates the address failed validation.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrProviderFailure indicates the upstream provider rejected or could
	// not process the subscription.
	ErrProviderFailure = errors.New("newsletter provider failure")
	// ErrUnknownProvider indicates an unrecognized provider name in config.
	ErrUnknownProvider = errors.New("unknown newsletter provider")
)

// Subscription is a single signup request.
type Subscription struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
}

// Provider subscribes an address to a mailing list.
type Provider interface {
	Subscribe(ctx context.Context, sub Subscription) error
	Name() string
}

// New builds the configured provider.
func New(cfg config.NewsletterConfig) (Provider, error) {
	switch cfg.Provider {
	case "mailchimp":
		return NewMailchimp(cfg.APIKey, cfg.ListID), nil
	case "convertkit":
		return NewConvertKit(cfg.APIKey, cfg.ListID), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// ValidateEmail rejects addresses the providers would bounce anyway.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidEmail, email)
	}
	return nil
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
