package check

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/net/idna"
)

// DomainResolver looks up mail exchangers and addresses. *net.Resolver satisfies it.
type DomainResolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// EmailValidator checks that an address is well formed and, when a resolver is
// configured, that its domain can receive mail.
type EmailValidator struct {
	resolver DomainResolver
	timeout  time.Duration
	profile  *idna.Profile
}

// NewEmailValidator creates a validator. A nil resolver disables the DNS lookup;
// a zero timeout defaults to two seconds.
func NewEmailValidator(resolver DomainResolver, timeout time.Duration) *EmailValidator {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &EmailValidator{
		resolver: resolver,
		timeout:  timeout,
		profile: idna.New(
			idna.MapForLookup(),
			idna.BidiRule(),
			idna.ValidateLabels(true),
			idna.StrictDomainName(true),
			idna.Transitional(false),
		),
	}
}

// Validate returns nil when address passes every check.
func (v *EmailValidator) Validate(address string) error {
	if address == "" {
		return errors.New("empty address")
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return err
	}
	if parsed.Name != "" || parsed.Address != address {
		return errors.New("address must not carry a display name")
	}

	at := strings.LastIndexByte(address, '@')
	local, domain := address[:at], address[at+1:]
	if len(local) == 0 || len(local) > 64 {
		return errors.New("local part length out of range")
	}

	ascii, err := v.profile.ToASCII(domain)
	if err != nil {
		return fmt.Errorf("domain %q: %w", domain, err)
	}
	if !strings.Contains(ascii, ".") || len(ascii) > 253 {
		return fmt.Errorf("domain %q is not a fully qualified name", domain)
	}

	if v.resolver == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if mx, err := v.resolver.LookupMX(ctx, ascii); err == nil && len(mx) > 0 {
		return nil
	}
	if hosts, err := v.resolver.LookupHost(ctx, ascii); err == nil && len(hosts) > 0 {
		return nil
	}
	return fmt.Errorf("domain %q does not resolve", ascii)
}
