package oidc

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/buildreviewer/reviewer-services/internal/config"
	"github.com/buildreviewer/reviewer-services/pkg/logger"
	"github.com/buildreviewer/reviewer-services/pkg/middleware"
	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier checks ID tokens against an OIDC provider's published keys.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at issuer and verifies tokens for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// minRediscoverInterval bounds how often a lazy verifier retries discovery.
const minRediscoverInterval = 5 * time.Second

// LazyVerifier discovers its provider on first use and keeps retrying until
// discovery succeeds. Until then every Verify fails with
// middleware.ErrVerifierUnavailable, so protected routes stay closed.
type LazyVerifier struct {
	issuer   string
	clientID string
	discover func(ctx context.Context, issuer, clientID string) (*Verifier, error)

	mu          sync.Mutex
	verifier    *Verifier
	lastAttempt time.Time
	lastErr     error
}

func newLazyVerifier(issuer, clientID string) *LazyVerifier {
	return &LazyVerifier{issuer: issuer, clientID: clientID, discover: NewVerifier}
}

func (l *LazyVerifier) get(ctx context.Context) (*Verifier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.verifier != nil {
		return l.verifier, nil
	}
	if !l.lastAttempt.IsZero() && time.Since(l.lastAttempt) < minRediscoverInterval {
		return nil, fmt.Errorf("%w: %v", middleware.ErrVerifierUnavailable, l.lastErr)
	}
	l.lastAttempt = time.Now()
	v, err := l.discover(ctx, l.issuer, l.clientID)
	if err != nil {
		l.lastErr = err
		return nil, fmt.Errorf("%w: %v", middleware.ErrVerifierUnavailable, err)
	}
	logger.Infof("OIDC provider %s discovered", l.issuer)
	l.verifier = v
	return v, nil
}

func (l *LazyVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	v, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return v.Verify(ctx, raw)
}

// Ready attempts discovery if it has not succeeded yet.
func (l *LazyVerifier) Ready(ctx context.Context) bool {
	_, err := l.get(ctx)
	return err == nil
}

// IssuerURL returns the Keycloak realm issuer, or baseURL itself when no
// realm is configured (older deployments put the realm path in the URL).
func IssuerURL(baseURL, realm string) string {
	if realm == "" {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/realms/" + realm
}

// FromConfig builds the verifier used to protect write routes. It returns
// nil only when no provider is configured and insecure tokens are not
// allowed. A configured provider that cannot be discovered yet yields a
// LazyVerifier, never an open or insecure fallback.
func FromConfig(ctx context.Context, kc config.KeycloakConfig) middleware.Verifier {
	if kc.URL != "" && kc.ClientID != "" {
		issuer := IssuerURL(kc.URL, kc.Realm)
		v, err := NewVerifier(ctx, issuer, kc.ClientID)
		if err == nil {
			return v
		}
		logger.Warnf("OIDC provider %s unavailable, write routes answer 503 until discovery succeeds: %v", issuer, err)
		lv := newLazyVerifier(issuer, kc.ClientID)
		lv.lastAttempt, lv.lastErr = time.Now(), err
		return lv
	}
	if kc.AllowInsecure {
		logger.Warn("enabling insecure token verifier (integration mode)")
		return NewInsecureVerifier()
	}
	return nil
}
