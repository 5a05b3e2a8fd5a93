// Package identity supplies the stable device identity the gobox backend
// keys a box by.
//
// The token is computed lazily on first request and cached for the life of
// the process. It is never invalidated. A failed computation is not cached,
// so a later call retries.
package identity

import (
	"context"
	"sync"
	"sync/atomic"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Provider memoizes the result of a Fingerprinter.
type Provider struct {
	fp    Fingerprinter
	log   *zap.Logger
	group singleflight.Group
	token atomic.Pointer[string]
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProvider returns a provider that computes its token with fp.
func NewProvider(fp Fingerprinter, opts ...Option) *Provider {
	p := &Provider{fp: fp, log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

var defaultProvider = sync.OnceValue(func() *Provider {
	return NewProvider(NewHostFingerprinter(DefaultAppID))
})

// Default returns the process-wide provider backed by the host fingerprint.
func Default() *Provider {
	return defaultProvider()
}

// ForConfig returns the provider for the configured app id and fingerprint
// override. With neither set it is Default.
func ForConfig(appID, fingerprint string, opts ...Option) *Provider {
	switch {
	case fingerprint != "":
		return NewProvider(Static(fingerprint), opts...)
	case appID != "" && appID != DefaultAppID:
		return NewProvider(NewHostFingerprinter(appID), opts...)
	}
	p := Default()
	for _, o := range opts {
		o(p)
	}
	return p
}

// Identity returns the cached token, computing it on first use. Concurrent
// first calls share a single computation.
func (p *Provider) Identity(ctx context.Context) (string, error) {
	if t := p.token.Load(); t != nil {
		return *t, nil
	}

	v, err, _ := p.group.Do("identity", func() (any, error) {
		if t := p.token.Load(); t != nil {
			return *t, nil
		}
		tok, err := p.fp.Fingerprint(ctx)
		if err != nil {
			p.log.Warn("fingerprint failed", zap.Error(err))
			return "", apperrors.New(apperrors.KindIdentityUnavailable, "fingerprint", err)
		}
		if tok == "" {
			return "", apperrors.Newf(apperrors.KindIdentityUnavailable, "fingerprint", "empty fingerprint")
		}
		p.token.Store(&tok)
		p.log.Info("device fingerprint generated", zap.String("fingerprint", tok))
		return tok, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Cached returns the token if it has already been computed.
func (p *Provider) Cached() (string, bool) {
	if t := p.token.Load(); t != nil {
		return *t, true
	}
	return "", false
}
