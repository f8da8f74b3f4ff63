// Package jwt authorizes the mutating endpoints. Avatar fetches are
// public; deletion and user-change notifications are restricted to the
// identity provider, which authenticates with a signed JWT.
package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/go-jose/go-jose/v4"
	"github.com/justinas/alice"

	"github.com/glyphd/glyphd/internal/audit"
	"github.com/glyphd/glyphd/internal/config"
)

// Middleware returns HTTP middleware that verifies the request JWT and
// enforces issuer and audience. Validated claims are recorded on the
// request's audit entry.
func Middleware(cfg config.AuthorizationConfig) (func(http.Handler) http.Handler, error) {
	if cfg.Disabled {
		// explicit opt-out for local development
		return alice.New().Then, nil
	}

	// static keys take precedence, allowing tests and air-gapped
	// deployments to avoid JWKS discovery
	keySource := remoteJWKS
	if cfg.ConfigurationStatic != "" {
		keySource = staticJWKS
	}

	issuerURL, keyFunc, err := keySource(cfg)
	if err != nil {
		return nil, err
	}

	jwtValidator, err := validator.New(
		keyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Audience},
		validator.WithAllowedClockSkew(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set up the validator: %w", err)
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(auditErrorHandler()),
	)

	return alice.New(middleware.CheckJWT, auditClaimsMiddleware()).Then, nil
}

// ClaimsFromContext returns the validated claims set by the JWT
// middleware, or nil when the request was not authorized.
func ClaimsFromContext(ctx context.Context) *validator.ValidatedClaims {
	claims, _ := ctx.Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	return claims
}

func auditClaimsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := audit.Log(r.Context())

			if claims := ClaimsFromContext(r.Context()); claims != nil {
				entry.Authorized = true
				entry.AuthSubject = claims.RegisteredClaims.Subject
			} else {
				entry.Error = "JWT claims missing from context"
			}

			next.ServeHTTP(w, r)
		})
	}
}

func auditErrorHandler() jwtmiddleware.ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		entry := audit.Log(r.Context())
		entry.Error = fmt.Sprintf("JWT authorization failure: %s", err.Error())

		jwtmiddleware.DefaultErrorHandler(w, r, err)
	}
}

type keyFunc = func(ctx context.Context) (any, error)

func remoteJWKS(cfg config.AuthorizationConfig) (url.URL, keyFunc, error) {
	issuerURL, err := url.Parse(cfg.IssuerURL)
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("failed to parse the issuer URL: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	return *issuerURL, provider.KeyFunc, nil
}

func staticJWKS(cfg config.AuthorizationConfig) (url.URL, keyFunc, error) {
	issuerURL, err := url.Parse(cfg.IssuerURL)
	if err != nil {
		return url.URL{}, nil, fmt.Errorf("failed to parse the issuer URL: %w", err)
	}

	var keySet jose.JSONWebKeySet
	if err := json.Unmarshal([]byte(cfg.ConfigurationStatic), &keySet); err != nil {
		return url.URL{}, nil, fmt.Errorf("could not decode jwks: %w", err)
	}
	if len(keySet.Keys) == 0 {
		return url.URL{}, nil, fmt.Errorf("static jwks defines no keys")
	}

	// the validator verifies against the raw public key
	key := keySet.Keys[0].Key
	fn := func(_ context.Context) (any, error) { return key, nil }

	return *issuerURL, fn, nil
}
