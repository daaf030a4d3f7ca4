package jwtauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/nfl-pick-two/internal/domain/user"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/cache"
	"github.com/riskibarqy/nfl-pick-two/internal/platform/logging"
	"github.com/riskibarqy/nfl-pick-two/internal/usecase"
)

const principalCachePrefix = "jwt:principal:"

type Config struct {
	Secret   string
	Issuer   string
	Audience string
	CacheTTL time.Duration
}

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

type cachedPrincipal struct {
	principal user.Principal
	expiresAt time.Time
}

// Verifier validates HS256 bearer tokens issued by the account service.
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	cache    *cache.Store
	logger   *logging.Logger
	now      func() time.Time
}

func NewVerifier(cfg Config, logger *logging.Logger) *Verifier {
	if logger == nil {
		logger = logging.Default()
	}

	var store *cache.Store
	if cfg.CacheTTL > 0 {
		store = cache.NewStore(cfg.CacheTTL)
	}

	return &Verifier{
		secret:   []byte(strings.TrimSpace(cfg.Secret)),
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
		cache:    store,
		logger:   logger,
		now:      time.Now,
	}
}

func (v *Verifier) VerifyAccessToken(ctx context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, crerr.Wrap(usecase.ErrUnauthorized, "token is required")
	}
	if len(v.secret) == 0 {
		return user.Principal{}, crerr.Wrap(usecase.ErrDependencyUnavailable, "token verification is not configured")
	}

	key := principalCachePrefix + hashToken(token)
	if v.cache != nil {
		if raw, ok := v.cache.Get(ctx, key); ok {
			if entry, ok := raw.(cachedPrincipal); ok && v.now().Before(entry.expiresAt) {
				return entry.principal, nil
			}
			v.cache.Delete(ctx, key)
		}
	}

	parsed, err := v.parse(token)
	if err != nil {
		v.logger.DebugContext(ctx, "reject bearer token", "error", err)
		return user.Principal{}, err
	}

	principal := user.Principal{
		UserID: strings.TrimSpace(parsed.Subject),
		Email:  strings.TrimSpace(parsed.Email),
	}
	if principal.UserID == "" {
		return user.Principal{}, crerr.Wrap(usecase.ErrUnauthorized, "token subject is empty")
	}

	if v.cache != nil && parsed.ExpiresAt != nil {
		v.cache.Set(ctx, key, cachedPrincipal{principal: principal, expiresAt: parsed.ExpiresAt.Time})
	}
	return principal, nil
}

func (v *Verifier) parse(token string) (*claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case crerr.Is(err, jwt.ErrTokenExpired):
			return nil, crerr.Wrap(usecase.ErrUnauthorized, "token expired")
		case crerr.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, crerr.Wrap(usecase.ErrUnauthorized, "invalid token signature")
		case crerr.Is(err, jwt.ErrTokenInvalidIssuer), crerr.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, crerr.Wrap(usecase.ErrUnauthorized, "token issued for another service")
		default:
			return nil, crerr.Wrapf(usecase.ErrUnauthorized, "invalid token: %v", err)
		}
	}

	out, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, crerr.Wrap(usecase.ErrUnauthorized, "invalid token claims")
	}
	return out, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
