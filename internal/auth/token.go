package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
)

// TokenIssuer mints signed access tokens for the service identity.
type TokenIssuer struct {
	secret     []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret, algorithm string, defaultTTL time.Duration) (*TokenIssuer, error) {
	method, err := hmacMethod(algorithm)
	if err != nil {
		return nil, err
	}
	return &TokenIssuer{
		secret:     []byte(secret),
		method:     method,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Issue returns a token carrying identity as its subject. A ttl <= 0 falls
// back to the issuer's default lifetime.
func (i *TokenIssuer) Issue(identity string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.defaultTTL
	}
	now := i.now()

	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// TokenVerifier validates tokens produced by a TokenIssuer sharing the same
// secret and algorithm. It keeps no state: validity depends only on the
// signature, the expiry and the subject.
type TokenVerifier struct {
	secret   []byte
	method   jwt.SigningMethod
	identity string
	now      func() time.Time
}

func NewTokenVerifier(secret, algorithm, identity string) (*TokenVerifier, error) {
	method, err := hmacMethod(algorithm)
	if err != nil {
		return nil, err
	}
	return &TokenVerifier{
		secret:   []byte(secret),
		method:   method,
		identity: identity,
		now:      time.Now,
	}, nil
}

// Verify returns the identity embedded in token. Every failure is reported
// as the same authentication error; the cause stays in the chain for logs.
func (v *TokenVerifier) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return "", invalidToken(err)
	}

	if claims.Subject == "" || claims.Subject != v.identity {
		return "", invalidToken(fmt.Errorf("unexpected subject %q", claims.Subject))
	}
	return claims.Subject, nil
}

func invalidToken(cause error) error {
	return domain.NewError(domain.KindAuthentication, fmt.Errorf("%w: %w", domain.ErrInvalidToken, cause))
}

func hmacMethod(algorithm string) (jwt.SigningMethod, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	return method, nil
}
