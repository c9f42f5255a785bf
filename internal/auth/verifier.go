package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// VerifierConfig holds configuration for JWT verification.
type VerifierConfig struct {
	// Algorithm is "RS256" or "HS256"
	Algorithm string

	// RS256 keys: a PEM public key, a JWKS endpoint, or both
	PublicKeyPEM string
	JWKSURL      string

	// HS256 shared secret
	SecretKey string

	// JWKSRefreshInterval bounds how often an unknown kid triggers a refetch.
	JWKSRefreshInterval time.Duration
}

// JWK represents a JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSet represents a JSON Web Key Set.
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// Verifier handles JWT token verification.
type Verifier struct {
	config    VerifierConfig
	publicKey *rsa.PublicKey

	mu        sync.RWMutex
	jwks      map[string]*rsa.PublicKey
	lastFetch time.Time

	httpClient *http.Client
}

// NewVerifier creates a JWT verifier and loads its keys.
func NewVerifier(ctx context.Context, config VerifierConfig) (*Verifier, error) {
	if config.JWKSRefreshInterval <= 0 {
		config.JWKSRefreshInterval = 5 * time.Minute
	}
	v := &Verifier{
		config:     config,
		jwks:       make(map[string]*rsa.PublicKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	switch config.Algorithm {
	case "RS256":
		if config.PublicKeyPEM == "" && config.JWKSURL == "" {
			return nil, fmt.Errorf("RS256 requires a public key or a JWKS URL")
		}
		if config.PublicKeyPEM != "" {
			key, err := parsePublicKeyPEM(config.PublicKeyPEM)
			if err != nil {
				return nil, fmt.Errorf("failed to load public key from PEM: %w", err)
			}
			v.publicKey = key
		}
		if config.JWKSURL != "" {
			if err := v.refreshJWKS(ctx); err != nil {
				return nil, fmt.Errorf("failed to fetch initial JWKS: %w", err)
			}
		}
	case "HS256":
		if config.SecretKey == "" {
			return nil, fmt.Errorf("HS256 requires secret key")
		}
	default:
		return nil, fmt.Errorf("unsupported algorithm: %q", config.Algorithm)
	}

	return v, nil
}

// VerifyToken verifies a JWT and returns its claims. All failures wrap
// ErrInvalidToken.
func (v *Verifier) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	mapClaims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (any, error) {
		return v.keyFor(ctx, token)
	}, jwt.WithValidMethods([]string{v.config.Algorithm}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, err := claimsFromMap(mapClaims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (v *Verifier) keyFor(ctx context.Context, token *jwt.Token) (any, error) {
	if v.config.Algorithm == "HS256" {
		return []byte(v.config.SecretKey), nil
	}

	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		if v.publicKey == nil {
			return nil, fmt.Errorf("no public key available")
		}
		return v.publicKey, nil
	}
	return v.jwksKey(ctx, kid)
}

func (v *Verifier) jwksKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.jwks[kid]
	stale := time.Since(v.lastFetch) > v.config.JWKSRefreshInterval
	v.mu.RUnlock()

	if ok {
		return key, nil
	}
	if v.config.JWKSURL == "" || !stale {
		return nil, fmt.Errorf("key not found: %s", kid)
	}

	// Unknown kid after the refresh interval: the issuer may have rotated.
	if err := v.refreshJWKS(ctx); err != nil {
		return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key, ok := v.jwks[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("key not found: %s", kid)
}

// refreshJWKS fetches the key set and swaps it in.
func (v *Verifier) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.JWKSURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS fetch failed with status: %d", resp.StatusCode)
	}

	var set JWKSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Kty != "RSA" || jwk.Alg != "RS256" || (jwk.Use != "" && jwk.Use != "sig") {
			continue
		}
		key, err := jwk.publicKey()
		if err != nil {
			continue
		}
		keys[jwk.Kid] = key
	}

	v.mu.Lock()
	v.jwks = keys
	v.lastFetch = time.Now()
	v.mu.Unlock()
	return nil
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	sub, err := m.GetSubject()
	if err != nil || sub == "" {
		return nil, fmt.Errorf("missing or invalid 'sub' claim")
	}

	roles, err := stringSlice(m, "roles")
	if err != nil {
		return nil, err
	}
	scopes, err := stringSlice(m, "scopes")
	if err != nil {
		return nil, err
	}

	if len(roles) == 0 {
		return nil, fmt.Errorf("no roles granted")
	}
	for _, role := range roles {
		if !slices.Contains(validRoles, role) {
			return nil, fmt.Errorf("invalid role: %q", role)
		}
	}
	for _, scope := range scopes {
		if !slices.Contains(validScopes, scope) {
			return nil, fmt.Errorf("invalid scope: %q", scope)
		}
	}

	return &Claims{Subject: sub, Roles: roles, Scopes: scopes}, nil
}

func stringSlice(m jwt.MapClaims, key string) ([]string, error) {
	value, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("missing claim: %s", key)
	}

	switch val := value.(type) {
	case []string:
		return val, nil
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid %s claim: not a string", key)
			}
			out[i] = s
		}
		return out, nil
	case string:
		// Space-delimited scope strings (RFC 8693 style).
		return strings.Fields(val), nil
	default:
		return nil, fmt.Errorf("invalid %s claim: not a string array", key)
	}
}

func parsePublicKeyPEM(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPub, nil
}

func (k JWK) publicKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(k.N, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(k.E, "="))
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var exp int
	for _, b := range e {
		exp = exp<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: exp}, nil
}
