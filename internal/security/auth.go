package security

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type contextKey string

// CallerKey is the request-context key carrying the authenticated caller.
const CallerKey contextKey = "caller"

// Config holds authentication configuration.
type Config struct {
	APIKeys     []string      `yaml:"api_keys"`
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTExpiry   time.Duration `yaml:"jwt_expiry"`
	RequireAuth bool          `yaml:"require_auth"`
}

// Caller identifies an authenticated API consumer.
type Caller struct {
	ID       string `json:"id"`
	AuthType string `json:"auth_type"` // "api_key" or "jwt"
}

// Claims are the JWT claims issued for service-to-service callers.
type Claims struct {
	Scope []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates API keys and JWT bearer tokens for the
// decision endpoints.
type Authenticator struct {
	config *Config
	logger *logrus.Logger
}

// NewAuthenticator creates an authenticator with sane expiry defaults.
func NewAuthenticator(config *Config, logger *logrus.Logger) *Authenticator {
	if config.JWTExpiry == 0 {
		config.JWTExpiry = 24 * time.Hour
	}
	return &Authenticator{config: config, logger: logger}
}

// VerifyAPIKey checks a key against the configured set in constant time.
func (a *Authenticator) VerifyAPIKey(apiKey string) (*Caller, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	for _, valid := range a.config.APIKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(valid)) == 1 {
			return &Caller{ID: callerID(apiKey), AuthType: "api_key"}, nil
		}
	}
	a.logger.WithField("key_prefix", MaskKey(apiKey)).Warn("Invalid API key attempted")
	return nil, errors.New("invalid api key")
}

// IssueToken mints a signed JWT for a subject with the given scope.
func (a *Authenticator) IssueToken(subject string, scope []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "llm-decision-engine",
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.config.JWTExpiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.config.JWTSecret))
}

// VerifyToken validates a JWT and returns its claims.
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// authenticate accepts either credential form.
func (a *Authenticator) authenticate(token string) (*Caller, error) {
	if caller, err := a.VerifyAPIKey(token); err == nil {
		return caller, nil
	}
	if claims, err := a.VerifyToken(token); err == nil {
		return &Caller{ID: claims.Subject, AuthType: "jwt"}, nil
	}
	return nil, errors.New("invalid authentication token")
}

// Middleware enforces authentication on the decision endpoints. Health
// and documentation routes stay open.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || strings.HasPrefix(r.URL.Path, "/docs") {
				next.ServeHTTP(w, r)
				return
			}
			if !a.config.RequireAuth {
				next.ServeHTTP(w, r)
				return
			}

			token := TokenFromRequest(r)
			if token == "" {
				writeUnauthorized(w, "missing authentication token")
				return
			}

			caller, err := a.authenticate(token)
			if err != nil {
				a.logger.WithFields(logrus.Fields{
					"path":      r.URL.Path,
					"remote_ip": ClientIP(r),
				}).Warn("Authentication failed")
				writeUnauthorized(w, "invalid authentication token")
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext extracts the authenticated caller, if any.
func CallerFromContext(ctx context.Context) (*Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(*Caller)
	return caller, ok
}

// TokenFromRequest pulls the credential from the Authorization or
// X-API-Key header.
func TokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// ClientIP resolves the originating address, honoring proxy headers.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndex(ip, ":"); i != -1 {
		ip = ip[:i]
	}
	return ip
}

// MaskKey redacts a credential for log output.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****"
}

func callerID(apiKey string) string {
	if len(apiKey) >= 8 {
		return "key_" + apiKey[:8]
	}
	return "key_" + apiKey
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":{"message":"%s","type":"authentication_error","code":401},"timestamp":%d}`, message, time.Now().Unix())
}
