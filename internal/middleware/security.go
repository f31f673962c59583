package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/tributary-ai/llm-decision-engine/internal/security"
)

// SecurityConfig groups the security-related middleware configuration.
type SecurityConfig struct {
	Auth       *security.Config          `yaml:"auth"`
	RateLimit  *security.RateLimitConfig `yaml:"rate_limit"`
	Validation *ValidationConfig         `yaml:"validation"`
	CORS       CORSConfig                `yaml:"cors"`
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SecurityStack composes authentication, rate limiting, and request
// validation into one middleware chain.
type SecurityStack struct {
	authenticator *security.Authenticator
	rateLimiter   *security.RateLimiter
	validator     *ValidationMiddleware
	cors          CORSConfig
	logger        *logrus.Logger
}

// NewSecurityStack builds the stack. Components with nil config are
// left out of the chain.
func NewSecurityStack(config *SecurityConfig, logger *logrus.Logger) (*SecurityStack, error) {
	s := &SecurityStack{cors: config.CORS, logger: logger}

	if config.Auth != nil {
		s.authenticator = security.NewAuthenticator(config.Auth, logger)
	}
	if config.RateLimit != nil && config.RateLimit.Enabled {
		s.rateLimiter = security.NewRateLimiter(config.RateLimit, logger)
	}
	if config.Validation != nil {
		validator, err := NewValidationMiddleware(config.Validation, logger)
		if err != nil {
			return nil, err
		}
		s.validator = validator
	}

	return s, nil
}

// Handler returns the combined chain. Order matters: headers and CORS
// wrap everything, authentication runs before rate limiting so limits
// key on the caller, and schema validation runs last, just before the
// handler.
func (s *SecurityStack) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := next
		if s.validator != nil {
			handler = s.validator.Middleware(handler)
		}
		if s.rateLimiter != nil {
			handler = s.rateLimiter.Middleware()(handler)
		}
		if s.authenticator != nil {
			handler = s.authenticator.Middleware()(handler)
		}
		if s.cors.Enabled {
			handler = s.corsMiddleware()(handler)
		}
		return s.headersMiddleware()(handler)
	}
}

// Authenticator exposes the auth component for token issuance.
func (s *SecurityStack) Authenticator() *security.Authenticator {
	return s.authenticator
}

// Stop terminates background goroutines owned by the stack.
func (s *SecurityStack) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *SecurityStack) headersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			next.ServeHTTP(w, r)
		})
	}
}

func (s *SecurityStack) corsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			for _, allowed := range s.cors.AllowedOrigins {
				if origin != "" && (allowed == "*" || allowed == origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", "86400")
					break
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
