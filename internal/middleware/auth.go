package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pkordes/fleet-hos/internal/domain"
)

type contextKey string

const (
	tenantKey       contextKey = "tenant"
	tenantHolderKey contextKey = "tenant_holder"
)

// TenantClaims are the token claims that carry the tenant scope. The subject
// is the user ID.
type TenantClaims struct {
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}

// NewTenantAuth returns a middleware that requires an HS256 bearer token
// carrying a company_id claim and stores the resolved domain.Tenant in the
// request context.
func NewTenantAuth(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, err := parseBearer(r.Header.Get("Authorization"), secret)
			if err != nil {
				log.WarnContext(r.Context(), "rejected token", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
				return
			}
			if h, ok := r.Context().Value(tenantHolderKey).(*tenantHolder); ok {
				h.tenant, h.set = tenant, true
			}
			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

func parseBearer(header string, secret []byte) (domain.Tenant, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return domain.Tenant{}, errors.New("no bearer token")
	}

	var claims TenantClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Tenant{}, err
	}

	companyID, err := uuid.Parse(claims.CompanyID)
	if err != nil {
		return domain.Tenant{}, errors.New("company_id claim is not a uuid")
	}
	t := domain.Tenant{CompanyID: companyID}
	if claims.Subject != "" {
		if userID, err := uuid.Parse(claims.Subject); err == nil {
			t.UserID = userID
		}
	}
	return t, t.Validate()
}

// SignTenantToken issues an HS256 token for t that expires after ttl.
func SignTenantToken(secret []byte, t domain.Tenant, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TenantClaims{
		CompanyID: t.CompanyID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if t.UserID != uuid.Nil {
		claims.Subject = t.UserID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// WithTenant returns a copy of ctx carrying t.
func WithTenant(ctx context.Context, t domain.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// TenantFromContext returns the tenant stored by NewTenantAuth.
func TenantFromContext(ctx context.Context) (domain.Tenant, bool) {
	t, ok := ctx.Value(tenantKey).(domain.Tenant)
	return t, ok
}

type tenantHolder struct {
	tenant domain.Tenant
	set    bool
}

func withTenantHolder(ctx context.Context, h *tenantHolder) context.Context {
	return context.WithValue(ctx, tenantHolderKey, h)
}

// writeError writes the API's JSON error body.
func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}
