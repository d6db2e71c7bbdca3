package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shoshlabs/shoshchat/internal/api"
)

type contextKey string

const TenantIDKey contextKey = "tenant_id"

// TenantHeader is the request header carrying the caller's tenant.
const TenantHeader = "X-Tenant-ID"

// RequireTenant extracts the tenant ID from the request header and stores it
// in the request context. Requests without one are rejected; every data
// operation downstream is tenant-scoped.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := strings.TrimSpace(r.Header.Get(TenantHeader))
		if tenantID == "" {
			api.Error(w, http.StatusUnauthorized, "missing "+TenantHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), TenantIDKey, tenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetTenantID returns the tenant ID from context.
func GetTenantID(ctx context.Context) string {
	tenantID, _ := ctx.Value(TenantIDKey).(string)
	return tenantID
}
