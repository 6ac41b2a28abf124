package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func routerWithSession(session *identity.Session, guards ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if session != nil {
			c.Set(SessionKey, *session)
		}
		c.Next()
	})
	router.Use(guards...)
	router.GET("/guarded", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRequireRole(t *testing.T) {
	tenantID := uuid.New()
	manager := identity.Session{AccountID: uuid.New(), Role: identity.RoleManager, TenantID: &tenantID}
	member := identity.Session{AccountID: uuid.New(), Role: identity.RoleMember, TenantID: &tenantID}
	admin := identity.Session{AccountID: uuid.New(), Role: identity.RoleSuperAdmin}

	tests := []struct {
		name    string
		session *identity.Session
		roles   []identity.Role
		status  int
	}{
		{"manager admitted", &manager, []identity.Role{identity.RoleManager}, http.StatusOK},
		{"member refused", &member, []identity.Role{identity.RoleManager}, http.StatusForbidden},
		{"any of several", &member, []identity.Role{identity.RoleManager, identity.RoleMember}, http.StatusOK},
		{"admin is not a manager", &admin, []identity.Role{identity.RoleManager}, http.StatusForbidden},
		{"no session", nil, []identity.Role{identity.RoleMember}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(routerWithSession(tt.session, RequireRole(tt.roles...)), http.MethodGet, "/guarded", "")
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusForbidden {
				assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
			}
		})
	}
}

func TestRequireRole_OnDenied(t *testing.T) {
	session := identity.Session{Role: identity.RoleMember}
	var required []identity.Role
	cfg := RoleConfig{OnDenied: func(c *gin.Context, roles []identity.Role) {
		required = roles
		c.AbortWithStatus(http.StatusTeapot)
	}}

	w := serve(routerWithSession(&session, RequireRoleWithConfig(cfg, identity.RoleSuperAdmin)), http.MethodGet, "/guarded", "")

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, []identity.Role{identity.RoleSuperAdmin}, required)
}

func TestRequireTenant(t *testing.T) {
	tenantID := uuid.New()
	withTenant := identity.Session{Role: identity.RoleMember, TenantID: &tenantID}
	admin := identity.Session{Role: identity.RoleSuperAdmin}

	assert.Equal(t, http.StatusOK, serve(routerWithSession(&withTenant, RequireTenant()), http.MethodGet, "/guarded", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(routerWithSession(&admin, RequireTenant()), http.MethodGet, "/guarded", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(routerWithSession(nil, RequireTenant()), http.MethodGet, "/guarded", "").Code)
}
