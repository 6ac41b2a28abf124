package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_LabelsHandlerContext(t *testing.T) {
	tenantID := uuid.New()
	labels := map[string]string{}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(SessionKey, identity.Session{Role: identity.RoleManager, TenantID: &tenantID})
		c.Next()
	})
	router.Use(Profiling(true))
	router.GET("/api/v1/mess/balances", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(k, v string) bool {
			labels[k] = v
			return true
		})
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/mess/balances", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "GET", labels["method"])
	assert.Equal(t, "/api/v1/mess/balances", labels["route"])
	assert.Equal(t, tenantID.String(), labels["tenant_id"])
}

func TestProfiling_Disabled(t *testing.T) {
	var labelled bool

	router := gin.New()
	router.Use(Profiling(false))
	router.GET("/health", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(string, string) bool {
			labelled = true
			return false
		})
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.False(t, labelled)
}
