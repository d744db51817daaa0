package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/udacchi/attendance-management-sub000/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, path, pattern string, allowed ...string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	router.GET(pattern, func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
	}, RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)
	return w
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	w := performRBAC(t, claims, "/admin/users", "/admin/users", "ADMIN")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACRejectsOtherRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleEmployee}
	w := performRBAC(t, claims, "/admin/users", "/admin/users", "ADMIN")
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	w := performRBAC(t, nil, "/admin/users", "/admin/users", "ADMIN")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRBACSelfMatchesPathParam(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleEmployee}
	w := performRBAC(t, claims, "/users/user-1/days", "/users/:userId/days", "ADMIN", "SELF")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACSelfRejectsOtherUser(t *testing.T) {
	claims := &models.JWTClaims{UserID: "user-1", Role: models.RoleEmployee}
	w := performRBAC(t, claims, "/users/user-2/days", "/users/:userId/days", "ADMIN", "SELF")
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesAdmits(t *testing.T) {
	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	_, router := gin.CreateTestContext(w)
	router.GET("/admin", func(c *gin.Context) {
		c.Set(ContextUserKey, claims)
	}, RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, err := http.NewRequest(http.MethodGet, "/admin", nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
