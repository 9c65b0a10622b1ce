package controllers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/veinview/backend/internal/config"
	"github.com/veinview/backend/internal/database"
	"github.com/veinview/backend/internal/middleware"
)

const testSecret = "test-secret"

func TestLoginWithSeededAdmin(t *testing.T) {
	db := testDB(t)
	cfg := &config.Config{
		AdminEmail:    "professor@example.com",
		AdminPassword: "admin123",
		AdminFullName: "Administrator",
	}
	if err := database.SeedAdmin(db, cfg, zap.NewNop()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	ctrl := &AuthController{DB: db, JWTSecret: testSecret, ExpiresIn: time.Hour}
	r := gin.New()
	r.POST("/api/v1/auth/login", ctrl.Login)
	r.GET("/api/v1/auth/me", middleware.Auth(db, testSecret), ctrl.Me)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "professor@example.com",
		"password": "admin123",
	}, nil)
	wantStatus(t, w, http.StatusOK)
	resp := decode(t, w)
	token, _ := resp["access_token"].(string)
	if token == "" {
		t.Fatal("no access_token in login response")
	}
	user := resp["user"].(map[string]interface{})
	if user["role"] != "admin" {
		t.Errorf("seeded role = %v, want admin", user["role"])
	}

	// Seeding twice does not duplicate the account.
	if err := database.SeedAdmin(db, cfg, zap.NewNop()); err != nil {
		t.Fatalf("re-seed admin: %v", err)
	}

	// The token authenticates against the protected surface.
	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	wantStatus(t, w, http.StatusOK)
	if decode(t, w)["email"] != "professor@example.com" {
		t.Error("me returned the wrong account")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := testDB(t)
	cfg := &config.Config{
		AdminEmail:    "professor@example.com",
		AdminPassword: "admin123",
		AdminFullName: "Administrator",
	}
	if err := database.SeedAdmin(db, cfg, zap.NewNop()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	ctrl := &AuthController{DB: db, JWTSecret: testSecret, ExpiresIn: time.Hour}
	r := gin.New()
	r.POST("/api/v1/auth/login", ctrl.Login)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "professor@example.com",
		"password": "wrong",
	}, nil)
	wantStatus(t, w, http.StatusUnauthorized)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", map[string]interface{}{
		"email":    "nobody@example.com",
		"password": "admin123",
	}, nil)
	wantStatus(t, w, http.StatusUnauthorized)
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	db := testDB(t)
	r := gin.New()
	r.GET("/protected", middleware.Auth(db, testSecret), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doJSON(t, r, http.MethodGet, "/protected", nil, nil)
	wantStatus(t, w, http.StatusUnauthorized)

	w = doJSON(t, r, http.MethodGet, "/protected", nil, map[string]string{
		"Authorization": "Bearer not.a.jwt",
	})
	wantStatus(t, w, http.StatusUnauthorized)
}
