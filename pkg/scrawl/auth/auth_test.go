package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/scrawlhq/scrawl/pkg/scrawl/models"
	"github.com/scrawlhq/scrawl/pkg/scrawl/web"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(web.Templates())
	r.Use(LoadUser(db))

	handler := NewHandler(db)
	handler.RegisterRoutes(r.Group("/auth"))
	r.POST("/api/auth/token", handler.Token)

	return r
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string) models.User {
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	user := models.User{
		Username:     username,
		Name:         "Test User",
		PasswordHash: hash,
		SystemRole:   models.SystemRoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func sessionCookieValue(resp *httptest.ResponseRecorder) string {
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == SessionCookie {
			return cookie.Value
		}
	}
	return ""
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "correcthorsebattery"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == password {
		t.Error("Hash should not equal the plaintext password")
	}

	if !CheckPassword(password, hash) {
		t.Error("CheckPassword should return true for correct password")
	}
	if CheckPassword("wrongpassword", hash) {
		t.Error("CheckPassword should return false for incorrect password")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42, "alice", "user")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("Expected user ID 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("Expected username alice, got %s", claims.Username)
	}

	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("Expected error for malformed token")
	}
}

func TestSignupCreatesUserAndSession(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	form := url.Values{
		"username": {"alice"},
		"name":     {"Alice"},
		"password": {"password123"},
	}
	resp := postForm(router, "/auth/signup", form)

	if resp.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != "/" {
		t.Errorf("Expected redirect to /, got %s", loc)
	}

	var user models.User
	if err := db.Where("username = ?", "alice").First(&user).Error; err != nil {
		t.Fatalf("Expected user to be created: %v", err)
	}
	if !CheckPassword("password123", user.PasswordHash) {
		t.Error("Stored hash should verify the submitted password")
	}

	token := sessionCookieValue(resp)
	if token == "" {
		t.Fatal("Expected session cookie to be set")
	}
	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("Session cookie should hold a valid token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("Expected token for user %d, got %d", user.ID, claims.UserID)
	}
}

func TestSignupRejectsDuplicateUsername(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestUser(t, db, "alice", "password123")

	form := url.Values{
		"username": {"alice"},
		"password": {"password456"},
	}
	resp := postForm(router, "/auth/signup", form)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "already taken") {
		t.Error("Expected duplicate username error")
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}
}

func TestSignupRejectsShortPassword(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	form := url.Values{
		"username": {"alice"},
		"password": {"short"},
	}
	resp := postForm(router, "/auth/signup", form)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "at least 8 characters") {
		t.Error("Expected password length error")
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no users, got %d", count)
	}
}

func TestLoginSetsSessionAndHonorsNext(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestUser(t, db, "alice", "password123")

	form := url.Values{
		"username": {"alice"},
		"password": {"password123"},
		"next":     {"/create"},
	}
	resp := postForm(router, "/auth/login", form)

	if resp.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != "/create" {
		t.Errorf("Expected redirect to /create, got %s", loc)
	}
	if sessionCookieValue(resp) == "" {
		t.Error("Expected session cookie to be set")
	}
}

func TestLoginIgnoresOffsiteNext(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestUser(t, db, "alice", "password123")

	form := url.Values{
		"username": {"alice"},
		"password": {"password123"},
		"next":     {"https://evil.example.com/"},
	}
	resp := postForm(router, "/auth/login", form)

	if resp.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/" {
		t.Errorf("Expected redirect to /, got %s", loc)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestUser(t, db, "alice", "password123")

	form := url.Values{
		"username": {"alice"},
		"password": {"wrongpassword"},
	}
	resp := postForm(router, "/auth/login", form)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Invalid username or password") {
		t.Error("Expected credentials error")
	}
	if sessionCookieValue(resp) != "" {
		t.Error("Expected no session cookie on failed login")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "alice", "password123")

	token, _ := GenerateToken(user.ID, user.Username, string(user.SystemRole))
	req, _ := http.NewRequest("GET", "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.Code)
	}

	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == SessionCookie && cookie.MaxAge >= 0 {
			t.Error("Expected session cookie to expire")
		}
	}
}

func TestTokenEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	user := createTestUser(t, db, "alice", "password123")

	body, _ := json.Marshal(TokenRequest{Username: "alice", Password: "password123"})
	req, _ := http.NewRequest("POST", "/api/auth/token", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var tokenResp TokenResponse
	json.Unmarshal(resp.Body.Bytes(), &tokenResp)
	claims, err := ValidateToken(tokenResp.Token)
	if err != nil {
		t.Fatalf("Expected valid token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("Expected token for user %d, got %d", user.ID, claims.UserID)
	}
}

func TestRequireLoginRedirects(t *testing.T) {
	db := setupTestDB(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoadUser(db))
	r.GET("/protected", RequireLogin(), func(c *gin.Context) {
		c.String(http.StatusOK, "granted")
	})

	req, _ := http.NewRequest("GET", "/protected?page=2", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != "/auth/login?next=%2Fprotected%3Fpage%3D2" {
		t.Errorf("Expected login redirect carrying the full URL, got %s", loc)
	}

	user := createTestUser(t, db, "alice", "password123")
	token, _ := GenerateToken(user.ID, user.Username, string(user.SystemRole))
	req, _ = http.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 for logged-in user, got %d", resp.Code)
	}
}
