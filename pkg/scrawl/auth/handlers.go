package auth

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/scrawlhq/scrawl/pkg/scrawl/models"
	"gorm.io/gorm"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Handler handles authentication requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// LoginPageData holds data for the login template
type LoginPageData struct {
	Title       string
	CurrentUser *models.User
	Username    string
	Next        string
	FormError   string
}

// SignupPageData holds data for the signup template
type SignupPageData struct {
	Title       string
	CurrentUser *models.User
	Username    string
	Name        string
	Errors      map[string]string
}

// TokenRequest represents the JSON login request for the admin API
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents the JSON login response
type TokenResponse struct {
	Token string `json:"token"`
}

// LoginForm renders the login page
func (h *Handler) LoginForm(c *gin.Context) {
	user, _ := CurrentUser(c)
	c.HTML(http.StatusOK, "login.html", LoginPageData{
		Title:       "Log in",
		CurrentUser: user,
		Next:        sanitizeNext(c.Query("next")),
	})
}

// Login handles the login form submission. On success it sets the session
// cookie and returns the user to the page they came from.
func (h *Handler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := sanitizeNext(c.PostForm("next"))

	fail := func() {
		current, _ := CurrentUser(c)
		c.HTML(http.StatusOK, "login.html", LoginPageData{
			Title:       "Log in",
			CurrentUser: current,
			Username:    username,
			Next:        next,
			FormError:   "Invalid username or password",
		})
	}

	var user models.User
	if err := h.db.Where("username = ?", username).First(&user).Error; err != nil {
		fail()
		return
	}
	if !CheckPassword(password, user.PasswordHash) {
		fail()
		return
	}

	token, err := GenerateToken(user.ID, user.Username, string(user.SystemRole))
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to start session")
		return
	}
	setSessionCookie(c, token)

	if next == "" {
		next = "/"
	}
	c.Redirect(http.StatusFound, next)
}

// SignupForm renders the registration page
func (h *Handler) SignupForm(c *gin.Context) {
	user, _ := CurrentUser(c)
	c.HTML(http.StatusOK, "signup.html", SignupPageData{
		Title:       "Sign up",
		CurrentUser: user,
		Errors:      map[string]string{},
	})
}

// Signup handles the registration form submission
func (h *Handler) Signup(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	name := strings.TrimSpace(c.PostForm("name"))
	password := c.PostForm("password")

	errs := map[string]string{}
	if username == "" {
		errs["username"] = "Username is required"
	} else if !usernameRegex.MatchString(username) {
		errs["username"] = "Username may contain only letters, numbers, hyphens, and underscores"
	} else {
		var existing models.User
		if err := h.db.Where("username = ?", username).First(&existing).Error; err == nil {
			errs["username"] = "This username is already taken"
		}
	}
	if len(password) < 8 {
		errs["password"] = "Password must be at least 8 characters"
	}

	if len(errs) > 0 {
		user, _ := CurrentUser(c)
		c.HTML(http.StatusOK, "signup.html", SignupPageData{
			Title:       "Sign up",
			CurrentUser: user,
			Username:    username,
			Name:        name,
			Errors:      errs,
		})
		return
	}

	hashedPassword, err := HashPassword(password)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := models.User{
		Username:     username,
		Name:         name,
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleUser,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.String(http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := GenerateToken(user.ID, user.Username, string(user.SystemRole))
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to start session")
		return
	}
	setSessionCookie(c, token)

	c.Redirect(http.StatusFound, "/")
}

// Logout clears the session cookie
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

// Token handles JSON login for the admin API and returns a bearer token
func (h *Handler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}
	if !CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := GenerateToken(user.ID, user.Username, string(user.SystemRole))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// RegisterRoutes registers the session login/signup/logout pages
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/login", h.LoginForm)
	rg.POST("/login", h.Login)
	rg.GET("/signup", h.SignupForm)
	rg.POST("/signup", h.Signup)
	rg.GET("/logout", h.Logout)
}

func setSessionCookie(c *gin.Context, token string) {
	c.SetCookie(SessionCookie, token, int(getTokenDuration().Seconds()), "/", "", false, true)
}

// sanitizeNext keeps redirects on-site: only local paths survive
func sanitizeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}
