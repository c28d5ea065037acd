package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/scrawlhq/scrawl/pkg/scrawl/admin"
	"github.com/scrawlhq/scrawl/pkg/scrawl/auth"
	"github.com/scrawlhq/scrawl/pkg/scrawl/database"
	"github.com/scrawlhq/scrawl/pkg/scrawl/models"
	"github.com/scrawlhq/scrawl/pkg/scrawl/posts"
	"github.com/scrawlhq/scrawl/pkg/scrawl/web"
)

func main() {
	// Load .env if present; real env vars win
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Get database location from environment or use default
	dbPath := os.Getenv("SCRAWL_DB_PATH")
	if dbPath == "" {
		dbPath = "scrawl.db"
	}

	// Connect to database (postgres when DATABASE_URL is set, sqlite otherwise)
	if err := database.Connect(dbPath, os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Create default admin user if no admin exists
	if err := ensureAdminExists(); err != nil {
		log.Fatalf("Failed to ensure admin user exists: %v", err)
	}

	// Set up Gin router
	r := gin.Default()
	r.SetHTMLTemplate(web.Templates())

	db := database.GetDB()
	r.Use(auth.LoadUser(db))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Static assets
	if _, err := os.Stat("./static"); err == nil {
		r.Static("/static", "./static")
	}

	// Session auth pages
	authHandler := auth.NewHandler(db)
	authHandler.RegisterRoutes(r.Group("/auth"))

	// Feeds and post pages
	postsHandler := posts.NewHandler(db)
	postsHandler.RegisterRoutes(r.Group(""))

	// API routes (bearer token)
	api := r.Group("/api")
	{
		api.POST("/auth/token", authHandler.Token)

		// Admin routes (admin role required)
		adminHandler := admin.NewHandler(db)
		adminGroup := api.Group("/admin")
		adminGroup.Use(auth.BearerAuthMiddleware(), auth.RequireAdmin())
		adminHandler.RegisterRoutes(adminGroup)
	}

	// Everything else gets the rendered 404 page
	r.NoRoute(posts.NotFound)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting Scrawl server on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureAdminExists creates a default admin user if no admin exists in the
// database. Groups are only manageable through the admin API, so a fresh
// install needs one.
func ensureAdminExists() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).Where("system_role = ?", models.SystemRoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	adminUser := models.User{
		Username:     "admin",
		Name:         "Admin",
		PasswordHash: hashedPassword,
		SystemRole:   models.SystemRoleAdmin,
	}
	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.Printf("Created default admin user: admin (password: changeme)")
	return nil
}
