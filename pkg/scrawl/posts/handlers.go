package posts

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scrawlhq/scrawl/pkg/scrawl/auth"
	"github.com/scrawlhq/scrawl/pkg/scrawl/models"
	"gorm.io/gorm"
)

// Handler handles feed and post pages
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new posts handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// FeedPageData holds data for the feed templates. Group and Author are set
// only on the group and profile feeds respectively.
type FeedPageData struct {
	Title       string
	CurrentUser *models.User
	Page        Page
	Group       *models.Group
	Author      *models.User
	PostCount   int64
}

// DetailPageData holds data for the post detail template
type DetailPageData struct {
	Title       string
	CurrentUser *models.User
	Post        models.Post
	IsAuthor    bool
}

// FormPageData holds data for the create/edit template. IsEdit switches the
// page title and submit label; Post is set only when editing.
type FormPageData struct {
	Title       string
	CurrentUser *models.User
	Form        *PostForm
	Groups      []models.Group
	IsEdit      bool
	Post        *models.Post
}

// NotFoundData holds data for the 404 template
type NotFoundData struct {
	Title       string
	CurrentUser *models.User
}

// Index renders the global feed
func (h *Handler) Index(c *gin.Context) {
	page, err := feedPage(h.db, pageNumber(c), "")
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	user, _ := auth.CurrentUser(c)
	c.HTML(http.StatusOK, "index.html", FeedPageData{
		Title:       "Latest posts",
		CurrentUser: user,
		Page:        page,
	})
}

// GroupFeed renders the feed for a single group, looked up by slug
func (h *Handler) GroupFeed(c *gin.Context) {
	var group models.Group
	if err := h.db.Where("slug = ?", c.Param("slug")).First(&group).Error; err != nil {
		NotFound(c)
		return
	}

	page, err := feedPage(h.db, pageNumber(c), "group_id = ?", group.ID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	user, _ := auth.CurrentUser(c)
	c.HTML(http.StatusOK, "group_list.html", FeedPageData{
		Title:       group.Title,
		CurrentUser: user,
		Page:        page,
		Group:       &group,
	})
}

// Profile renders the feed of a single author, looked up by username
func (h *Handler) Profile(c *gin.Context) {
	var author models.User
	if err := h.db.Where("username = ?", c.Param("username")).First(&author).Error; err != nil {
		NotFound(c)
		return
	}

	page, err := feedPage(h.db, pageNumber(c), "author_id = ?", author.ID)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	var count int64
	h.db.Model(&models.Post{}).Where("author_id = ?", author.ID).Count(&count)

	user, _ := auth.CurrentUser(c)
	c.HTML(http.StatusOK, "profile.html", FeedPageData{
		Title:       "Posts by " + author.Username,
		CurrentUser: user,
		Page:        page,
		Author:      &author,
		PostCount:   count,
	})
}

// Detail renders a single post
func (h *Handler) Detail(c *gin.Context) {
	post, ok := h.findPost(c)
	if !ok {
		return
	}

	user, _ := auth.CurrentUser(c)
	c.HTML(http.StatusOK, "post_detail.html", DetailPageData{
		Title:       "Post by " + post.Author.Username,
		CurrentUser: user,
		Post:        post,
		IsAuthor:    user != nil && user.ID == post.AuthorID,
	})
}

// CreateForm renders the empty create page
func (h *Handler) CreateForm(c *gin.Context) {
	h.renderForm(c, &PostForm{Errors: map[string]string{}}, nil)
}

// CreateSubmit handles the create form. On success the author lands on
// their own profile feed.
func (h *Handler) CreateSubmit(c *gin.Context) {
	form := &PostForm{
		Text:    c.PostForm("text"),
		GroupID: c.PostForm("group"),
	}

	groupID, ok := form.validate(h.db)
	if !ok {
		h.renderForm(c, form, nil)
		return
	}

	user, _ := auth.CurrentUser(c)
	post := models.Post{
		Text:     form.Text,
		PubDate:  time.Now(),
		AuthorID: user.ID,
		GroupID:  groupID,
	}
	if err := h.db.Create(&post).Error; err != nil {
		c.String(http.StatusInternalServerError, "Failed to create post")
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

// EditForm renders the edit page, prefilled with the post's current values.
// Non-authors are bounced to the post detail page untouched.
func (h *Handler) EditForm(c *gin.Context) {
	post, ok := h.findPost(c)
	if !ok {
		return
	}
	if !h.requireAuthor(c, post) {
		return
	}

	form := &PostForm{Text: post.Text, Errors: map[string]string{}}
	if post.GroupID != nil {
		form.GroupID = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	h.renderForm(c, form, &post)
}

// EditSubmit handles the edit form. Only text and group change; the post's
// id, author, and pub_date stay as they were.
func (h *Handler) EditSubmit(c *gin.Context) {
	post, ok := h.findPost(c)
	if !ok {
		return
	}
	if !h.requireAuthor(c, post) {
		return
	}

	form := &PostForm{
		Text:    c.PostForm("text"),
		GroupID: c.PostForm("group"),
	}

	groupID, ok := form.validate(h.db)
	if !ok {
		h.renderForm(c, form, &post)
		return
	}

	updates := map[string]interface{}{
		"text":     form.Text,
		"group_id": groupID,
	}
	if err := h.db.Model(&post).Updates(updates).Error; err != nil {
		c.String(http.StatusInternalServerError, "Failed to update post")
		return
	}

	c.Redirect(http.StatusFound, "/posts/"+strconv.FormatUint(uint64(post.ID), 10))
}

// NotFound renders the 404 page; also wired as the router's no-route handler
func NotFound(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	c.HTML(http.StatusNotFound, "notfound.html", NotFoundData{
		Title:       "Page not found",
		CurrentUser: user,
	})
}

// findPost loads the post addressed by the id path parameter, rendering the
// 404 page if it does not exist
func (h *Handler) findPost(c *gin.Context) (models.Post, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		NotFound(c)
		return models.Post{}, false
	}

	var post models.Post
	if err := h.db.Preload("Author").Preload("Group").First(&post, uint(id)).Error; err != nil {
		NotFound(c)
		return models.Post{}, false
	}
	return post, true
}

// requireAuthor redirects non-authors to the post detail page
func (h *Handler) requireAuthor(c *gin.Context, post models.Post) bool {
	userID, _ := auth.GetUserID(c)
	if userID != post.AuthorID {
		c.Redirect(http.StatusFound, "/posts/"+strconv.FormatUint(uint64(post.ID), 10))
		c.Abort()
		return false
	}
	return true
}

func (h *Handler) renderForm(c *gin.Context, form *PostForm, post *models.Post) {
	var groups []models.Group
	if err := h.db.Order("title").Find(&groups).Error; err != nil {
		c.String(http.StatusInternalServerError, "Failed to fetch groups")
		return
	}

	title := "New post"
	if post != nil {
		title = "Edit post"
	}

	user, _ := auth.CurrentUser(c)
	c.HTML(http.StatusOK, "post_form.html", FormPageData{
		Title:       title,
		CurrentUser: user,
		Form:        form,
		Groups:      groups,
		IsEdit:      post != nil,
		Post:        post,
	})
}

// RegisterRoutes registers the feed and post pages
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/", h.Index)
	rg.GET("/group/:slug", h.GroupFeed)
	rg.GET("/profile/:username", h.Profile)
	rg.GET("/posts/:id", h.Detail)

	rg.GET("/create", auth.RequireLogin(), h.CreateForm)
	rg.POST("/create", auth.RequireLogin(), h.CreateSubmit)
	rg.GET("/posts/:id/edit", auth.RequireLogin(), h.EditForm)
	rg.POST("/posts/:id/edit", auth.RequireLogin(), h.EditSubmit)
}
