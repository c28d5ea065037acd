package posts

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/scrawlhq/scrawl/pkg/scrawl/models"
	"gorm.io/gorm"
)

// PageSize is the fixed number of posts per feed page
const PageSize = 10

// Page is one window of a feed, newest first.
type Page struct {
	Posts      []models.Post
	Number     int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// PrevNumber returns the previous page number for paginator links
func (p Page) PrevNumber() int { return p.Number - 1 }

// NextNumber returns the next page number for paginator links
func (p Page) NextNumber() int { return p.Number + 1 }

// feedPage returns page number of the posts matching cond, ordered by
// pub_date descending. Pages past the end come back empty, not as an error.
func feedPage(db *gorm.DB, number int, cond string, args ...interface{}) (Page, error) {
	if number < 1 {
		number = 1
	}

	base := func() *gorm.DB {
		q := db.Model(&models.Post{})
		if cond != "" {
			q = q.Where(cond, args...)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return Page{}, err
	}
	totalPages := int((total + PageSize - 1) / PageSize)

	var items []models.Post
	err := base().
		Preload("Author").
		Preload("Group").
		Order("pub_date DESC, id DESC").
		Offset((number - 1) * PageSize).
		Limit(PageSize).
		Find(&items).Error
	if err != nil {
		return Page{}, err
	}

	return Page{
		Posts:      items,
		Number:     number,
		TotalPages: totalPages,
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
	}, nil
}

// pageNumber reads the page query parameter; absent or invalid values
// select page 1
func pageNumber(c *gin.Context) int {
	number, err := strconv.Atoi(c.Query("page"))
	if err != nil || number < 1 {
		return 1
	}
	return number
}
