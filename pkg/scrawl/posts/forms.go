package posts

import (
	"strconv"
	"strings"

	"github.com/scrawlhq/scrawl/pkg/scrawl/models"
	"gorm.io/gorm"
)

// PostForm carries user input for the create and edit pages, plus any
// per-field errors for redisplay.
type PostForm struct {
	Text    string
	GroupID string
	Errors  map[string]string
}

// validate checks the form and resolves the optional group reference.
// A post may only point at a group that exists at write time.
func (f *PostForm) validate(db *gorm.DB) (groupID *uint, ok bool) {
	f.Errors = map[string]string{}

	if strings.TrimSpace(f.Text) == "" {
		f.Errors["text"] = "Text is required"
	}

	if f.GroupID != "" {
		id, err := strconv.ParseUint(f.GroupID, 10, 32)
		if err != nil {
			f.Errors["group"] = "Choose a valid group"
		} else {
			var group models.Group
			if err := db.First(&group, uint(id)).Error; err != nil {
				f.Errors["group"] = "Choose a valid group"
			} else {
				gid := uint(id)
				groupID = &gid
			}
		}
	}

	return groupID, len(f.Errors) == 0
}
