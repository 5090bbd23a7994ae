package users

import (
	"net/http"

	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"gorm.io/gorm"
)

// TagController serves the tag catalog. Admins need it to pick an
// associated_tag_id when creating tag badges; users need it for question
// filters.
type TagController struct {
	DB *gorm.DB
}

func NewTagController(db *gorm.DB) *TagController {
	return &TagController{DB: db}
}

func (c *TagController) List(w http.ResponseWriter, r *http.Request) {
	var tags []models.Tag
	if err := c.DB.Order("name ASC").Find(&tags).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: tags})
}
