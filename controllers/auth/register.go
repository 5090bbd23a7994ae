package auth

import (
	"net/http"

	"github.com/Spark-Project-Pulse/backend/database"
	"github.com/Spark-Project-Pulse/backend/middleware"
	"github.com/Spark-Project-Pulse/backend/models"
	"github.com/Spark-Project-Pulse/backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Username        string `json:"username" validate:"required,username"`
	Password        string `json:"password" validate:"required,pwdmin"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB

	// Username must be free
	var existing models.User
	err := db.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Username is already taken"})
		return
	}
	if err != gorm.ErrRecordNotFound {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	user := models.User{
		Username: req.Username,
		Password: string(hash),
		Role:     "user",
	}
	if err := db.Create(&user).Error; err != nil {
		// race on the unique index
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Username is already taken"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Registration successful",
		Data: map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
		},
	})
}
