package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"dormportal-backend/internal/model"
)

type signUpRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	ApartmentNumber string `json:"apartmentNumber" binding:"required"`
	DormID          string `json:"dormId" binding:"required"`
}

// SignUp handles POST /api/auth/signup.
func (h *Handler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, ok := h.reg.Get(req.DormID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown residence"})
		return
	}
	if !res.ValidRoom(req.ApartmentNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": res.RoomDescription})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please retry"})
		return
	}

	user := model.User{
		ID:              uuid.NewString(),
		Email:           req.Email,
		PasswordHash:    string(hash),
		ApartmentNumber: req.ApartmentNumber,
		DormID:          res.ID,
	}
	if err := h.store.DB().Create(&user).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "an account with this email already exists"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"userId": user.ID})
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	DormID   string `json:"dormId" binding:"required"`
}

// SignIn handles POST /api/auth/signin. An account pinned to a different
// residence than the selected one is rejected outright, naming the account's
// actual residence; no session is established.
func (h *Handler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var user model.User
	err := h.store.DB().First(&user, "email = ?", req.Email).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary storage problem, please retry"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if user.DormID != req.DormID {
		name := user.DormID
		if res, ok := h.reg.Get(user.DormID); ok {
			name = res.DisplayName
		}
		session := sessions.Default(c)
		session.Clear()
		session.Save()
		c.JSON(http.StatusForbidden, gin.H{
			"error": fmt.Sprintf("this account belongs to %s, please select the correct dormitory", name),
		})
		return
	}

	now := time.Now().UTC()
	if err := h.store.DB().Model(&user).Updates(map[string]any{
		"is_logged_in":  true,
		"last_login_at": now,
	}).Error; err != nil {
		// The session is still established; login bookkeeping is best effort.
		log.Printf("updating login status for %s: %v", user.ID, err)
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong, please retry"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": user.ID, "dormId": user.DormID, "apartmentNumber": user.ApartmentNumber})
}

// SignOut handles POST /api/auth/signout.
func (h *Handler) SignOut(c *gin.Context) {
	if user := h.currentUser(c); user != nil {
		h.store.DB().Model(user).Update("is_logged_in", false)
	}

	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(c *gin.Context) {
	user := h.requireUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"userId":          user.ID,
		"email":           user.Email,
		"apartmentNumber": user.ApartmentNumber,
		"dormId":          user.DormID,
		"isLoggedIn":      user.IsLoggedIn,
		"lastLoginAt":     user.LastLoginAt,
	})
}
