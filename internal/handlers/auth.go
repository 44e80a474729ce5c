package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"mixins/internal/middleware"
	"mixins/internal/models"
	"mixins/internal/services"
	"mixins/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const captchaSessionKey = "captcha_answer"

type AuthHandler struct {
	svc *services.Services
}

func NewAuthHandler(svc *services.Services) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// newCaptcha stores a fresh answer in the session and returns the question.
func (h *AuthHandler) newCaptcha(c *gin.Context) string {
	question, answer := h.svc.Captcha.Question()
	session := sessions.Default(c)
	session.Set(captchaSessionKey, answer)
	if err := session.Save(); err != nil {
		log.Printf("saving captcha in session failed: %v", err)
	}
	return question
}

func (h *AuthHandler) ShowRegister(c *gin.Context) {
	Render(c, http.StatusOK, "auth/register.html", gin.H{"Captcha": h.newCaptcha(c)})
}

func (h *AuthHandler) registerError(c *gin.Context, code int, message string) {
	Render(c, code, "auth/register.html", gin.H{
		"Error":    message,
		"Captcha":  h.newCaptcha(c),
		"Username": c.PostForm("username"),
		"Email":    c.PostForm("email"),
	})
}

func (h *AuthHandler) Register(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	session := sessions.Default(c)
	expected, ok := session.Get(captchaSessionKey).(int)
	session.Delete(captchaSessionKey)
	if !ok || utils.StringToInt(c.PostForm("captcha"), -1) != expected {
		h.registerError(c, http.StatusBadRequest, "Wrong answer to the question")
		return
	}

	if username == "" || !strings.Contains(email, "@") {
		h.registerError(c, http.StatusBadRequest, "Username and a valid email are required")
		return
	}
	if len(password) < 6 {
		h.registerError(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		h.registerError(c, http.StatusInternalServerError, "Could not create the account")
		return
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     "user",
		IsActive: true,
	}
	if err := h.svc.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			h.registerError(c, http.StatusConflict, "Username or email already registered")
			return
		}
		log.Printf("creating user %s failed: %v", username, err)
		h.registerError(c, http.StatusInternalServerError, "Could not create the account")
		return
	}

	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		log.Printf("saving session failed: %v", err)
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	Render(c, http.StatusOK, "auth/login.html", gin.H{"Next": c.Query("next")})
}

// Login accepts either the username or the email as login.
func (h *AuthHandler) Login(c *gin.Context) {
	login := strings.TrimSpace(c.PostForm("login"))
	password := c.PostForm("password")
	next := c.PostForm("next")

	var user models.User
	err := h.svc.DB.WithContext(c.Request.Context()).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error
	if err != nil || !utils.CheckPasswordHash(password, user.Password) {
		Render(c, http.StatusUnauthorized, "auth/login.html", gin.H{"Error": "Wrong login or password", "Next": next})
		return
	}
	if !user.IsActive {
		Render(c, http.StatusForbidden, "auth/login.html", gin.H{"Error": "This account is disabled", "Next": next})
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		log.Printf("saving session failed: %v", err)
	}
	c.Redirect(http.StatusFound, safeNext(next))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/")
}

// safeNext only follows local paths.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
