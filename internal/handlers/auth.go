package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"bank-office/internal/models"
	"bank-office/internal/repository"
	"bank-office/internal/services"
	"bank-office/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
	userRepo    *repository.UserRepository
}

func NewAuthHandler(authService *services.AuthService, userRepo *repository.UserRepository) *AuthHandler {
	utils.LogSuccess("AuthHandler", "auth handler initialized")
	return &AuthHandler{
		authService: authService,
		userRepo:    userRepo,
	}
}

// Register handles POST /register.
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	h.register(ctx, "/register", false)
}

// RegisterStaff handles POST /register/staff. Route wiring decides who may
// reach it; in the default wiring it sits behind RequireStaff.
func (h *AuthHandler) RegisterStaff(ctx *fasthttp.RequestCtx) {
	h.register(ctx, "/register/staff", true)
}

func (h *AuthHandler) register(ctx *fasthttp.RequestCtx, path string, isStaff bool) {
	startTime := time.Now()
	utils.LogRequest("POST", path, "anonymous")

	var req models.RegisterRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("AuthHandler", "JSON parse error", err)
		writeBadRequest(ctx, path, startTime, "invalid request body")
		return
	}

	if req.Name == "" || req.Password == "" {
		utils.LogWarning("AuthHandler", "missing required fields")
		writeBadRequest(ctx, path, startTime, "name and password are required")
		return
	}

	if len(req.Password) < 6 {
		utils.LogWarning("AuthHandler", "password too short")
		writeBadRequest(ctx, path, startTime, "password must be at least 6 characters")
		return
	}

	utils.LogInfo("AuthHandler", "registering user: %s", req.Name)

	passwordHash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		writeJSON(ctx, fasthttp.StatusInternalServerError, map[string]string{"error": "internal server error"})
		utils.LogResponse(path, fasthttp.StatusInternalServerError, time.Since(startTime))
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		IsStaff:      isStaff,
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		utils.LogError("AuthHandler", fmt.Sprintf("creating user %s failed", req.Name), err)
		writeError(ctx, path, startTime, err)
		return
	}

	utils.LogSuccess("AuthHandler", "user registered: %s (staff: %v)", user.Name, user.IsStaff)

	writeJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"message":    "user registered",
		"user_id":    user.ID,
		"name":       user.Name,
		"created_at": user.CreatedAt,
	})
	utils.LogResponse(path, fasthttp.StatusCreated, time.Since(startTime))
}

// Login handles POST /login.
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()
	utils.LogRequest("POST", "/login", "anonymous")

	var req models.LoginRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		utils.LogError("AuthHandler", "JSON parse error", err)
		writeBadRequest(ctx, "/login", startTime, "invalid request body")
		return
	}

	user, err := h.userRepo.GetByName(ctx, req.Name)
	if err != nil {
		utils.LogWarning("AuthHandler", "login failed for %s: %v", req.Name, err)
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		utils.LogResponse("/login", fasthttp.StatusUnauthorized, time.Since(startTime))
		return
	}

	if err := h.authService.CheckPasswordHash(req.Password, user.PasswordHash); err != nil {
		utils.LogWarning("AuthHandler", "wrong password for %s", req.Name)
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		utils.LogResponse("/login", fasthttp.StatusUnauthorized, time.Since(startTime))
		return
	}

	token, err := h.authService.GenerateToken(user.ID, user.IsStaff)
	if err != nil {
		writeJSON(ctx, fasthttp.StatusInternalServerError, map[string]string{"error": "internal server error"})
		utils.LogResponse("/login", fasthttp.StatusInternalServerError, time.Since(startTime))
		return
	}

	utils.LogSuccess("AuthHandler", "user logged in: %s", user.Name)

	writeJSON(ctx, fasthttp.StatusOK, map[string]interface{}{
		"token":    token,
		"user_id":  user.ID,
		"name":     user.Name,
		"is_staff": user.IsStaff,
	})
	utils.LogResponse("/login", fasthttp.StatusOK, time.Since(startTime))
}
