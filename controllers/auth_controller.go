package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mitodev/mito/middleware"
	"github.com/mitodev/mito/models"
	"github.com/mitodev/mito/utils"
)

// AuthController handles account registration, login and the WeChat
// mini-program session exchange.
type AuthController struct {
	db     *gorm.DB
	wechat utils.SessionExchanger
}

func NewAuthController(db *gorm.DB, wechat utils.SessionExchanger) *AuthController {
	return &AuthController{db: db, wechat: wechat}
}

// usernameExists reports whether another account already owns the username.
func usernameExists(db *gorm.DB, username string, excludeID uint) bool {
	var count int64
	err := db.Model(&models.User{}).Where("username = ? AND id <> ?", username, excludeID).
		Count(&count).Error
	return err == nil && count > 0
}

type wechatLoginRequest struct {
	Code string `json:"code"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Nickname string `json:"nickname" binding:"max=64"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// UserData is the wire representation of an account.
type UserData struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
}

func userData(user models.User) UserData {
	return UserData{
		ID:        user.ID,
		Username:  user.Username,
		Nickname:  user.Nickname,
		CreatedAt: user.CreatedAt,
	}
}

// WeChatLogin godoc
// @Summary WeChat mini-program login
// @Description Exchanges a wx.login code for a token pair, creating the account on first sight
// @Tags auth
// @Accept json
// @Produce json
// @Param login body wechatLoginRequest true "wx.login code"
// @Success 200 {object} utils.JSONResponse
// @Failure 400 {object} utils.JSONResponse
// @Failure 503 {object} utils.JSONResponse
// @Router /api/v1/auth/wechat/login [post]
func (a *AuthController) WeChatLogin(ctx *gin.Context) {
	var req wechatLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		utils.Error(ctx, http.StatusBadRequest, "Code is required")
		return
	}

	session, err := a.wechat.Code2Session(ctx.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, utils.ErrWeChatUnavailable) {
			utils.Error(ctx, http.StatusServiceUnavailable, "WeChat service unavailable")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	if session.ErrCode != 0 || session.OpenID == "" {
		utils.Error(ctx, http.StatusBadRequest, "Failed to get openid")
		return
	}

	username := "wx_" + session.OpenID
	created := false
	var user models.User

	err = a.db.Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("username = ?", username).First(&user).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			user = models.User{
				Username: username,
				Nickname: "WeChat User",
				IsActive: true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			created = true
		} else if findErr != nil {
			return findErr
		}

		var profile models.Profile
		profErr := tx.Where("user_id = ?", user.ID).First(&profile).Error
		if errors.Is(profErr, gorm.ErrRecordNotFound) {
			profile = models.Profile{
				UserID:  user.ID,
				OpenID:  session.OpenID,
				UnionID: session.UnionID,
			}
			return tx.Create(&profile).Error
		}
		if profErr != nil {
			return profErr
		}
		if profile.OpenID != session.OpenID || profile.UnionID != session.UnionID {
			return tx.Model(&profile).Select("open_id", "union_id").
				Updates(map[string]interface{}{
					"open_id":  session.OpenID,
					"union_id": session.UnionID,
				}).Error
		}
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	pair, err := utils.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.Success(ctx, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    created,
	})
}

// Register godoc
// @Summary Register an account
// @Tags auth
// @Accept json
// @Produce json
// @Param account body registerRequest true "credentials"
// @Success 201 {object} utils.JSONResponse
// @Failure 409 {object} utils.JSONResponse
// @Router /api/v1/auth/register [post]
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data", bindingErrors(err))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = req.Username
	}

	user := models.User{
		Username:     req.Username,
		Nickname:     nickname,
		PasswordHash: hash,
		IsActive:     true,
	}
	err = a.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", req.Username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errNameTaken
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		// A concurrent insert can slip past the count and fail on the
		// unique index instead; that is still a conflict, not a server fault.
		if errors.Is(err, errNameTaken) || usernameExists(a.db, req.Username, user.ID) {
			utils.Error(ctx, http.StatusConflict, "Username already taken")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.Created(ctx, "Account created successfully", userData(user))
}

// Login godoc
// @Summary Log in with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "credentials"
// @Success 200 {object} utils.JSONResponse
// @Failure 401 {object} utils.JSONResponse
// @Router /api/v1/auth/login [post]
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.ErrorData(ctx, http.StatusBadRequest, "Invalid data", bindingErrors(err))
		return
	}

	var user models.User
	if err := a.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !user.IsActive || !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	pair, err := utils.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.Success(ctx, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
		"user":    userData(user),
	})
}

// Refresh godoc
// @Summary Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param token body refreshRequest true "refresh token"
// @Success 200 {object} utils.JSONResponse
// @Failure 401 {object} utils.JSONResponse
// @Router /api/v1/auth/refresh [post]
func (a *AuthController) Refresh(ctx *gin.Context) {
	var req refreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "Refresh token is required")
		return
	}

	claims, err := utils.ParseToken(req.Refresh)
	if err != nil || claims.TokenType != utils.TokenTypeRefresh {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if utils.IsTokenBlacklisted(req.Refresh) {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	var user models.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil || !user.IsActive {
		utils.Error(ctx, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	pair, err := utils.GenerateTokenPair(user.ID, user.Username)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}
	utils.Success(ctx, gin.H{
		"access":  pair.Access,
		"refresh": pair.Refresh,
	})
}

// Me godoc
// @Summary Current account
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Router /api/v1/auth/me [get]
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.Preload("Profile").First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "Internal server error")
		return
	}

	data := gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"nickname":   user.Nickname,
		"created_at": user.CreatedAt,
	}
	if user.Profile != nil {
		data["profile"] = gin.H{
			"nickname":   user.Profile.Nickname,
			"avatar_url": user.Profile.AvatarURL,
			"bio":        user.Profile.Bio,
			"location":   user.Profile.Location,
		}
	}
	utils.Success(ctx, data)
}

// Logout godoc
// @Summary Log out
// @Description Blacklists the presented access token for its remaining lifetime
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} utils.JSONResponse
// @Router /api/v1/auth/logout [post]
func (a *AuthController) Logout(ctx *gin.Context) {
	token, ok := ctx.Get(middleware.ContextTokenKey)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "unauthorized")
		return
	}
	tokenStr, _ := token.(string)

	expiresAt := time.Now().Add(time.Hour)
	if claims, err := utils.ParseToken(tokenStr); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	utils.BlacklistToken(tokenStr, expiresAt)
	utils.SuccessMsg(ctx, "Logged out successfully", gin.H{})
}
