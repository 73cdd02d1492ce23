package auth

import (
	"errors"
	"os"
	"time"

	"deliveroo-backend/constants"
	"deliveroo-backend/logger"
	userModel "deliveroo-backend/models/user"
	"deliveroo-backend/services/notifier"
	"deliveroo-backend/types"
	"deliveroo-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// AuthController handles registration, login and profile lookup.
type AuthController struct {
	DB       *gorm.DB
	Notifier *notifier.Notifier
	Logger   *logger.AsyncLogger
}

func NewAuthController(db *gorm.DB, mailNotifier *notifier.Notifier, asyncLogger *logger.AsyncLogger) *AuthController {
	return &AuthController{
		DB:       db,
		Notifier: mailNotifier,
		Logger:   asyncLogger,
	}
}

func (ac *AuthController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	ac.Logger.Log(utils.CreateSanitizedLogEntry(c))
	return result
}

// Register creates a new user account, queues the welcome email and returns
// the user along with a fresh token.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req types.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return ac.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if validationErr := req.Validate(); validationErr != "" {
		return ac.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: validationErr,
			Status:  fiber.StatusBadRequest,
		})
	}

	var existing userModel.User
	err := ac.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return ac.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Email already registered",
			Status:  fiber.StatusBadRequest,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Database error while checking existing user", err)
		return ac.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Database error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	newUser := userModel.User{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  constants.RoleUser,
	}
	if err := newUser.SetPassword(req.Password); err != nil {
		logger.Error("Failed to hash password", err)
		return ac.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to create user",
			Status:  fiber.StatusInternalServerError,
		})
	}

	if err := ac.DB.Create(&newUser).Error; err != nil {
		logger.Error("Failed to create user", err)
		return ac.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to create user",
			Status:  fiber.StatusInternalServerError,
		})
	}

	// Fire-and-forget; registration never waits on the mail transport.
	ac.Notifier.SendWelcome(newUser.Email, newUser.Name)

	token, err := ac.issueToken(&newUser)
	if err != nil {
		logger.Error("Failed to sign token", err)
		return ac.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to create session",
			Status:  fiber.StatusInternalServerError,
		})
	}

	ac.setSecureCookie(c, "access", token, 24*60*60)
	logger.Success("User registered successfully: " + newUser.Email)
	return ac.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Message: "User registered successfully",
		Status:  fiber.StatusCreated,
		Token:   token,
		Data:    newUser.Serialize(),
	})
}

// Login verifies credentials and returns the user plus a fresh token.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req types.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Error parsing request body", err)
		return ac.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}

	if validationErr := req.Validate(); validationErr != "" {
		return ac.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Message: validationErr,
			Status:  fiber.StatusBadRequest,
		})
	}

	var account userModel.User
	err := ac.DB.Where("email = ?", req.Email).First(&account).Error
	if err != nil || !account.CheckPassword(req.Password) {
		return ac.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "Invalid credentials",
			Status:  fiber.StatusUnauthorized,
		})
	}

	token, err := ac.issueToken(&account)
	if err != nil {
		logger.Error("Failed to sign token", err)
		return ac.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Failed to create session",
			Status:  fiber.StatusInternalServerError,
		})
	}

	ac.setSecureCookie(c, "access", token, 24*60*60)
	logger.Success("User logged in successfully: " + account.Email)
	return ac.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Login successful",
		Status:  fiber.StatusOK,
		Token:   token,
		Data:    account.Serialize(),
	})
}

// Profile returns the authenticated user.
func (ac *AuthController) Profile(c *fiber.Ctx) error {
	userID, err := utils.UserIDFromClaims(c)
	if err != nil {
		return ac.sendResponseWithLog(c, fiber.StatusUnauthorized, types.ApiResponse{
			Message: "Invalid user claims",
			Status:  fiber.StatusUnauthorized,
		})
	}

	var account userModel.User
	if err := ac.DB.First(&account, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ac.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Message: "User not found",
				Status:  fiber.StatusNotFound,
			})
		}
		logger.Error("Failed to fetch user", err)
		return ac.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Message: "Database error",
			Status:  fiber.StatusInternalServerError,
		})
	}

	return ac.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "User fetched successfully",
		Status:  fiber.StatusOK,
		Data:    account.Serialize(),
	})
}

// Logout clears the access cookie.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	ac.setSecureCookie(c, "access", "", -1)
	return ac.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Message: "Logout successful",
		Status:  fiber.StatusOK,
	})
}

func (ac *AuthController) issueToken(u *userModel.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    u.Role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET_KEY")))
}

func (ac *AuthController) setSecureCookie(c *fiber.Ctx, name, value string, maxAge int) {
	isProduction := os.Getenv("APP_ENV") == "production"
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		HTTPOnly: true,
		Secure:   isProduction,
		SameSite: "Strict",
		MaxAge:   maxAge,
		Path:     "/",
	})
}
