package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/devconnect/backend/internal/middleware"
	"github.com/devconnect/backend/internal/models"
	"github.com/devconnect/backend/internal/repositories"
	"github.com/devconnect/backend/pkg/firebase"
	"github.com/devconnect/backend/pkg/logger"
	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   firebase.TokenVerifier
	jwtSecret      string
	jwtTTL         time.Duration
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, in which
// case Firebase login answers 503.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth firebase.TokenVerifier, jwtSecret string, jwtTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
		jwtTTL:         jwtTTL,
	}
}

func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if _, err := h.userRepository.GetUserByEmail(req.Email); err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}

	user := &models.User{
		Username: req.Username,
		Email:    strings.ToLower(req.Email),
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Username or email already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	token, err := middleware.GenerateToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token after signup")
	}

	return c.JSON(http.StatusCreated, echo.Map{"token": token, "user": user})
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SigninRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(strings.ToLower(req.Email))
	if err != nil || user.Password == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	token, err := middleware.GenerateToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

// FirebaseLogin exchanges a Firebase ID token for a local JWT, linking or
// creating the local account on first use.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	identity, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	user, err := h.findOrCreateFirebaseUser(identity, req.Username)
	if err != nil {
		logger.Log.WithError(err).WithField("firebase_uid", identity.UID).Error("firebase login failed")
		if isDuplicate(err) {
			return echo.NewHTTPError(http.StatusConflict, "Username already taken")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user")
	}

	token, err := middleware.GenerateToken(user, h.jwtSecret, h.jwtTTL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate local JWT")
	}

	return c.JSON(http.StatusOK, echo.Map{"token": token, "user": user})
}

func (h *AuthHandler) findOrCreateFirebaseUser(identity *firebase.Identity, username string) (*models.User, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(identity.UID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// an existing local account with the same email gets linked
	email := strings.ToLower(identity.Email)
	user, err = h.userRepository.GetUserByEmail(email)
	if err == nil {
		uid := identity.UID
		user.FirebaseUID = &uid
		return user, h.userRepository.UpdateUser(user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if username == "" {
		username = strings.ReplaceAll(slug.Make(identity.Name), "-", "")
	}
	if username == "" {
		username = strings.ReplaceAll(slug.Make(strings.Split(email, "@")[0]), "-", "")
	}
	uid := identity.UID
	user = &models.User{Username: username, Email: email, FirebaseUID: &uid}
	if err := h.userRepository.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
