package handler

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"whisk-system/internal/api"
	"whisk-system/internal/database/models"
	sysutils "whisk-system/internal/utils"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type UserHandler struct {
	db     *gorm.DB
	tokens *sysutils.TokenManager
}

func NewUserHandler(db *gorm.DB, tokens *sysutils.TokenManager) *UserHandler {
	return &UserHandler{db: db, tokens: tokens}
}

func userToAPI(u models.User) *api.User {
	return &api.User{ID: u.ID, Email: u.Email}
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *UserHandler) CreateUser(ctx context.Context, email, password string) (*api.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, status.Errorf(codes.InvalidArgument, "email is required")
	}
	if len(password) < minPasswordLength {
		return nil, status.Errorf(codes.InvalidArgument, "password must be at least %d characters", minPasswordLength)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to check user: %v", err)
	}
	if count > 0 {
		return nil, status.Errorf(codes.AlreadyExists, "user %s already exists", email)
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to hash password: %v", err)
	}

	user := models.User{Email: email, HashedPassword: string(pwHash)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, status.Errorf(codes.Internal, "Failed to create user: %v", err)
	}
	return userToAPI(user), nil
}

// Login checks the credentials and issues a bearer token. The username is the
// account email. Unknown users and wrong passwords get the same answer.
func (s *UserHandler) Login(ctx context.Context, req *api.LoginRequest) (*api.TokenResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, status.Errorf(codes.Unauthenticated, "Incorrect username or password")
	}

	var user models.User
	email := strings.ToLower(strings.TrimSpace(req.Username))
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.Unauthenticated, "Incorrect username or password")
		}
		return nil, status.Errorf(codes.Internal, "database error: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Incorrect username or password")
	}

	token, _, err := s.tokens.GenerateToken(user.Email)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "error generating token: %v", err)
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", &now).Error; err != nil {
		log.Printf("Failed to record last login for %s: %v", user.Email, err)
	}

	return &api.TokenResponse{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to the user it was issued for.
func (s *UserHandler) Authenticate(ctx context.Context, token string) (*api.User, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "Could not validate credentials")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", claims.Subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, status.Errorf(codes.Unauthenticated, "Could not validate credentials")
		}
		return nil, status.Errorf(codes.Internal, "database error: %v", err)
	}
	return userToAPI(user), nil
}
