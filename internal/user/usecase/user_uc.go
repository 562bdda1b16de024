package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/grenier-labs/marketplace/internal/adapter/repository/mongodb"
	"github.com/grenier-labs/marketplace/internal/listing/domain"
	"github.com/grenier-labs/marketplace/internal/user/entity"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("connection failed: wrong email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

const tokenTTL = 7 * 24 * time.Hour

// Claims is the JWT payload issued on signup/login and verified by the auth
// middleware.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RegisteredUser is the response projection of signup and login.
type RegisteredUser struct {
	ID      string        `json:"id"`
	Token   string        `json:"token"`
	Account AccountResult `json:"account"`
}

type AccountResult struct {
	Username string `json:"username"`
}

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

// UserUsecase handles account registration and authentication. It is the
// only writer of user records; the listing core sees accounts through the
// read-only directory interface.
type UserUsecase struct {
	repo      UserRepository
	storage   domain.MediaStorage
	publisher domain.EventPublisher
	folder    string
	jwtSecret string
	logger    *zap.Logger
}

func NewUserUsecase(repo UserRepository, storage domain.MediaStorage, publisher domain.EventPublisher, folder, jwtSecret string, logger *zap.Logger) *UserUsecase {
	return &UserUsecase{
		repo:      repo,
		storage:   storage,
		publisher: publisher,
		folder:    folder,
		jwtSecret: jwtSecret,
		logger:    logger.Named("UserUsecase"),
	}
}

// Register creates an account and returns it with a fresh token. An avatar,
// when supplied, is uploaded after the account record exists and attached
// in a second write, keyed by the user id.
func (uc *UserUsecase) Register(ctx context.Context, username, email, password string, newsletter bool, avatar []byte) (*RegisteredUser, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: please send username", ErrValidation)
	}
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: please send all informations", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Username:   username,
		Email:      email,
		Password:   string(hash),
		Newsletter: newsletter,
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		if errors.Is(err, mongodb.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		uc.logger.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	if len(avatar) > 0 {
		ref, err := uc.storage.Upload(ctx, uc.folder, user.ID, avatar)
		if err != nil {
			// The account exists without an avatar; registration itself
			// succeeded.
			uc.logger.Warn("failed to upload avatar", zap.String("user_id", user.ID), zap.Error(err))
		} else {
			user.Avatar = &ref
			if err := uc.repo.Update(ctx, user); err != nil {
				uc.logger.Warn("failed to attach avatar", zap.String("user_id", user.ID), zap.Error(err))
			}
		}
	}

	if err := uc.publisher.Publish(ctx, "user.registered", map[string]any{
		"user_id":  user.ID,
		"username": user.Username,
	}); err != nil {
		uc.logger.Warn("failed to publish user.registered event", zap.String("user_id", user.ID), zap.Error(err))
	}

	token, err := uc.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return &RegisteredUser{
		ID:      user.ID,
		Token:   token,
		Account: AccountResult{Username: user.Username},
	}, nil
}

// Login verifies the credentials and returns a fresh token. Unknown email
// and wrong password are indistinguishable to the caller.
func (uc *UserUsecase) Login(ctx context.Context, email, password string) (*RegisteredUser, error) {
	user, err := uc.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		uc.logger.Error("failed to load user", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := uc.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &RegisteredUser{
		ID:      user.ID,
		Token:   token,
		Account: AccountResult{Username: user.Username},
	}, nil
}

// Authenticate resolves a bearer token to the account it was issued for.
func (uc *UserUsecase) Authenticate(ctx context.Context, tokenString string) (*entity.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(uc.jwtSecret), nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, ErrUnauthorized
	}

	user, err := uc.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (uc *UserUsecase) issueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	return token.SignedString([]byte(uc.jwtSecret))
}
