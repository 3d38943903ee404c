package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/krafton-jungle/mediagen-backend/internal/platform/apierr"
	"github.com/krafton-jungle/mediagen-backend/internal/platform/logger"
	"github.com/krafton-jungle/mediagen-backend/internal/repos"
	"github.com/krafton-jungle/mediagen-backend/internal/types"
)

const loginFailedMessage = "이메일 또는 비밀번호가 올바르지 않습니다."

// TokenPair is an access/refresh token pair issued at login or rotation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AuthService interface {
	Signup(ctx context.Context, email, username, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	UserFromToken(ctx context.Context, tokenString string) (*types.User, error)
}

type authService struct {
	db               *gorm.DB
	log              *logger.Logger
	userRepo         repos.UserRepo
	refreshTokenRepo repos.RefreshTokenRepo
	jwtSecretKey     string
	accessTTL        time.Duration
	refreshTTL       time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	refreshTokenRepo repos.RefreshTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:               db,
		log:              baseLog.With("service", "AuthService"),
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtSecretKey:     jwtSecretKey,
		accessTTL:        accessTTL,
		refreshTTL:       refreshTTL,
	}
}

func (s *authService) Signup(ctx context.Context, email, username, password string) (*types.User, error) {
	if existing, err := s.userRepo.GetByEmail(ctx, nil, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apierr.New(409, "conflict", fmt.Errorf("이미 사용 중인 이메일입니다."))
	}
	if existing, err := s.userRepo.GetByUsername(ctx, nil, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apierr.New(409, "conflict", fmt.Errorf("이미 사용 중인 사용자 이름입니다."))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.userRepo.Create(ctx, nil, &types.User{
		Email:    email,
		Username: username,
		Password: string(hash),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and issues a fresh token pair. Unknown email and
// wrong password produce the identical response.
func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.New(401, "invalid_credentials", fmt.Errorf("%s", loginFailedMessage))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apierr.New(401, "invalid_credentials", fmt.Errorf("%s", loginFailedMessage))
	}
	return s.issuePair(ctx, nil, user.ID)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair issued atomically. A token that is not in the table was either never
// issued or already rotated; both are treated as reuse.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	var expired bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.refreshTokenRepo.GetByToken(ctx, tx, refreshToken)
		if err != nil {
			return err
		}
		if row == nil {
			return apierr.New(401, "token_reuse_detected", fmt.Errorf("유효하지 않은 리프레시 토큰입니다."))
		}
		if err := s.refreshTokenRepo.DeleteByID(ctx, tx, row.ID); err != nil {
			return err
		}
		if time.Now().After(row.ExpiresAt) {
			// Commit so the expired token is consumed even though the
			// rotation is refused.
			expired = true
			return nil
		}
		pair, err = s.issuePair(ctx, tx, row.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apierr.New(401, "token_expired", fmt.Errorf("리프레시 토큰이 만료되었습니다."))
	}
	return pair, nil
}

// Logout revokes the presented refresh token. Unknown tokens are ignored so
// logout stays idempotent.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	row, err := s.refreshTokenRepo.GetByToken(ctx, nil, refreshToken)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	return s.refreshTokenRepo.DeleteByID(ctx, nil, row.ID)
}

// UserFromToken validates an access token and loads its subject. Every
// failure mode collapses to 401 so callers cannot probe token internals.
func (s *authService) UserFromToken(ctx context.Context, tokenString string) (*types.User, error) {
	unauthorized := func(reason error) error {
		return apierr.New(401, "invalid_token", reason)
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, unauthorized(fmt.Errorf("parse token: %w", err))
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, unauthorized(fmt.Errorf("unexpected claims type"))
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, unauthorized(fmt.Errorf("missing sub claim"))
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return nil, unauthorized(fmt.Errorf("malformed sub claim: %w", err))
	}
	user, err := s.userRepo.GetByID(ctx, nil, uint(userID))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, unauthorized(fmt.Errorf("user %d not found", userID))
	}
	return user, nil
}

func (s *authService) issuePair(ctx context.Context, tx *gorm.DB, userID uint) (*TokenPair, error) {
	access, err := s.signAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh := uuid.NewString()
	if _, err := s.refreshTokenRepo.Create(ctx, tx, &types.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (s *authService) signAccessToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
