package user

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hualidepianju/ElderEnglishLearner/internal/middleware"
)

const sessionTTL = 24 * time.Hour

var ErrInvalidCredentials = errors.New("invalid credentials")

// Store is what the service needs from the repository. Kept as an
// interface so tests can swap in a fake.
type Store interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUserByID(ctx context.Context, id int) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, id int, upd *UpdateRequest) (*User, error)
}

type Service struct {
	repo   Store
	secret string
}

type sessionClaims struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func NewService(repo Store, secret string) *Service {
	return &Service{repo: repo, secret: secret}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}

	u := &User{
		Username:    req.Username,
		Nickname:    nickname,
		Password:    string(hashedPwd),
		Avatar:      "default-avatar.png",
		Preferences: DefaultPreferences(),
	}
	return s.repo.CreateUser(ctx, u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*User, error) {
	u, err := s.repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CreateSessionToken mints the signed token stored in the session cookie.
func (s *Service) CreateSessionToken(u *User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		ID:       u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "elder-english-learner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
	})
	return token.SignedString([]byte(s.secret))
}

// ValidateToken implements middleware.TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*middleware.Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &middleware.Session{
		UserID:   claims.ID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, id int) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, id int, upd *UpdateRequest) (*User, error) {
	return s.repo.UpdateUser(ctx, id, upd)
}
