package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/shashiranjanraj/rincon/config"
)

// Claims holds the typed JWT payload.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Options configure token signing and password hashing.
type Options struct {
	Secret []byte
	TTL    time.Duration
	Cost   int // bcrypt work factor; 0 means bcrypt.DefaultCost
}

// OptionsFromConfig reads JWT_SECRET, JWT_TTL and BCRYPT_COST.
func OptionsFromConfig() Options {
	return Options{
		Secret: []byte(config.JWTSecret()),
		TTL:    config.JWTTTL(),
		Cost:   config.BcryptCost(),
	}
}

// Manager issues and verifies tokens and hashes passwords.
type Manager struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func New(opts Options) *Manager {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	cost := opts.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Manager{secret: opts.Secret, ttl: ttl, cost: cost, now: time.Now}
}

// TTL is the lifetime of issued tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

// GenerateToken creates a signed HS256 token for the given user.
func (m *Manager) GenerateToken(userID uint, role string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ValidateToken parses and validates a token string. Only HS256 is accepted.
func (m *Manager) ValidateToken(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.UserID == 0 {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, errors.New("missing user_id"))
	}

	return claims, nil
}

// HashPassword returns a bcrypt hash of the plain-text password.
func (m *Manager) HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), m.cost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash against the plain-text candidate.
func (m *Manager) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
