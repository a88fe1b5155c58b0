package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 密钥最短长度
const minSecretLength = 32

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingUID   = errors.New("uid not found in token claims")
)

// Claims 访问令牌声明，uid 即上传者/作者引用
type Claims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenConfig 保存 JWT 配置
type TokenConfig struct {
	Secret    []byte
	ExpiresIn time.Duration
}

// JWTService 签发与校验 HS256 访问令牌
type JWTService struct {
	config TokenConfig
	now    func() time.Time
}

// NewJWTService 创建 JWT 服务
func NewJWTService(secret string, expiresIn time.Duration) (*JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d characters long, got %d", minSecretLength, len(secret))
	}
	if expiresIn <= 0 {
		expiresIn = 15 * time.Minute
	}
	return &JWTService{
		config: TokenConfig{Secret: []byte(secret), ExpiresIn: expiresIn},
		now:    time.Now,
	}, nil
}

// GenerateAccessToken 生成访问令牌
func (s *JWTService) GenerateAccessToken(uid string) (string, time.Time, error) {
	if uid == "" {
		return "", time.Time{}, ErrMissingUID
	}

	now := s.now()
	expiry := now.Add(s.config.ExpiresIn)
	claims := Claims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, expiry, nil
}

// ParseToken 解析和验证令牌，只接受 HS256
func (s *JWTService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.config.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UID == "" {
		return nil, ErrMissingUID
	}
	return claims, nil
}
