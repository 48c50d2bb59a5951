package service

import (
	"context"

	"kitchen_sync/internal/config"
	apperrors "kitchen_sync/pkg/errors"
	"kitchen_sync/pkg/jwt"
	"kitchen_sync/pkg/logger"
)

// AuthService проверяет предъявленный bearer-токен и возвращает subject identifier.
// Выпуск токенов — зона ответственности auth-сервиса продукта, не этого процесса.
type AuthService interface {
	ValidateToken(ctx context.Context, tokenString string) (string, error)
}

type authService struct {
	jwtCfg config.JWTConfig
	log    logger.Logger
}

func NewAuthService(jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		jwtCfg: jwtCfg,
		log:    log,
	}
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	if tokenString == "" {
		return "", apperrors.ErrUnauthorized
	}

	subjectID, err := jwt.ValidateAccessToken(tokenString, s.jwtCfg.AccessSecret)
	if err != nil {
		s.log.Debug("Token validation failed", "error", err)
		return "", apperrors.ErrUnauthorized
	}

	return subjectID, nil
}
