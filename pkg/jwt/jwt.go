package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	SubjectID string `json:"sub_id"`
	jwt.RegisteredClaims
}

// GenerateAccessToken выпускает токен для тестов и внутренних инструментов.
// Основной выпуск токенов живёт в auth-сервисе продукта.
func GenerateAccessToken(subjectID, secret, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		SubjectID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken проверяет подпись и срок действия, возвращает subject identifier.
func ValidateAccessToken(tokenString, secret string) (string, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	subject := claims.SubjectID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return "", errors.New("token has no subject")
	}

	return subject, nil
}
