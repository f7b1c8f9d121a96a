package storage

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const grantAudience = "photo-upload"

type grantClaims struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	jwt.RegisteredClaims
}

// Grant is a verified permission to upload one file.
type Grant struct {
	Key         string
	ContentType string
}

func (s *LocalStore) signGrant(key, contentType string, expiresAt time.Time) (string, error) {
	claims := grantClaims{
		Key:         key,
		ContentType: contentType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			Audience:  jwt.ClaimStrings{grantAudience},
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SigningSecret))
}

// VerifyGrant checks the token embedded in an upload URL.
func (s *LocalStore) VerifyGrant(token string) (*Grant, error) {
	claims := &grantClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SigningSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(grantAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrGrantExpired
		}
		return nil, ErrInvalidGrant
	}
	if !parsed.Valid || !ValidKey(claims.Key) {
		return nil, ErrInvalidGrant
	}
	return &Grant{Key: claims.Key, ContentType: claims.ContentType}, nil
}
