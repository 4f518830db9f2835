package lib

import (
	"commerce_server/structs"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SignToken issues an HS256 bearer token carrying the user id and jti.
func SignToken(claims *structs.AuthClaims, issuer, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": claims.Sub.String(),
		"iat": claims.Iat.Unix(),
		"exp": claims.Exp.Unix(),
		"jti": claims.Jti.String(),
		"iss": issuer,
	})
	return token.SignedString([]byte(secret))
}

// ParseToken parses and validates a JWT token string and returns the claims
func ParseToken(tokenStr, issuer, secret string) (*structs.AuthClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	subStr, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: invalid sub claim", ErrInvalidToken)
	}
	sub, err := uuid.Parse(subStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid UUID in sub claim", ErrInvalidToken)
	}

	jtiStr, ok := claims["jti"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: invalid jti claim", ErrInvalidToken)
	}
	jti, err := uuid.Parse(jtiStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid UUID in jti claim", ErrInvalidToken)
	}

	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	return &structs.AuthClaims{
		Sub: sub,
		Iat: time.Unix(int64(iat), 0),
		Exp: time.Unix(int64(exp), 0),
		Jti: jti,
	}, nil
}
