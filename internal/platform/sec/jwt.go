// Copyright (c) 2026 Blognest. All rights reserved.
// Author: dev@blognest.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing,
// Authorization Policy) from the domain logic. It acts as an Infrastructure
// service injected into the Application layer via small interfaces.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a JWT bearer token.
//
// # Why custom claims?
//
// By embedding the UserID and Role directly inside the JWT, the
// authentication middleware can reconstruct the active user context
// WITHOUT querying the database on every single API request.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string `json:"uid"`
	Role   string `json:"rol"`
}

// TokenService handles generation and verification of JWT tokens using HS256.
//
// The signing secret is injected at construction (JWT_SECRET), never read
// from a global.
type TokenService struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
}

// NewTokenService creates a new TokenService.
//
// # Parameters
//   - secret: The shared HMAC signing secret.
//   - issuer: The value for the standard 'iss' claim.
//   - tokenTTL: Default bearer-token lifetime (7 days unless overridden).
func NewTokenService(secret, issuer string, tokenTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: JWT secret must not be empty")
	}

	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		tokenTTL: tokenTTL,
	}, nil
}

// GenerateAccessToken creates a new signed bearer token for a user.
func (service *TokenService) GenerateAccessToken(userID string, role Role) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.tokenTTL)),
		},
		UserID: userID,
		Role:   string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
//
// Expired, malformed, and bad-signature tokens all return a plain error;
// callers translate any failure into a single generic unauthorized outcome.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
