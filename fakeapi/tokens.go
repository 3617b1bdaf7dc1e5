package fakeapi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/octabyte/taskdesk/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	errWrongTokenType = errors.New("token has wrong type")
	errRevoked        = errors.New("token has been revoked")
)

type tokenClaims struct {
	jwt.RegisteredClaims
	TokenType  string `json:"token_type"`
	Generation int    `json:"gen"`
}

// IssueTokens mints a token pair for email as a successful login would.
func (s *Server) IssueTokens(email string) models.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(email)
}

func (s *Server) issueLocked(email string) models.Tokens {
	return models.Tokens{
		Access:  s.signLocked(email, tokenTypeAccess),
		Refresh: s.signLocked(email, tokenTypeRefresh),
	}
}

func (s *Server) signLocked(email, tokenType string) string {
	now := s.clock.Now()
	ttl, gen := s.cfg.AccessTTL, s.accessGen
	if tokenType == tokenTypeRefresh {
		ttl, gen = s.cfg.RefreshTTL, s.refreshGen
	}
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType:  tokenType,
		Generation: gen,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		panic(fmt.Sprintf("sign %s token: %v", tokenType, err))
	}
	return signed
}

// parseLocked validates signature, expiry, revocation and generation. An empty
// tokenType accepts either kind.
func (s *Server) parseLocked(raw, tokenType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if tokenType != "" && claims.TokenType != tokenType {
		return nil, errWrongTokenType
	}
	if s.blacklist[claims.ID] {
		return nil, errRevoked
	}
	gen := s.accessGen
	if claims.TokenType == tokenTypeRefresh {
		gen = s.refreshGen
	}
	if claims.Generation != gen {
		return nil, errRevoked
	}
	return claims, nil
}

// verifyAccess is the bearer check used by the session middleware.
func (s *Server) verifyAccess(raw string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claims, err := s.parseLocked(raw, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	if _, ok := s.accounts[claims.Subject]; !ok {
		return "", errors.New("user no longer exists")
	}
	return claims.Subject, nil
}

func randomOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		panic(fmt.Sprintf("generate otp: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64())
}
