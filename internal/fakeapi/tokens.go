package fakeapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var errTokenNotValid = errors.New("token not valid")

type tokenClaims struct {
	jwtlib.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    int64  `json:"user_id"`
}

func (s *Server) issue(tokenType string, userID int64) (string, string, error) {
	ttl := s.AccessTTL
	if tokenType == tokenTypeRefresh {
		ttl = s.RefreshTTL
	}
	now := s.Now()
	jti := uuid.New().String()
	claims := tokenClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		UserID:    userID,
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	if tokenType == tokenTypeAccess {
		s.mu.Lock()
		s.issued = append(s.issued, jti)
		s.mu.Unlock()
	}
	return signed, jti, nil
}

// IssueAccessToken mints a valid access token for userID without logging in
func (s *Server) IssueAccessToken(userID int64) string {
	tok, _, err := s.issue(tokenTypeAccess, userID)
	if err != nil {
		panic(err)
	}
	return tok
}

// IssueRefreshToken mints a valid refresh token for userID without logging in
func (s *Server) IssueRefreshToken(userID int64) string {
	tok, _, err := s.issue(tokenTypeRefresh, userID)
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) verify(raw, tokenType string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errTokenNotValid
		}
		return s.secret, nil
	}, jwtlib.WithTimeFunc(s.Now))
	if err != nil {
		return nil, errTokenNotValid
	}
	if claims.TokenType != tokenType {
		return nil, errTokenNotValid
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tokenType == tokenTypeRefresh && s.blacklisted[claims.ID] {
		return nil, errTokenNotValid
	}
	if tokenType == tokenTypeAccess && s.revoked[claims.ID] {
		return nil, errTokenNotValid
	}
	return claims, nil
}

func (s *Server) blacklist(jti string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklisted[jti] = true
}

// requireAccess rejects requests without a valid bearer access token
func (s *Server) requireAccess(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		claims, err := s.verify(parts[1], tokenTypeAccess)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), claims.UserID)))
	}
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	return raw, err
}
