package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Verifier authenticates mutating requests. A request passes with
// either the configured X-API-Key header or a valid HS256 bearer
// token. There is no authorization model beyond authenticated or not.
type Verifier struct {
	apiKey    string
	jwtSecret []byte
}

func NewVerifier(apiKey, jwtSecret string) *Verifier {
	return &Verifier{
		apiKey:    apiKey,
		jwtSecret: []byte(jwtSecret),
	}
}

// Authenticate checks the request credentials. API key comparison is
// constant time.
func (v *Verifier) Authenticate(r *http.Request) error {
	if key := r.Header.Get("X-API-Key"); key != "" {
		if v.apiKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(v.apiKey)) == 1 {
			return nil
		}
		return ErrInvalidCredentials
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ErrMissingCredentials
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ErrInvalidCredentials
	}

	return v.verifyToken(tokenString)
}

func (v *Verifier) verifyToken(tokenString string) error {
	if len(v.jwtSecret) == 0 {
		return ErrInvalidCredentials
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return v.jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return ErrInvalidCredentials
	}

	return nil
}
