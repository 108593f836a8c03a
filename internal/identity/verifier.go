package identity

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quiztaker/internal/domain"
)

const issuer = "quiztaker"

// Claims carries the signed-in user: the subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier turns HS256 bearer tokens into users.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for user valid for ttl.
func (v *Verifier) Issue(user domain.User, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("%w: no signing secret configured", domain.ErrUnauthenticated)
	}
	now := v.now()
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// CurrentUser resolves a bearer token. An empty token is an anonymous caller
// and yields a nil user; an invalid token fails with domain.ErrUnauthenticated.
func (v *Verifier) CurrentUser(token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: identity not configured", domain.ErrUnauthenticated)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return &domain.User{ID: claims.Subject, Email: claims.Email}, nil
}

// TokenFromRequest reads a bearer token from the Authorization header,
// falling back to the token query parameter used by browser websockets.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
