package auth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang-jwt/jwt/v5/request"
	"github.com/google/uuid"
	"github.com/programme-lv/classroom/httpjson"
	"github.com/programme-lv/classroom/srvcerror"
)

// StudentClaims identify a logged in student. The subject holds the
// student's primary key.
type StudentClaims struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func (c *StudentClaims) StudentPK() int64 {
	id, _ := strconv.ParseInt(c.Subject, 10, 64)
	return id
}

type ClaimsKeyType string

var CtxJwtClaimsKey ClaimsKeyType = "jwtClaims"

const tokenTTL = 12 * time.Hour

func GenerateJWT(pk int64, studentID, name, email string, jwtKey []byte) (string, error) {
	now := time.Now()
	claims := &StudentClaims{
		StudentID: studentID,
		Name:      name,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(pk, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func ValidateJWT(tokenStr string, jwtKey []byte) (*StudentClaims, error) {
	claims := &StudentClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, errors.New("invalid token signature")
		}
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// AuthCookieName is the cookie the login endpoint stores the token in.
const AuthCookieName = "auth_token"

type cookieExtractor string

func (c cookieExtractor) ExtractToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(string(c))
	if err != nil || cookie.Value == "" {
		return "", request.ErrNoTokenInRequest
	}
	return cookie.Value, nil
}

var tokenExtractor = request.MultiExtractor{
	request.BearerExtractor{},
	cookieExtractor(AuthCookieName),
}

// GetJwtAuthMiddleware validates a bearer token or auth cookie when one is
// present and stores its claims in the request context.
func GetJwtAuthMiddleware(jwtKey []byte) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, err := tokenExtractor.ExtractToken(r)
			if err != nil {
				if errors.Is(err, request.ErrNoTokenInRequest) {
					next.ServeHTTP(w, r)
					return
				}
				e := srvcerror.ErrNotAuthenticated()
				httpjson.WriteErrorJson(w, err.Error(), e.HttpStatusCode(), e.ErrorCode())
				return
			}

			claims, err := ValidateJWT(token, jwtKey)
			if err != nil {
				e := srvcerror.ErrNotAuthenticated()
				httpjson.WriteErrorJson(w, err.Error(), e.HttpStatusCode(), e.ErrorCode())
				return
			}

			ctx := context.WithValue(r.Context(), CtxJwtClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// StudentFromContext returns the claims stored by the middleware or a
// not_authenticated error.
func StudentFromContext(ctx context.Context) (*StudentClaims, error) {
	claims, ok := ctx.Value(CtxJwtClaimsKey).(*StudentClaims)
	if !ok || claims == nil || claims.StudentPK() == 0 {
		return nil, srvcerror.ErrNotAuthenticated()
	}
	return claims, nil
}

// WithStudent stores claims in ctx.
func WithStudent(ctx context.Context, claims *StudentClaims) context.Context {
	return context.WithValue(ctx, CtxJwtClaimsKey, claims)
}
