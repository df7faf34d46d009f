package jwt

import (
	"sync"
	"time"

	"github.com/cmlabs-hris/timeclock-backend-go/internal/domain/employee"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"

	streamTokenTTL = 5 * time.Minute
)

// Service signs and verifies the HS256 tokens of the API. Access tokens are normally
// issued by the identity provider upstream; GenerateAccessToken exists for tooling and tests.
type Service interface {
	GenerateAccessToken(employeeID string, role employee.Role) (token string, expiresAt int64, err error)
	GenerateStreamToken(employeeID string) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (employeeID string, err error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	revokedTokens             map[string]int64
	mu                        sync.RWMutex
	now                       func() time.Time
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:             make(map[string]int64),
		now:                       time.Now,
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(employeeID string, role employee.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = j.now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"role":        string(role),
		"type":        TokenTypeAccess,
		"exp":         expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateStreamToken issues the short-lived token accepted by the SSE endpoint as a query parameter.
func (j *JWTService) GenerateStreamToken(employeeID string) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(streamTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"type":        TokenTypeStream,
		"exp":         expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(streamTokenTTL.Seconds()), nil
}

// ValidateStreamToken verifies a stream token and returns its employee ID.
func (j *JWTService) ValidateStreamToken(tokenString string) (employeeID string, err error) {
	if j.IsTokenRevoked(tokenString) {
		return "", jwt.ErrInvalidJWT()
	}

	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeStream {
		return "", jwt.ErrInvalidJWT()
	}

	idVal, ok := token.Get("employee_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}
	employeeID, ok = idVal.(string)
	if !ok || employeeID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return employeeID, nil
}

func (j *JWTService) RevokeToken(token string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.revokedTokens[token] = j.now().Unix()
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}
