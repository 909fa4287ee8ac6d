package tokens

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/izinapp/izin-api/internal/models"
)

// ErrSignatureInvalid covers malformed tokens, wrong signatures and expired
// claims alike. Callers must keep it distinct from a storage miss.
var ErrSignatureInvalid = errors.New("token signature invalid or expired")

type AccessClaims struct {
	UserID       uint   `json:"id"`
	Role         string `json:"role"`
	DepartmentID *uint  `json:"department_id"`
	jwt.RegisteredClaims
}

// RefreshClaims carry the identity only; role and department are re-read
// from the directory at rotation time. The jti makes every issued token
// unique even within one clock second, which single-use rotation depends
// on: a rotation must never re-mint the exact bytes it just revoked.
type RefreshClaims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

// Signer issues and verifies the access/refresh pair. Access and refresh
// tokens are signed with separate secrets so that one secret leaking does
// not compromise the other class of token. Pure functions of its
// configuration, the input and the clock; no I/O.
type Signer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

func (s *Signer) IssueAccess(user *models.User) (string, time.Time, error) {
	exp := time.Now().Add(s.AccessTTL)
	claims := AccessClaims{
		UserID:       user.ID,
		Role:         user.Role,
		DepartmentID: user.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			Audience:  jwt.ClaimStrings{strconv.FormatUint(uint64(user.ID), 10)},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.AccessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

func (s *Signer) IssueRefresh(userID uint) (string, time.Time, error) {
	exp := time.Now().Add(s.RefreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// VerifyRefresh checks signature and expiry only; it never touches storage.
func (s *Signer) VerifyRefresh(tokenStr string) (uint, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !tkn.Valid {
		return 0, ErrSignatureInvalid
	}
	return claims.UserID, nil
}

// ParseAccess validates an access token and returns its claims. Used by the
// auth middleware, not by the rotation flow.
func ParseAccess(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return accessSecret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, ErrSignatureInvalid
	}
	return &claims, nil
}
