package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sanitation-complaints/internal/domain"
	apperrors "github.com/sanitation-complaints/internal/pkg/errors"
)

// Claims - access token claims. Staff tokens carry the actor id in Subject,
// citizen tokens carry the verified mobile number.
type Claims struct {
	Kind   domain.ActorKind `json:"kind"`
	Mobile string           `json:"mobile,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 access tokens
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewTokenService(signingKey, issuer, audience string) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// IssueStaffToken - token for a staff member identified by actor id
func (s *TokenService) IssueStaffToken(actorID int64, expiresIn time.Duration) (string, error) {
	return s.issue(Claims{
		Kind:             domain.ActorStaff,
		RegisteredClaims: s.registered(strconv.FormatInt(actorID, 10), expiresIn),
	})
}

// IssueCitizenToken - token for a citizen whose mobile number was verified upstream
func (s *TokenService) IssueCitizenToken(mobile string, expiresIn time.Duration) (string, error) {
	return s.issue(Claims{
		Kind:             domain.ActorCitizen,
		Mobile:           mobile,
		RegisteredClaims: s.registered(mobile, expiresIn),
	})
}

func (s *TokenService) registered(subject string, expiresIn time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		Audience:  []string{s.audience},
		ID:        uuid.NewString(),
	}
}

func (s *TokenService) issue(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// ParseActor validates the token and converts its claims into an Actor.
func (s *TokenService) ParseActor(tokenString string) (domain.Actor, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, apperrors.ErrInvalidToken.WithMessage("token has expired")
		}
		return domain.Actor{}, apperrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Actor{}, apperrors.ErrInvalidToken
	}

	switch claims.Kind {
	case domain.ActorStaff:
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || id <= 0 {
			return domain.Actor{}, apperrors.ErrInvalidToken.WithMessage("invalid subject")
		}
		return domain.StaffActor(id), nil
	case domain.ActorCitizen:
		if claims.Mobile == "" {
			return domain.Actor{}, apperrors.ErrInvalidToken.WithMessage("citizen token without mobile number")
		}
		return domain.CitizenActor(claims.Mobile), nil
	default:
		return domain.Actor{}, apperrors.ErrInvalidToken.WithMessage("unknown actor kind")
	}
}
