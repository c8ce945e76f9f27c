package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanitation-complaints/internal/domain"
	apperrors "github.com/sanitation-complaints/internal/pkg/errors"
)

func newTestService() *TokenService {
	return NewTokenService("test-secret", "sanitation-complaints", "sanitation-api")
}

func TestTokenService_StaffRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueStaffToken(42, time.Hour)
	require.NoError(t, err)

	actor, err := svc.ParseActor(token)
	require.NoError(t, err)
	assert.Equal(t, domain.ActorStaff, actor.Kind)
	assert.Equal(t, int64(42), actor.ID)
	assert.True(t, actor.IsStaff())
}

func TestTokenService_CitizenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueCitizenToken("9999900000", time.Hour)
	require.NoError(t, err)

	actor, err := svc.ParseActor(token)
	require.NoError(t, err)
	assert.Equal(t, domain.ActorCitizen, actor.Kind)
	assert.Equal(t, "9999900000", actor.Mobile)
	assert.Zero(t, actor.ID)
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueStaffToken(1, -time.Minute)
	require.NoError(t, err)

	_, err = svc.ParseActor(token)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestTokenService_WrongKey(t *testing.T) {
	token, err := NewTokenService("other", "sanitation-complaints", "sanitation-api").IssueStaffToken(1, time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ParseActor(token)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestTokenService_WrongAudience(t *testing.T) {
	token, err := NewTokenService("test-secret", "sanitation-complaints", "dashboard").IssueStaffToken(1, time.Hour)
	require.NoError(t, err)

	_, err = newTestService().ParseActor(token)
	assert.Error(t, err)
}
