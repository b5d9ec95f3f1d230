package signup

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/remote/memory"
)

type signUpCall struct {
	Email    string
	Password string
	Meta     remote.Metadata
}

// recordingIdentity captures SignUp calls and optionally blocks or fails them.
type recordingIdentity struct {
	remote.Identity
	mu      sync.Mutex
	calls   []signUpCall
	err     error
	release chan struct{}
	entered chan struct{}
}

func (r *recordingIdentity) SignUp(_ context.Context, email, password string, meta remote.Metadata) (remote.Actor, error) {
	r.mu.Lock()
	r.calls = append(r.calls, signUpCall{Email: email, Password: password, Meta: meta})
	r.mu.Unlock()
	if r.entered != nil {
		r.entered <- struct{}{}
	}
	if r.release != nil {
		<-r.release
	}
	if r.err != nil {
		return remote.Actor{}, r.err
	}
	return remote.Actor{ID: "u-1", Email: email, Metadata: meta}, nil
}

func validFields() Fields {
	return Fields{Email: "a@b.com", Password: "Secret123", ConfirmPassword: "Secret123"}
}

func TestFarmerSignUpWithReferral(t *testing.T) {
	identity := &recordingIdentity{}
	form := NewForm("")
	require.NoError(t, form.SelectRole(models.Farmer))
	require.NoError(t, form.Edit(Fields{
		Email:           "a@b.com",
		Password:        "Secret123",
		ConfirmPassword: "Secret123",
		ReferralCode:    "AGT12345",
	}))
	assert.Equal(t, Valid, form.State())

	res, err := form.Submit(context.Background(), identity)
	require.NoError(t, err)

	require.Len(t, identity.calls, 1)
	assert.Equal(t, "a@b.com", identity.calls[0].Email)
	assert.Equal(t, remote.Metadata{"role": "farmer", "referred_by": "AGT12345"}, identity.calls[0].Meta)
	assert.Equal(t, "/login", res.Redirect)
	assert.Equal(t, Succeeded, form.State())
	assert.False(t, form.CanSubmit())
}

func TestPasswordMismatchNeverCallsIdentity(t *testing.T) {
	identity := &recordingIdentity{}
	form := NewForm("buyer")
	fields := validFields()
	fields.ConfirmPassword = "Secret124"
	require.NoError(t, form.Edit(fields))
	assert.Equal(t, Invalid, form.State())

	_, err := form.Submit(context.Background(), identity)
	assert.ErrorIs(t, err, ErrPasswordMismatch)
	assert.Empty(t, identity.calls)
	require.NotNil(t, form.Notice())
	assert.Equal(t, "Passwords don't match", form.Notice().Title)
}

func TestSubmitRequiresRole(t *testing.T) {
	identity := &recordingIdentity{}
	form := NewForm("admin")
	assert.Equal(t, RoleUnselected, form.State())
	assert.False(t, form.CanSubmit())

	require.NoError(t, form.Edit(validFields()))
	assert.Equal(t, RoleUnselected, form.State())
	_, err := form.Submit(context.Background(), identity)
	assert.ErrorIs(t, err, ErrRoleRequired)
	assert.Empty(t, identity.calls)

	assert.ErrorIs(t, form.SelectRole(models.Admin), ErrRoleNotAllowed)
}

func TestInvalidEmailRejectedLocally(t *testing.T) {
	identity := &recordingIdentity{}
	form := NewForm("buyer")
	fields := validFields()
	fields.Email = "not-an-email"
	require.NoError(t, form.Edit(fields))

	_, err := form.Submit(context.Background(), identity)
	assert.ErrorIs(t, err, ErrInvalidFields)
	assert.Empty(t, identity.calls)
}

func TestRoleMetadata(t *testing.T) {
	tests := []struct {
		role models.Role
		want remote.Metadata
	}{
		{models.Buyer, remote.Metadata{"role": "buyer"}},
		{models.Agent, remote.Metadata{"role": "agent", "referral_code": "ZX81ZX81"}},
		{models.Farmer, remote.Metadata{"role": "farmer"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			identity := &recordingIdentity{}
			form := NewForm(string(tt.role), WithReferralGenerator(func() string { return "ZX81ZX81" }))
			fields := validFields()
			if tt.role == models.Buyer {
				fields.ReferralCode = "IGNORED1"
			}
			require.NoError(t, form.Edit(fields))

			res, err := form.Submit(context.Background(), identity)
			require.NoError(t, err)
			require.Len(t, identity.calls, 1)
			assert.Equal(t, tt.want, identity.calls[0].Meta)
			assert.Equal(t, tt.want["referral_code"], res.ReferralCode)
		})
	}
}

func TestFailureKeepsFieldsAndAllowsRetry(t *testing.T) {
	identity := &recordingIdentity{err: remote.ErrAlreadyExists}
	form := NewForm("farmer")
	require.NoError(t, form.Edit(validFields()))

	_, err := form.Submit(context.Background(), identity)
	assert.ErrorIs(t, err, remote.ErrAlreadyExists)
	assert.Equal(t, Failed, form.State())
	assert.Equal(t, validFields(), form.Fields())
	require.NotNil(t, form.Notice())
	assert.Equal(t, "Registration failed", form.Notice().Title)
	assert.Equal(t, models.NoticeDestructive, form.Notice().Variant)
	assert.True(t, form.CanSubmit())

	identity.err = nil
	_, err = form.Submit(context.Background(), identity)
	require.NoError(t, err)
	assert.Len(t, identity.calls, 2)
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	identity := &recordingIdentity{release: make(chan struct{}), entered: make(chan struct{})}
	form := NewForm("buyer")
	require.NoError(t, form.Edit(validFields()))

	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background(), identity)
		done <- err
	}()
	<-identity.entered

	assert.Equal(t, Submitting, form.State())
	assert.False(t, form.CanSubmit())
	_, err := form.Submit(context.Background(), identity)
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, form.Edit(validFields()), ErrBusy)

	close(identity.release)
	require.NoError(t, <-done)
	assert.Len(t, identity.calls, 1)
}

func TestSignUpAgainstMemoryBackend(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	form := NewForm("agent")
	require.NoError(t, form.Edit(validFields()))

	res, err := form.Submit(ctx, backend)
	require.NoError(t, err)
	assert.Equal(t, res.ReferralCode, res.Actor.ReferralCode())

	again := NewForm("agent")
	require.NoError(t, again.Edit(validFields()))
	_, err = again.Submit(ctx, backend)
	assert.True(t, errors.Is(err, remote.ErrAlreadyExists))
}

func TestNewReferralCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-Z]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := NewReferralCode()
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 195)
}
