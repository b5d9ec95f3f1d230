// Package signup drives the self-service registration form: role choice, referral handling, and submission.
package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/models/dto"
	"github.com/agrilinkchain/agrilink/internal/remote"
)

// LoginPath is where a successful registration sends the actor.
const LoginPath = "/login"

var (
	ErrRoleRequired     = errors.New("role required")
	ErrRoleNotAllowed   = errors.New("role cannot be chosen at sign-up")
	ErrPasswordMismatch = errors.New("passwords don't match")
	ErrInvalidFields    = errors.New("form has invalid fields")
	ErrBusy             = errors.New("submission already in progress")
	ErrFinished         = errors.New("form already submitted")
)

// State is where the form sits in its lifecycle.
type State int

const (
	RoleUnselected State = iota
	Invalid
	Valid
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case RoleUnselected:
		return "role_unselected"
	case Invalid:
		return "invalid"
	case Valid:
		return "valid"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Fields are the editable inputs of the form.
type Fields struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password"`
	ReferralCode    string `json:"referral_code"`
}

// Result describes a completed registration.
type Result struct {
	Actor        remote.Actor
	Redirect     string
	ReferralCode string
}

// Form is one sign-up attempt. It is safe for concurrent use; a second Submit while one is in flight fails with ErrBusy.
type Form struct {
	mu       sync.Mutex
	role     models.Role
	fields   Fields
	state    State
	notice   *models.Notice
	referral func() string
}

// Option customizes a Form.
type Option func(*Form)

// WithReferralGenerator replaces the agent referral code source.
func WithReferralGenerator(gen func() string) Option {
	return func(f *Form) { f.referral = gen }
}

// NewForm starts a form. preselect is the ?role= hint; anything not self-assignable is ignored.
func NewForm(preselect string, opts ...Option) *Form {
	f := &Form{state: RoleUnselected, referral: NewReferralCode}
	for _, opt := range opts {
		opt(f)
	}
	if role, err := models.ParseRole(preselect); err == nil && role.SelfAssignable() {
		f.role = role
		f.state = f.evaluate()
	}
	return f
}

// SelectRole picks the actor's role.
func (f *Form) SelectRole(role models.Role) error {
	if !role.SelfAssignable() {
		return fmt.Errorf("%w: %q", ErrRoleNotAllowed, role)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return err
	}
	f.role = role
	f.state = f.evaluate()
	return nil
}

// Edit replaces the field values.
func (f *Form) Edit(fields Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.editable(); err != nil {
		return err
	}
	f.fields = fields
	if f.role != "" {
		f.state = f.evaluate()
	}
	return nil
}

// Role returns the selected role, or "" when none is selected.
func (f *Form) Role() models.Role {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role
}

// State returns the current lifecycle state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fields returns the values as last edited. They survive a failed submission.
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Notice is the message raised by the last submission, if any.
func (f *Form) Notice() *models.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice
}

// CanSubmit is false while no role is selected, while a submission is in flight, and after success.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.role != "" && f.state != Submitting && f.state != Succeeded
}

// Submit validates the form locally and, only when valid, makes exactly one identity-creation call.
func (f *Form) Submit(ctx context.Context, identity remote.Identity) (Result, error) {
	f.mu.Lock()
	switch {
	case f.state == Submitting:
		f.mu.Unlock()
		return Result{}, ErrBusy
	case f.state == Succeeded:
		f.mu.Unlock()
		return Result{}, ErrFinished
	case f.role == "":
		n := models.Alert("Role required", "Please select whether you're a farmer, a buyer or an agent.")
		f.notice = &n
		f.mu.Unlock()
		return Result{}, ErrRoleRequired
	}
	if f.fields.Password != f.fields.ConfirmPassword {
		n := models.Alert("Passwords don't match", "Please ensure your passwords are identical.")
		f.notice = &n
		f.state = Invalid
		f.mu.Unlock()
		return Result{}, ErrPasswordMismatch
	}
	if err := dto.Validate(f.fields); err != nil {
		n := models.Alert("Check your details", strings.TrimPrefix(err.Error(), dto.ErrInvalidInput.Error()+": "))
		f.notice = &n
		f.state = Invalid
		f.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidFields, err)
	}

	role, fields := f.role, f.fields
	meta := f.metadata()
	f.state = Submitting
	f.notice = nil
	f.mu.Unlock()

	actor, err := identity.SignUp(ctx, strings.TrimSpace(fields.Email), fields.Password, meta)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = Failed
		n := models.Alert("Registration failed", failureMessage(err))
		f.notice = &n
		return Result{}, fmt.Errorf("sign up %s: %w", role, err)
	}
	f.state = Succeeded
	n := models.Info("Account created!", "Welcome to AgriLinkChain. Please check your email for verification.")
	f.notice = &n
	return Result{Actor: actor, Redirect: LoginPath, ReferralCode: meta["referral_code"]}, nil
}

// metadata builds the identity metadata for the selected role. Callers hold f.mu.
func (f *Form) metadata() remote.Metadata {
	meta := remote.Metadata{"role": string(f.role)}
	switch f.role {
	case models.Agent:
		meta["referral_code"] = f.referral()
	case models.Farmer:
		if f.fields.ReferralCode != "" {
			meta["referred_by"] = f.fields.ReferralCode
		}
	}
	return meta
}

func (f *Form) evaluate() State {
	if f.role == "" {
		return RoleUnselected
	}
	if f.fields.Password != f.fields.ConfirmPassword {
		return Invalid
	}
	if err := dto.Validate(f.fields); err != nil {
		return Invalid
	}
	return Valid
}

func (f *Form) editable() error {
	switch f.state {
	case Submitting:
		return ErrBusy
	case Succeeded:
		return ErrFinished
	}
	return nil
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, remote.ErrAlreadyExists):
		return "An account with this email already exists."
	case errors.Is(err, remote.ErrWeakPassword):
		return fmt.Sprintf("Password should be at least %d characters.", remote.MinPasswordLength)
	default:
		return "An error occurred during sign up."
	}
}
