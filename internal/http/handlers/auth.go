package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/agrilinkchain/agrilink/internal/http/respond"
	"github.com/agrilinkchain/agrilink/internal/middleware"
	"github.com/agrilinkchain/agrilink/internal/models"
	"github.com/agrilinkchain/agrilink/internal/models/dto"
	"github.com/agrilinkchain/agrilink/internal/navigation"
	"github.com/agrilinkchain/agrilink/internal/remote"
	"github.com/agrilinkchain/agrilink/internal/session"
	"github.com/agrilinkchain/agrilink/internal/signup"
)

// AuthHandler owns sign-in, sign-up, sign-out, and session endpoints.
type AuthHandler struct {
	identity     remote.Identity
	resolver     *session.Resolver
	log          *zap.Logger
	cookieSecure bool
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(identity remote.Identity, resolver *session.Resolver, log *zap.Logger, cookieSecure bool) *AuthHandler {
	return &AuthHandler{identity: identity, resolver: resolver, log: log, cookieSecure: cookieSecure}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signin", h.handleSignIn)
		r.Get("/signup", h.handleSignUpForm)
		r.Post("/signup", h.handleSignUp)
		r.Post("/signout", h.handleSignOut)
	})
	r.Get("/api/session", h.handleSession)
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required",
			models.Alert("Login failed", "Invalid email or password."))
		return
	}

	res, err := h.resolver.SignIn(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		status := statusFor(err)
		description := "Invalid email or password."
		if status >= http.StatusInternalServerError {
			h.log.Warn("sign in failed", zap.String("request_id", middleware.RequestID(r.Context())), zap.Error(err))
			description = "Sign in is unavailable right now."
		}
		respond.Error(w, status, "login failed", models.Alert("Login failed", description))
		return
	}

	h.setCookie(w, res.Session.ID, res.Session.ExpiresAt)
	respond.JSON(w, http.StatusOK, "login successful",
		dto.SignInResponse{Redirect: res.Redirect, Role: res.Session.Actor.Role()},
		models.Info("Welcome back!", "Successfully signed in."))
}

// signUpForm is the state of the registration form as shown to the client.
type signUpForm struct {
	Role         models.Role   `json:"role,omitempty"`
	Roles        []models.Role `json:"roles"`
	State        string        `json:"state"`
	CanSubmit    bool          `json:"can_submit"`
	Email        string        `json:"email,omitempty"`
	ReferralCode string        `json:"referral_code,omitempty"`
}

func formView(f *signup.Form) signUpForm {
	fields := f.Fields()
	return signUpForm{
		Role:         f.Role(),
		Roles:        models.SignUpRoles,
		State:        f.State().String(),
		CanSubmit:    f.CanSubmit(),
		Email:        fields.Email,
		ReferralCode: fields.ReferralCode,
	}
}

func (h *AuthHandler) handleSignUpForm(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", formView(signup.NewForm(r.URL.Query().Get("role"))))
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	form := signup.NewForm("")
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err == nil {
			err = form.SelectRole(role)
		}
		if err != nil {
			respond.Error(w, http.StatusBadRequest, signup.ErrRoleNotAllowed.Error(),
				models.Alert("Role required", "Please choose farmer, buyer or agent."))
			return
		}
	}
	if err := form.Edit(signup.Fields{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		ReferralCode:    req.ReferralCode,
	}); err != nil {
		respond.Error(w, statusFor(err), err.Error())
		return
	}

	res, err := form.Submit(r.Context(), h.identity)
	if err != nil {
		var notices []models.Notice
		if n := form.Notice(); n != nil {
			notices = append(notices, *n)
		}
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.log.Warn("sign up failed", zap.String("request_id", middleware.RequestID(r.Context())), zap.Error(err))
		}
		respond.JSON(w, status, errorMessage(err), formView(form), notices...)
		return
	}

	var notices []models.Notice
	if n := form.Notice(); n != nil {
		notices = append(notices, *n)
	}
	respond.JSON(w, http.StatusCreated, "account created",
		dto.SignUpResponse{Redirect: res.Redirect, ReferralCode: res.ReferralCode}, notices...)
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookie); err == nil {
		if err := h.resolver.SignOut(r.Context(), cookie.Value); err != nil {
			h.log.Warn("sign out", zap.String("request_id", middleware.RequestID(r.Context())), zap.Error(err))
		}
	}
	h.clearCookie(w)
	respond.JSON(w, http.StatusOK, "signed out", map[string]string{"redirect": navigation.SignOutPath})
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	rec, ok := middleware.SessionFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, remote.ErrNoSession.Error())
		return
	}
	role := rec.Actor.Role()
	respond.JSON(w, http.StatusOK, "ok", dto.SessionResponse{
		UserID: rec.Actor.ID,
		Email:  rec.Actor.Email,
		Role:   role,
		Home:   session.Redirect(role),
	})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func errorMessage(err error) string {
	for _, known := range []error{
		signup.ErrRoleRequired,
		signup.ErrPasswordMismatch,
		signup.ErrInvalidFields,
		remote.ErrAlreadyExists,
		remote.ErrWeakPassword,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "registration failed"
}
