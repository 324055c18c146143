package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/auth"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/idp"
)

// AccountProvider is the identity provider's account API.
type AccountProvider interface {
	SignUp(ctx context.Context, email, password string) (*idp.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*idp.Session, error)
	SignInWithIdP(ctx context.Context, providerID, idToken, requestURI string) (*idp.Session, error)
	SendPasswordReset(ctx context.Context, email string) error
}

// SessionMinter issues server-side session tokens. When nil the provider's
// ID token is handed back to the client instead.
type SessionMinter interface {
	Issue(uid, email string) (*auth.Principal, error)
}

type Handler struct {
	svc      *Service
	accounts AccountProvider
	minter   SessionMinter
	revoked  auth.RevocationStore
}

func NewHandler(svc *Service, accounts AccountProvider, minter SessionMinter, revoked auth.RevocationStore) *Handler {
	return &Handler{svc: svc, accounts: accounts, minter: minter, revoked: revoked}
}

// RegisterPublicRoutes mounts the unauthenticated account endpoints.
func (h *Handler) RegisterPublicRoutes(public *echo.Group) {
	public.POST("/auth/register", h.SignUp)
	public.POST("/auth/login", h.Login)
	public.POST("/auth/google", h.GoogleLogin)
	public.POST("/auth/password-reset", h.PasswordReset)
}

// RegisterRoutes mounts the endpoints that need a verified principal but no
// role record.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/me", h.GetProfile)
	api.PUT("/me", h.UpdateProfile)
	api.POST("/me", h.RegisterSelf)
	api.POST("/auth/logout", h.Logout)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	credentials
	Registration
}

// SessionResponse is returned by every sign-in flow.
type SessionResponse struct {
	Token      string      `json:"token"`
	ExpiresAt  time.Time   `json:"expires_at"`
	Registered bool        `json:"registered"`
	Resolution *Resolution `json:"resolution,omitempty"`
}

func (h *Handler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	if err := h.svc.CheckRegistration(&req.Registration); err != nil {
		return h.mapError(c, err)
	}
	ctx := c.Request().Context()
	if h.accounts == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "identity provider not configured")
	}

	sess, err := h.accounts.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return h.mapProviderError(c, err)
	}
	ctx = withSession(ctx, sess)
	rec, err := h.svc.Register(ctx, sess.UID, sess.Email, &req.Registration)
	if err != nil {
		// The provider account exists without a role record; the user can
		// complete registration later through POST /me.
		zerolog.Ctx(ctx).Warn().Err(err).Str("uid", sess.UID).Msg("sign-up succeeded but role registration failed")
		return h.mapError(c, err)
	}

	out, err := h.session(sess)
	if err != nil {
		return h.mapError(c, err)
	}
	out.Registered = true
	out.Resolution = &Resolution{Kind: rec.Kind(), Role: string(rec.Kind()), Title: rec.Kind().Title(), Record: rec}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}
	if h.accounts == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "identity provider not configured")
	}
	ctx := c.Request().Context()

	sess, err := h.accounts.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return h.mapProviderError(c, err)
	}
	ctx = withSession(ctx, sess)
	res, err := h.svc.Resolver().Resolve(ctx, sess.UID)
	if err != nil {
		return h.mapError(c, err)
	}

	out, err := h.session(sess)
	if err != nil {
		return h.mapError(c, err)
	}
	out.Registered = true
	out.Resolution = res
	return c.JSON(http.StatusOK, out)
}

// GoogleLogin exchanges a Google credential. Unlike password login, a
// principal without a role record still gets a session so it can register.
func (h *Handler) GoogleLogin(c echo.Context) error {
	var req struct {
		IDToken    string `json:"id_token"`
		RequestURI string `json:"request_uri"`
	}
	if err := c.Bind(&req); err != nil || req.IDToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id_token is required")
	}
	if h.accounts == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "identity provider not configured")
	}
	ctx := c.Request().Context()

	sess, err := h.accounts.SignInWithIdP(ctx, "google.com", req.IDToken, req.RequestURI)
	if err != nil {
		return h.mapProviderError(c, err)
	}
	ctx = withSession(ctx, sess)
	out, err := h.session(sess)
	if err != nil {
		return h.mapError(c, err)
	}

	res, err := h.svc.Resolver().Resolve(ctx, sess.UID)
	switch {
	case err == nil:
		out.Registered = true
		out.Resolution = res
	case errors.Is(err, ErrRoleNotFound):
	default:
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PasswordReset always answers 202 so the endpoint cannot be used to probe
// which emails have accounts.
func (h *Handler) PasswordReset(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || !strings.Contains(req.Email, "@") {
		return echo.NewHTTPError(http.StatusBadRequest, "valid email is required")
	}
	if h.accounts == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "identity provider not configured")
	}
	ctx := c.Request().Context()
	if err := h.accounts.SendPasswordReset(ctx, req.Email); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("password reset request failed")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if h.revoked != nil && p.TokenID != "" {
		if err := h.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("uid", p.UID).Msg("revoke session failed")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "could not sign out, try again")
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	res, err := h.svc.Profile(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var u ProfileUpdate
	if err := c.Bind(&u); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	res, err := h.svc.UpdateProfile(ctx, auth.UserIDFromContext(ctx), &u)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// RegisterSelf creates the role record for an already authenticated
// principal, for example after a federated sign-in.
func (h *Handler) RegisterSelf(c echo.Context) error {
	var reg Registration
	if err := c.Bind(&reg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	rec, err := h.svc.Register(ctx, p.UID, p.Email, &reg)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusCreated, rec)
}

// withSession makes the freshly signed-in user the request principal, so
// stores that forward the caller's bearer act as that user.
func withSession(ctx context.Context, sess *idp.Session) context.Context {
	return auth.WithPrincipal(ctx, &auth.Principal{
		UID:       sess.UID,
		Email:     sess.Email,
		ExpiresAt: time.Now().Add(sess.ExpiresIn),
		Token:     sess.IDToken,
	})
}

func (h *Handler) session(sess *idp.Session) (*SessionResponse, error) {
	if h.minter != nil {
		p, err := h.minter.Issue(sess.UID, sess.Email)
		if err != nil {
			return nil, err
		}
		return &SessionResponse{Token: p.Token, ExpiresAt: p.ExpiresAt}, nil
	}
	return &SessionResponse{Token: sess.IDToken, ExpiresAt: time.Now().Add(sess.ExpiresIn)}, nil
}

func (h *Handler) mapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrRoleNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrRoleNotFound.Error())
	case errors.Is(err, ErrAlreadyRegistered):
		return echo.NewHTTPError(http.StatusConflict, ErrAlreadyRegistered.Error())
	case errors.Is(err, ErrAdminSignupDisabled):
		return echo.NewHTTPError(http.StatusForbidden, ErrAdminSignupDisabled.Error())
	case errors.Is(err, ErrEmptyIdentity), errors.Is(err, graphql.ErrNoCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidKind):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("identity request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}

func (h *Handler) mapProviderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, idp.ErrEmailExists):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	case errors.Is(err, idp.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, idp.ErrWeakPassword):
		return echo.NewHTTPError(http.StatusBadRequest, "password too weak")
	case errors.Is(err, idp.ErrUserDisabled):
		return echo.NewHTTPError(http.StatusForbidden, "account disabled")
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("identity provider call failed")
	return echo.NewHTTPError(http.StatusBadGateway, "identity provider unavailable")
}
