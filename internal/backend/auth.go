package backend

import (
	"context"
	"net/http"

	"storefront/internal/model"
)

// Register creates an account. The confirmation field never leaves the client.
func (c *Client) Register(ctx context.Context, form model.RegisterForm) (*model.User, error) {
	body := map[string]string{
		"name":     form.Name,
		"email":    form.Email,
		"password": form.Password,
	}
	if form.Phone != "" {
		body["phone"] = form.Phone
	}
	var raw rawUser
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/register", json: body}, &raw); err != nil {
		return nil, err
	}
	return MapUser(&raw), nil
}

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, form model.LoginForm) (*model.LoginResult, error) {
	var raw rawLoginResponse
	body := map[string]string{"email": form.Email, "password": form.Password}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/auth/login", json: body}, &raw); err != nil {
		return nil, err
	}
	res := &model.LoginResult{Token: firstNonEmpty(raw.AccessToken, raw.Token)}
	if raw.User != nil {
		res.User = MapUser(raw.User)
	}
	return res, nil
}

// Logout revokes the bearer token. This is the only call that sends it.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/api/auth/logout", auth: authBearer}, nil)
}

// Me fetches the signed-in profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var raw rawUser
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/user/me", auth: authBasic}, &raw); err != nil {
		return nil, err
	}
	return MapUser(&raw), nil
}

// UpdateMe saves profile changes.
func (c *Client) UpdateMe(ctx context.Context, form model.ProfileForm) (*model.User, error) {
	var raw rawUser
	if err := c.do(ctx, request{method: http.MethodPut, path: "/api/user/me", auth: authBasic, json: form}, &raw); err != nil {
		return nil, err
	}
	return MapUser(&raw), nil
}

// ChangePassword updates the account password.
func (c *Client) ChangePassword(ctx context.Context, form model.PasswordForm) error {
	body := map[string]string{
		"current_password": form.CurrentPassword,
		"new_password":     form.NewPassword,
	}
	return c.do(ctx, request{method: http.MethodPut, path: "/api/user/me/password", auth: authBasic, json: body}, nil)
}
