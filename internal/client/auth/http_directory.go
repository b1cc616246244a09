package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

const (
	loginPath = "/api/auth/login"
	mePath    = "/api/auth/me"
)

// APIError is a failure reported by the auth API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: %d %s", e.Status, e.Message)
}

type apiUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
}

type apiResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	User    *apiUser `json:"user,omitempty"`
	Token   string   `json:"token,omitempty"`
}

func (u apiUser) account(token string) Account {
	return Account{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Avatar: u.Avatar,
		Role:   u.Role,
		Token:  token,
	}
}

// HTTPDirectory is a Directory backed by the auth API.
type HTTPDirectory struct {
	client *resty.Client
}

// NewHTTPDirectory returns a Directory that calls the API through client.
// The client's base URL must point at the server root.
func NewHTTPDirectory(client *resty.Client) *HTTPDirectory {
	return &HTTPDirectory{client: client}
}

func (d *HTTPDirectory) do(req *resty.Request, method, path string) (*apiResponse, error) {
	var out apiResponse
	resp, err := req.SetResult(&out).SetError(&out).Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() || !out.Success {
		return nil, &APIError{Status: resp.StatusCode(), Message: out.Message}
	}
	if out.User == nil {
		return nil, fmt.Errorf("%s %s: response without user", method, path)
	}
	return &out, nil
}

// Authenticate logs in with email and password.
func (d *HTTPDirectory) Authenticate(ctx context.Context, email, password string) (Account, error) {
	req := d.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password})

	out, err := d.do(req, http.MethodPost, loginPath)
	if err != nil {
		return Account{}, err
	}
	return out.User.account(out.Token), nil
}

// Resolve asks the API who owns token. An unknown token yields
// ErrInvalidToken.
func (d *HTTPDirectory) Resolve(ctx context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrInvalidToken
	}
	req := d.client.R().
		SetContext(ctx).
		SetAuthToken(token)

	out, err := d.do(req, http.MethodGet, mePath)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return Account{}, fmt.Errorf("%w: %s", ErrInvalidToken, apiErr.Message)
		}
		return Account{}, err
	}
	return out.User.account(token), nil
}

// Accounts re-validates every known account and returns the ones whose
// token is still accepted, with refreshed profiles.
func (d *HTTPDirectory) Accounts(ctx context.Context, known []Account) ([]Account, error) {
	out := make([]Account, 0, len(known))
	for _, a := range known {
		acct, err := d.Resolve(ctx, a.Token)
		if errors.Is(err, ErrInvalidToken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}
