package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/espacios"
	"github.com/02loveslollipop/edificios-dashboard/services/dashboard/metrics"
)

// Reason codes the identity endpoint returns in {"error": ...}.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeInvalidUser  = "INVALID_USER"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("backend: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Code)
}

// User is the identity payload of GET /api/user/me.
type User struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    string `json:"rol"`
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// CookieName is the session cookie the backend also accepts the token in.
	CookieName string
	// RotatedTokenHeader carries a refreshed token on identity responses.
	RotatedTokenHeader string
	HTTPClient         *http.Client
}

// Client talks to the facilities backend on behalf of one user token per call.
type Client struct {
	baseURL      string
	cookieName   string
	rotateHeader string
	http         *http.Client
}

// New builds a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		cookieName:   opts.CookieName,
		rotateHeader: opts.RotatedTokenHeader,
		http:         hc,
	}
}

// Me verifies token and returns the user plus any rotated token.
func (c *Client) Me(ctx context.Context, token string) (User, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/user/me", token, nil)
	if err != nil {
		return User{}, "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return User{}, "", err
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return User{}, "", eris.Wrap(err, "backend: decode user")
	}

	var rotated string
	if c.rotateHeader != "" {
		rotated = strings.TrimSpace(resp.Header.Get(c.rotateHeader))
	}
	return user, rotated, nil
}

// GroupedMetrics fetches the grouped building statistics for the given sedes.
func (c *Client) GroupedMetrics(ctx context.Context, token string, idsSedes []int) ([]metrics.MetricRecord, error) {
	if idsSedes == nil {
		idsSedes = []int{}
	}
	body, err := json.Marshal(struct {
		IDsSedes []int `json:"ids_sedes"`
	}{IDsSedes: idsSedes})
	if err != nil {
		return nil, eris.Wrap(err, "backend: encode metrics request")
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/edificios/metricas-agrupadas", token, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return metrics.DecodeRecords(resp.Body)
}

// ListEspacios fetches every espacio of a building.
func (c *Client) ListEspacios(ctx context.Context, token string, edificioID int) ([]espacios.Espacio, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/edificios/%d/espacios", edificioID), token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var payload struct {
		Data []espacios.Espacio `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, eris.Wrap(err, "backend: decode espacios")
	}
	if payload.Data == nil {
		payload.Data = []espacios.Espacio{}
	}
	return payload.Data, nil
}

// UpdateEspacio saves e and returns the backend's stored version.
func (c *Client) UpdateEspacio(ctx context.Context, token string, e espacios.Espacio) (espacios.Espacio, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return espacios.Espacio{}, eris.Wrap(err, "backend: encode espacio")
	}

	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/espacios/%d", e.ID), token, body)
	if err != nil {
		return espacios.Espacio{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return espacios.Espacio{}, err
	}

	var payload struct {
		Data *espacios.Espacio `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && err != io.EOF {
		return espacios.Espacio{}, eris.Wrap(err, "backend: decode espacio")
	}
	if payload.Data == nil {
		// backend acknowledged without echoing the row
		return e, nil
	}
	return *payload.Data, nil
}

// DeleteEspacio removes an espacio.
func (c *Client) DeleteEspacio(ctx context.Context, token string, id int) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/espacios/%d", id), token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, eris.Wrapf(err, "backend: build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
		if c.cookieName != "" {
			req.AddCookie(&http.Cookie{Name: c.cookieName, Value: token})
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "backend: %s %s", method, path)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload); err == nil {
		apiErr.Code = payload.Error
	}
	return apiErr
}
