package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// HTTPGateway talks to the bookmark service's REST API with a bearer token.
// It implements both AuthGateway and BookmarkStore.
type HTTPGateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPGateway(baseURL, token string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type successEnvelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type userPayload struct {
	Id       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

type bookmarkPayload struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	TargetURL string    `json:"target_url"`
	UserId    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CurrentIdentity resolves the token's user, or nil when the token is
// missing, expired, or unknown.
func (g *HTTPGateway) CurrentIdentity(ctx context.Context) (*Identity, error) {
	if g.token == "" {
		return nil, nil
	}

	var env successEnvelope[userPayload]
	status, err := g.do(ctx, http.MethodGet, "/api/user/v1/me", nil, &env)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("identity lookup returned status %d", status)
	}

	return &Identity{
		ID:       env.Data.Id,
		Email:    env.Data.Email,
		FullName: env.Data.FullName,
	}, nil
}

// SignInURL points at the service's OAuth entry. The service redirects to
// its configured client URL with a token after the provider round-trip;
// returnURL is carried for services that honor it.
func (g *HTTPGateway) SignInURL(provider, returnURL string) string {
	u := fmt.Sprintf("%s/api/auth/%s", g.baseURL, provider)
	if returnURL != "" {
		u += "?return_url=" + url.QueryEscape(returnURL)
	}
	return u
}

func (g *HTTPGateway) Select(ctx context.Context, ownerID uuid.UUID) ([]Bookmark, error) {
	var env successEnvelope[[]bookmarkPayload]
	status, err := g.do(ctx, http.MethodGet, "/api/bookmark/v1", nil, &env)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("bookmark fetch returned status %d", status)
	}

	items := make([]Bookmark, 0, len(env.Data))
	for _, p := range env.Data {
		// The server scopes every query to the token's owner. Skipping
		// foreign rows here is advisory, same as the subject filter.
		if p.UserId != ownerID {
			continue
		}
		items = append(items, Bookmark{
			ID:        p.Id,
			Title:     p.Title,
			TargetURL: p.TargetURL,
			OwnerID:   p.UserId,
			CreatedAt: p.CreatedAt,
		})
	}
	return items, nil
}

func (g *HTTPGateway) Insert(ctx context.Context, title, targetURL string) error {
	body := map[string]string{"title": title, "target_url": targetURL}
	status, err := g.do(ctx, http.MethodPost, "/api/bookmark/v1", body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("bookmark insert returned status %d", status)
	}
	return nil
}

func (g *HTTPGateway) Delete(ctx context.Context, id uuid.UUID) error {
	status, err := g.do(ctx, http.MethodDelete, "/api/bookmark/v1/"+id.String(), nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("bookmark delete returned status %d", status)
	}
	return nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
