package token

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const resolveTimeout = 5 * time.Second

// MedusaResolver resolves users against the Medusa commerce backend: sellers
// via the vendor surface, customers via the store surface.
type MedusaResolver struct {
	baseURL        string
	publishableKey string
	client         *http.Client
}

func NewMedusaResolver(baseURL, publishableKey string) *MedusaResolver {
	return &MedusaResolver{
		baseURL:        strings.TrimRight(baseURL, "/"),
		publishableKey: publishableKey,
		client:         &http.Client{Timeout: resolveTimeout},
	}
}

var _ IdentityResolver = (*MedusaResolver)(nil)

type medusaUser struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email"`
}

type medusaMeResponse struct {
	Seller   *medusaUser `json:"seller"`
	Customer *medusaUser `json:"customer"`
}

// Resolve calls the role-specific "me" endpoint with the upstream bearer
// token. Any transport failure, non-2xx status, or missing user id is an
// authentication failure.
func (r *MedusaResolver) Resolve(ctx context.Context, bearer, role string) (*Identity, error) {
	if r.baseURL == "" || bearer == "" {
		return nil, ErrUnauthenticated
	}

	endpoint := "/store/customers/me"
	if role == "seller" {
		endpoint = "/vendor/sellers/me"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("medusa: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if r.publishableKey != "" {
		req.Header.Set("x-publishable-api-key", r.publishableKey)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, ErrUnauthenticated
	}

	var body medusaMeResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, ErrUnauthenticated
	}

	user := body.Customer
	normalizedRole := "customer"
	if role == "seller" {
		user = body.Seller
		normalizedRole = "seller"
	}
	if user == nil || user.ID == "" {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		ID:    user.ID,
		Name:  displayName(user),
		Email: user.Email,
		Role:  normalizedRole,
	}, nil
}

func displayName(u *medusaUser) string {
	if u.Name != "" {
		return u.Name
	}
	var parts []string
	if u.FirstName != "" {
		parts = append(parts, u.FirstName)
	}
	if u.LastName != "" {
		parts = append(parts, u.LastName)
	}
	return strings.Join(parts, " ")
}
