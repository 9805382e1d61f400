package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pricewise/plus/pkg/entitlement"
)

// httpUserDirectory resolves user profiles from the account service over
// its internal REST API.
type httpUserDirectory struct {
	baseURL string
	client  *http.Client
}

func newUserDirectory(baseURL string) entitlement.UserDirectory {
	return &httpUserDirectory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *httpUserDirectory) Lookup(ctx context.Context, userID uuid.UUID) (*entitlement.UserProfile, error) {
	url := fmt.Sprintf("%s/internal/users/%s", d.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, entitlement.ErrUserNotFound
	default:
		return nil, fmt.Errorf("user service returned %d", resp.StatusCode)
	}

	var profile struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode user profile: %w", err)
	}
	return &entitlement.UserProfile{Email: profile.Email, Name: profile.Name}, nil
}
