//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestRegisterAndLoginFlow(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	account := createAccount(t, baseURL, "auth-flow")
	if account.ID == "" {
		t.Fatal("user ID is empty")
	}
	if account.AccessToken == "" || account.RefreshToken == "" {
		t.Fatal("incomplete token pair")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	account := createAccount(t, baseURL, "wrong-pass")

	payload, _ := json.Marshal(map[string]string{"email": account.Email, "password": "not-the-password"})
	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/login", baseURL), "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestMeRequiresToken(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")

	resp, err := http.Get(fmt.Sprintf("%s/v1/users/me", baseURL))
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestMeReturnsProfile(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	account := createAccount(t, baseURL, "me-profile")

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/users/me", baseURL), nil)
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		ProfileType string `json:"profile_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if out.Email != account.Email {
		t.Fatalf("profile email mismatch: %q vs %q", out.Email, account.Email)
	}
	if out.ProfileType != "student" {
		t.Fatalf("unexpected profile type: %q", out.ProfileType)
	}
}

func TestRefreshTokenFlow(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	account := createAccount(t, baseURL, "refresh")

	payload, _ := json.Marshal(map[string]string{"refresh_token": account.RefreshToken})
	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/refresh", baseURL), "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("refresh request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode refresh response: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("incomplete refreshed token pair")
	}
}
