//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
)

type accountInfo struct {
	ID           string
	Email        string
	Password     string
	AccessToken  string
	RefreshToken string
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func registerUser(t *testing.T, baseURL, email, password string) string {
	t.Helper()

	payload := map[string]string{
		"email":        email,
		"password":     password,
		"display_name": "Integration User",
		"profile_type": "student",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal register payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/register", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected register status: %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if out.ID == "" {
		t.Fatal("empty user id in register response")
	}
	return out.ID
}

func loginUser(t *testing.T, baseURL, email, password string) accountInfo {
	t.Helper()

	payload := map[string]string{"email": email, "password": password}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal login payload: %v", err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/auth/login", baseURL), "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected login status: %d", resp.StatusCode)
	}

	var out struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("incomplete token pair in login response")
	}

	return accountInfo{
		Email:        email,
		Password:     password,
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
	}
}

func createAccount(t *testing.T, baseURL, prefix string) accountInfo {
	t.Helper()

	email := fmt.Sprintf("%s-%d@example.com", prefix, uniqueSuffix())
	password := "testpassword123"
	id := registerUser(t, baseURL, email, password)

	info := loginUser(t, baseURL, email, password)
	info.ID = id
	return info
}
