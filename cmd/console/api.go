package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jwebster45206/button-commands/internal/admin"
	"github.com/jwebster45206/button-commands/internal/handlers"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/pkg/host"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// doJSON sends body (when non-nil) and decodes a response with one of the
// accepted status codes into out.
func doJSON(client *http.Client, method, url string, body, out any, accepted ...int) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	ok := false
	for _, code := range accepted {
		if resp.StatusCode == code {
			ok = true
			break
		}
	}
	if !ok {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, errorResp.Error)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func pressButton(client *http.Client, baseURL string, btn host.ButtonSnapshot, player host.PlayerSnapshot) (*press.Result, error) {
	var res press.Result
	req := handlers.PressRequest{Button: &btn, Player: &player}
	if err := doJSON(client, http.MethodPost, baseURL+"/v1/press", req, &res, http.StatusOK); err != nil {
		return nil, err
	}
	return &res, nil
}

func registerButton(client *http.Client, baseURL string, player host.PlayerSnapshot, sight host.Sight) (*admin.Outcome, error) {
	var out admin.Outcome
	req := handlers.RegisterRequest{Player: &player, Sight: sight}
	if err := doJSON(client, http.MethodPost, baseURL+"/v1/buttons/register", req, &out, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func listButtons(client *http.Client, baseURL string) (*handlers.ButtonListResponse, error) {
	var list handlers.ButtonListResponse
	if err := doJSON(client, http.MethodGet, baseURL+"/v1/buttons", nil, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return &list, nil
}

func getButton(client *http.Client, baseURL string, id uint64) (*handlers.ButtonResponse, error) {
	var b handlers.ButtonResponse
	if err := doJSON(client, http.MethodGet, fmt.Sprintf("%s/v1/buttons/%d", baseURL, id), nil, &b, http.StatusOK); err != nil {
		return nil, err
	}
	return &b, nil
}
