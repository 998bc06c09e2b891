package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ConvertKit subscribes members through the ConvertKit v3 form API.
type ConvertKit struct {
	apiKey  string
	formID  string
	baseURL string
	client  *http.Client
}

func NewConvertKit(apiKey, formID string) *ConvertKit {
	return &ConvertKit{
		apiKey:  apiKey,
		formID:  formID,
		baseURL: "https://api.convertkit.com/v3",
		client:  newHTTPClient(),
	}
}

func (c *ConvertKit) Name() string { return "convertkit" }

type convertKitRequest struct {
	APIKey    string `json:"api_key"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
}

func (c *ConvertKit) Subscribe(ctx context.Context, sub Subscription) error {
	if err := ValidateEmail(sub.Email); err != nil {
		return err
	}

	body, err := json.Marshal(convertKitRequest{
		APIKey:    c.apiKey,
		Email:     sub.Email,
		FirstName: sub.FirstName,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/forms/%s/subscribe", c.baseURL, c.formID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("%w: convertkit returned %d", ErrProviderFailure, resp.StatusCode)
}
