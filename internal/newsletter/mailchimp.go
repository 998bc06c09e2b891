package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Mailchimp subscribes members through the Mailchimp v3 lists API. The
// datacenter is taken from the API key suffix ("xxxx-us21").
type Mailchimp struct {
	apiKey  string
	listID  string
	baseURL string
	client  *http.Client
}

func NewMailchimp(apiKey, listID string) *Mailchimp {
	dc := "us1"
	if i := strings.LastIndex(apiKey, "-"); i >= 0 && i < len(apiKey)-1 {
		dc = apiKey[i+1:]
	}
	return &Mailchimp{
		apiKey:  apiKey,
		listID:  listID,
		baseURL: fmt.Sprintf("https://%s.api.mailchimp.com/3.0", dc),
		client:  newHTTPClient(),
	}
}

func (m *Mailchimp) Name() string { return "mailchimp" }

type mailchimpMember struct {
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
}

type mailchimpError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Subscribe adds the address to the list. An address that is already a
// member counts as success.
func (m *Mailchimp) Subscribe(ctx context.Context, sub Subscription) error {
	if err := ValidateEmail(sub.Email); err != nil {
		return err
	}

	member := mailchimpMember{
		EmailAddress: sub.Email,
		Status:       "subscribed",
	}
	if sub.FirstName != "" {
		member.MergeFields = map[string]string{"FNAME": sub.FirstName}
	}
	body, err := json.Marshal(member)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/lists/%s/members", m.baseURL, m.listID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth("anystring", m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr mailchimpError
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Title == "Member Exists" {
		return nil
	}
	return fmt.Errorf("%w: mailchimp returned %d: %s", ErrProviderFailure, resp.StatusCode, apiErr.Detail)
}
