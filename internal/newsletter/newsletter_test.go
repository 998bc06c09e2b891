package newsletter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zoptal/collabd/internal/config"
)

func TestNew(t *testing.T) {
	p, err := New(config.NewsletterConfig{Provider: "mailchimp", APIKey: "k-us21", ListID: "l1"})
	require.NoError(t, err)
	require.Equal(t, "mailchimp", p.Name())

	p, err = New(config.NewsletterConfig{Provider: "convertkit", APIKey: "k", ListID: "f1"})
	require.NoError(t, err)
	require.Equal(t, "convertkit", p.Name())

	_, err = New(config.NewsletterConfig{Provider: "sendgrid"})
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestValidateEmail(t *testing.T) {
	require.NoError(t, ValidateEmail("ana@example.com"))
	require.ErrorIs(t, ValidateEmail(""), ErrInvalidEmail)
	require.ErrorIs(t, ValidateEmail("not-an-email"), ErrInvalidEmail)
}

func TestMailchimp_DatacenterFromKey(t *testing.T) {
	m := NewMailchimp("abc123-us21", "list1")
	require.Equal(t, "https://us21.api.mailchimp.com/3.0", m.baseURL)

	m = NewMailchimp("nokey", "list1")
	require.Equal(t, "https://us1.api.mailchimp.com/3.0", m.baseURL)
}

func TestMailchimp_Subscribe(t *testing.T) {
	var got mailchimpMember
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/lists/list1/members", r.URL.Path)
		_, key, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "abc-us21", key)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMailchimp("abc-us21", "list1")
	m.baseURL = srv.URL

	err := m.Subscribe(context.Background(), Subscription{Email: "ana@example.com", FirstName: "Ana"})
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", got.EmailAddress)
	require.Equal(t, "subscribed", got.Status)
	require.Equal(t, "Ana", got.MergeFields["FNAME"])
}

func TestMailchimp_MemberExistsIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(mailchimpError{Title: "Member Exists"})
	}))
	defer srv.Close()

	m := NewMailchimp("abc-us21", "list1")
	m.baseURL = srv.URL

	require.NoError(t, m.Subscribe(context.Background(), Subscription{Email: "ana@example.com"}))
}

func TestMailchimp_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(mailchimpError{Title: "Forbidden", Detail: "bad key"})
	}))
	defer srv.Close()

	m := NewMailchimp("abc-us21", "list1")
	m.baseURL = srv.URL

	err := m.Subscribe(context.Background(), Subscription{Email: "ana@example.com"})
	require.ErrorIs(t, err, ErrProviderFailure)
}

func TestMailchimp_RejectsInvalidEmailWithoutCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	m := NewMailchimp("abc-us21", "list1")
	m.baseURL = srv.URL

	require.ErrorIs(t, m.Subscribe(context.Background(), Subscription{Email: "nope"}), ErrInvalidEmail)
	require.False(t, called)
}

func TestConvertKit_Subscribe(t *testing.T) {
	var got convertKitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/forms/form1/subscribe", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ck := NewConvertKit("secret", "form1")
	ck.baseURL = srv.URL

	err := ck.Subscribe(context.Background(), Subscription{Email: "ben@example.com", FirstName: "Ben"})
	require.NoError(t, err)
	require.Equal(t, "secret", got.APIKey)
	require.Equal(t, "ben@example.com", got.Email)
}

func TestConvertKit_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ck := NewConvertKit("secret", "form1")
	ck.baseURL = srv.URL

	require.ErrorIs(t, ck.Subscribe(context.Background(), Subscription{Email: "ben@example.com"}), ErrProviderFailure)
}
