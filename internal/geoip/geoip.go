// Package geoip resolves the approximate location of a visitor IP through
// free geolocation APIs.
package geoip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrInvalidIP indicates the input is not a parseable IP address.
	ErrInvalidIP = errors.New("invalid ip address")
	// ErrLookupFailed indicates every configured upstream failed.
	ErrLookupFailed = errors.New("geolocation lookup failed")
)

// Location is the resolved position for an IP.
type Location struct {
	IP          string  `json:"ip"`
	City        string  `json:"city"`
	Region      string  `json:"region"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone,omitempty"`
	Source      string  `json:"source"`
}

// Client queries ip-api.com and falls back to BigDataCloud when the primary
// is unreachable or over quota.
type Client struct {
	primaryURL  string
	fallbackURL string
	fallbackKey string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(bigDataCloudKey string, logger *slog.Logger) *Client {
	return &Client{
		primaryURL:  "http://ip-api.com/json",
		fallbackURL: "https://api.bigdatacloud.net/data/ip-geolocation",
		fallbackKey: bigDataCloudKey,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		logger:      logger,
	}
}

// SetPrimaryURL overrides the primary upstream endpoint.
func (c *Client) SetPrimaryURL(url string) {
	c.primaryURL = url
}

// SetFallbackURL overrides the fallback upstream endpoint.
func (c *Client) SetFallbackURL(url string) {
	c.fallbackURL = url
}

// Lookup resolves one IP. The primary source is tried first; its failure is
// logged and the fallback answers instead.
func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIP, ip)
	}

	loc, err := c.lookupIPAPI(ctx, ip)
	if err == nil {
		return loc, nil
	}
	c.logger.Warn("primary geolocation source failed", "ip", ip, "error", err)

	loc, fbErr := c.lookupBigDataCloud(ctx, ip)
	if fbErr == nil {
		return loc, nil
	}
	return nil, fmt.Errorf("%w: primary: %v, fallback: %v", ErrLookupFailed, err, fbErr)
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	City        string  `json:"city"`
	RegionName  string  `json:"regionName"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
}

func (c *Client) lookupIPAPI(ctx context.Context, ip string) (*Location, error) {
	reqURL := fmt.Sprintf("%s/%s?fields=status,message,city,regionName,country,countryCode,lat,lon,timezone", c.primaryURL, ip)
	var body ipAPIResponse
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		return nil, err
	}
	if body.Status != "success" {
		return nil, fmt.Errorf("ip-api: %s", body.Message)
	}
	return &Location{
		IP:          ip,
		City:        body.City,
		Region:      body.RegionName,
		Country:     body.Country,
		CountryCode: body.CountryCode,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
		Timezone:    body.Timezone,
		Source:      "ip-api",
	}, nil
}

type bigDataCloudResponse struct {
	Country struct {
		Name    string `json:"name"`
		IsoCode string `json:"isoAlpha2"`
	} `json:"country"`
	Location struct {
		City      string  `json:"city"`
		Region    string  `json:"principalSubdivision"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		TimeZone  struct {
			IanaTimeID string `json:"ianaTimeId"`
		} `json:"timeZone"`
	} `json:"location"`
}

func (c *Client) lookupBigDataCloud(ctx context.Context, ip string) (*Location, error) {
	q := url.Values{}
	q.Set("ip", ip)
	if c.fallbackKey != "" {
		q.Set("key", c.fallbackKey)
	}
	var body bigDataCloudResponse
	if err := c.getJSON(ctx, c.fallbackURL+"?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	if body.Country.Name == "" && body.Location.City == "" {
		return nil, errors.New("bigdatacloud: empty response")
	}
	return &Location{
		IP:          ip,
		City:        body.Location.City,
		Region:      body.Location.Region,
		Country:     body.Country.Name,
		CountryCode: body.Country.IsoCode,
		Latitude:    body.Location.Latitude,
		Longitude:   body.Location.Longitude,
		Timezone:    body.Location.TimeZone.IanaTimeID,
		Source:      "bigdatacloud",
	}, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
