package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MedReportAgent/internal/config"
	"MedReportAgent/internal/domain"
	"MedReportAgent/internal/ports"
)

const (
	ipEndpoint  = "https://api.ipify.org?format=json"
	geoEndpoint = "https://api.ipgeolocation.io/ipgeo"
)

// Locator resolves the machine's public IP and looks up its city through
// the ipgeolocation.io API.
type Locator struct {
	apiKey     string
	ipURL      string
	geoURL     string
	httpClient *http.Client
}

var _ ports.Locator = (*Locator)(nil)

func NewLocator(cfg config.GeoConfig) *Locator {
	return &Locator{
		apiKey: cfg.APIKey,
		ipURL:  ipEndpoint,
		geoURL: geoEndpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type ipResponse struct {
	IP string `json:"ip"`
}

type geoResponse struct {
	City        string `json:"city"`
	StateProv   string `json:"state_prov"`
	CountryName string `json:"country_name"`
}

// Locate returns the coarse location of the current public IP address.
func (l *Locator) Locate(ctx context.Context) (domain.Location, error) {
	ip, err := l.publicIP(ctx)
	if err != nil {
		return domain.Location{}, fmt.Errorf("resolve public ip: %w", err)
	}

	query := url.Values{}
	query.Set("apiKey", l.apiKey)
	query.Set("ip", ip)
	query.Set("fields", "city,state_prov,country_name")

	var parsed geoResponse
	if err := l.getJSON(ctx, l.geoURL+"?"+query.Encode(), &parsed); err != nil {
		return domain.Location{}, fmt.Errorf("lookup geolocation: %w", err)
	}
	if parsed.City == "" {
		return domain.Location{}, fmt.Errorf("geolocation response has no city")
	}

	return domain.Location{
		City:    parsed.City,
		State:   parsed.StateProv,
		Country: parsed.CountryName,
	}, nil
}

func (l *Locator) publicIP(ctx context.Context) (string, error) {
	var parsed ipResponse
	if err := l.getJSON(ctx, l.ipURL, &parsed); err != nil {
		return "", err
	}
	ip := strings.TrimSpace(parsed.IP)
	if ip == "" {
		return "", fmt.Errorf("ip service returned an empty address")
	}
	return ip, nil
}

func (l *Locator) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("service returned %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
