package providers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"

	"github.com/whereami-sh/whereami/geolib"
)

type ipwhoisResponse struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	Region      string   `json:"region"`
	City        string   `json:"city"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Timezone    struct {
		ID string `json:"id"`
	} `json:"timezone"`
}

type ipwhoisProvider struct {
	client geolib.HTTPClient
}

func (i ipwhoisProvider) Name() string {
	return NameIPWhois
}

func (i ipwhoisProvider) Lookup(ctx context.Context, ip net.IP) (geolib.ProviderResult, error) {
	result := geolib.ProviderResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipwho.is/"+ip.String(), nil)
	if err != nil {
		return result, fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("cannot send a request: %w", err)
	}

	defer func() {
		io.Copy(ioutil.Discard, resp.Body) // nolint: errcheck
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	jsonResponse := ipwhoisResponse{}
	jsonDecoder := json.NewDecoder(bufio.NewReader(resp.Body))

	if err := jsonDecoder.Decode(&jsonResponse); err != nil {
		return result, fmt.Errorf("cannot parse a response: %w", err)
	}

	// ipwho.is reports its own failures with HTTP 200 and a flag
	if !jsonResponse.Success {
		return result, fmt.Errorf("failed to geolocate: %s", jsonResponse.Message)
	}

	if jsonResponse.CountryCode == "" {
		return result, fmt.Errorf("response has no country code")
	}

	result.CountryCode = jsonResponse.CountryCode
	result.CountryName = jsonResponse.Country
	result.City = jsonResponse.City
	result.Region = jsonResponse.Region
	result.Timezone = jsonResponse.Timezone.ID
	result.Latitude = jsonResponse.Latitude
	result.Longitude = jsonResponse.Longitude

	return result, nil
}

func NewIPWhois(client geolib.HTTPClient) geolib.Provider {
	return ipwhoisProvider{
		client: client,
	}
}
