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

type ipapiResponse struct {
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
	CountryCode string   `json:"country_code"`
	CountryName string   `json:"country_name"`
	Region      string   `json:"region"`
	City        string   `json:"city"`
	Timezone    string   `json:"timezone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type ipapiProvider struct {
	client geolib.HTTPClient
}

func (i ipapiProvider) Name() string {
	return NameIPAPI
}

func (i ipapiProvider) Lookup(ctx context.Context, ip net.IP) (geolib.ProviderResult, error) {
	result := geolib.ProviderResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"https://ipapi.co/"+ip.String()+"/json/", nil)
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

	jsonResponse := ipapiResponse{}
	jsonDecoder := json.NewDecoder(bufio.NewReader(resp.Body))

	if err := jsonDecoder.Decode(&jsonResponse); err != nil {
		return result, fmt.Errorf("cannot parse a response: %w", err)
	}

	if jsonResponse.Error {
		return result, fmt.Errorf("failed to geolocate: %s", jsonResponse.Reason)
	}

	if jsonResponse.CountryCode == "" {
		return result, fmt.Errorf("response has no country code")
	}

	result.CountryCode = jsonResponse.CountryCode
	result.CountryName = jsonResponse.CountryName
	result.City = jsonResponse.City
	result.Region = jsonResponse.Region
	result.Timezone = jsonResponse.Timezone
	result.Latitude = jsonResponse.Latitude
	result.Longitude = jsonResponse.Longitude

	return result, nil
}

func NewIPAPI(client geolib.HTTPClient) geolib.Provider {
	return ipapiProvider{
		client: client,
	}
}
