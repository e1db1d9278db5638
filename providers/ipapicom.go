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

type ipapicomResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	RegionName  string   `json:"regionName"`
	City        string   `json:"city"`
	Timezone    string   `json:"timezone"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

// ipapicomProvider is the deep fallback: ip-api.com serves its free
// tier over plain HTTP only, so this one runs after every encrypted
// primary has already failed.
type ipapicomProvider struct {
	client geolib.HTTPClient
}

func (i ipapicomProvider) Name() string {
	return NameIPAPICo
}

func (i ipapicomProvider) Lookup(ctx context.Context, ip net.IP) (geolib.ProviderResult, error) {
	result := geolib.ProviderResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		"http://ip-api.com/json/"+ip.String(), nil)
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

	jsonResponse := ipapicomResponse{}
	jsonDecoder := json.NewDecoder(bufio.NewReader(resp.Body))

	if err := jsonDecoder.Decode(&jsonResponse); err != nil {
		return result, fmt.Errorf("cannot parse a response: %w", err)
	}

	if jsonResponse.Status != "success" {
		return result, fmt.Errorf("failed to geolocate: %s", jsonResponse.Message)
	}

	if jsonResponse.CountryCode == "" {
		return result, fmt.Errorf("response has no country code")
	}

	result.CountryCode = jsonResponse.CountryCode
	result.CountryName = jsonResponse.Country
	result.City = jsonResponse.City
	result.Region = jsonResponse.RegionName
	result.Timezone = jsonResponse.Timezone
	result.Latitude = jsonResponse.Lat
	result.Longitude = jsonResponse.Lon

	return result, nil
}

func NewIPAPICo(client geolib.HTTPClient) geolib.Provider {
	return ipapicomProvider{
		client: client,
	}
}
