package providers_test

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"

	"github.com/whereami-sh/whereami/geolib"
	"github.com/whereami-sh/whereami/providers"
)

type MockedIPAPICoTestSuite struct {
	MockedProviderTestSuite

	prov geolib.Provider
}

func (suite *MockedIPAPICoTestSuite) SetupTest() {
	suite.MockedProviderTestSuite.SetupTest()

	suite.prov = providers.NewIPAPICo(suite.http)
}

func (suite *MockedIPAPICoTestSuite) TestName() {
	suite.Equal(providers.NameIPAPICo, suite.prov.Name())
}

func (suite *MockedIPAPICoTestSuite) TestLookupClosedContext() {
	ctx, cancel := context.WithCancel(context.Background())

	cancel()

	_, err := suite.prov.Lookup(ctx, net.ParseIP("23.22.13.113"))

	suite.Error(err)
}

func (suite *MockedIPAPICoTestSuite) TestLookupFailed() {
	httpmock.RegisterResponder("GET",
		"http://ip-api.com/json/23.22.13.113",
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	_, err := suite.prov.Lookup(context.Background(),
		net.ParseIP("23.22.13.113"))

	suite.Error(err)
}

func (suite *MockedIPAPICoTestSuite) TestLookupBadJSON() {
	httpmock.RegisterResponder("GET",
		"http://ip-api.com/json/23.22.13.113",
		httpmock.NewStringResponder(http.StatusOK, `{[`))

	_, err := suite.prov.Lookup(context.Background(),
		net.ParseIP("23.22.13.113"))

	suite.Error(err)
}

func (suite *MockedIPAPICoTestSuite) TestLookupInternalFailure() {
	// ip-api.com always responds 200; failures live in the body
	httpmock.RegisterResponder("GET",
		"http://ip-api.com/json/23.22.13.113",
		httpmock.NewStringResponder(http.StatusOK, `{
  "status": "fail",
  "message": "private range",
  "query": "23.22.13.113"
}`))

	_, err := suite.prov.Lookup(context.Background(),
		net.ParseIP("23.22.13.113"))

	suite.Error(err)
	suite.Contains(err.Error(), "private range")
}

func (suite *MockedIPAPICoTestSuite) TestLookupNoCountry() {
	httpmock.RegisterResponder("GET",
		"http://ip-api.com/json/23.22.13.113",
		httpmock.NewStringResponder(http.StatusOK, `{
  "status": "success",
  "city": "Virginia Beach"
}`))

	_, err := suite.prov.Lookup(context.Background(),
		net.ParseIP("23.22.13.113"))

	suite.Error(err)
}

func (suite *MockedIPAPICoTestSuite) TestLookupOk() {
	httpmock.RegisterResponder("GET",
		"http://ip-api.com/json/23.22.13.113",
		httpmock.NewStringResponder(http.StatusOK, `{
  "status": "success",
  "country": "United States",
  "countryCode": "US",
  "region": "VA",
  "regionName": "Virginia",
  "city": "Virginia Beach",
  "zip": "23479",
  "lat": 36.7957,
  "lon": -76.0126,
  "timezone": "America/New_York",
  "isp": "Amazon.com, Inc.",
  "query": "23.22.13.113"
}`))

	result, err := suite.prov.Lookup(context.Background(),
		net.ParseIP("23.22.13.113"))

	suite.NoError(err)
	suite.Equal("US", strings.ToUpper(result.CountryCode))
	suite.Equal("United States", result.CountryName)
	suite.Equal("Virginia Beach", result.City)
	suite.Equal("Virginia", result.Region)
	suite.Equal("America/New_York", result.Timezone)
	suite.Require().NotNil(result.Latitude)
	suite.InDelta(36.7957, *result.Latitude, 1e-6)
}

type IntegrationIPAPICoTestSuite struct {
	ProviderTestSuite

	prov geolib.Provider
}

func (suite *IntegrationIPAPICoTestSuite) SetupTest() {
	suite.ProviderTestSuite.SetupTest()

	suite.prov = providers.NewIPAPICo(suite.http)
}

func (suite *IntegrationIPAPICoTestSuite) TestLookup() {
	result, err := suite.prov.Lookup(context.Background(),
		net.ParseIP("23.22.13.113"))

	suite.NoError(err)
	suite.Equal("US", strings.ToUpper(result.CountryCode))
}

func TestIPAPICo(t *testing.T) {
	suite.Run(t, &MockedIPAPICoTestSuite{})
}

func TestIntegrationIPAPICo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipped because of the short mode")
		return
	}

	suite.Run(t, &IntegrationIPAPICoTestSuite{})
}
