package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite

	tmpDir string
}

func (suite *ConfigTestSuite) SetupTest() {
	dir, err := ioutil.TempDir("", "whereami_config_test_")

	suite.Require().NoError(err)

	suite.tmpDir = dir
}

func (suite *ConfigTestSuite) TearDownTest() {
	os.RemoveAll(suite.tmpDir)
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.tmpDir, "config.hjson")

	suite.Require().NoError(ioutil.WriteFile(path, []byte(content), 0600))

	return path
}

func (suite *ConfigTestSuite) TestMinimal() {
	conf, err := parseConfig(suite.writeConfig(`{
  listen: "127.0.0.1:8000"
  providers: [
    {
      name: ipinfo
    }
  ]
}`))

	suite.Require().NoError(err)

	suite.Equal("127.0.0.1:8000", conf.GetListen())
	suite.Equal(DefaultUserAgent, conf.GetUserAgent())

	prov := conf.GetProviders()[0]

	suite.Equal("ipinfo", prov.GetName())
	suite.Equal(ProviderRolePrimary, prov.GetRole())
	suite.Equal(DefaultHTTPTimeout, prov.GetHTTPTimeout())
	suite.Equal(DefaultRateLimitInterval, prov.GetRateLimitInterval())
	suite.Equal(DefaultRateLimitBurst, prov.GetRateLimitBurst())
	suite.EqualValues(DefaultCircuitBreakerOpenThreshold, prov.GetBreakerThreshold())
	suite.Empty(prov.GetSpecificParameters())
}

func (suite *ConfigTestSuite) TestFullProvider() {
	conf, err := parseConfig(suite.writeConfig(`{
  listen: "127.0.0.1:8000"
  user_agent: "custom-agent/2.0"
  cache_size: 500
  cache_ttl: "5m"
  default_country: "DE"
  providers: [
    {
      name: ipinfo
      http_timeout: "2s"
      rate_limit_interval: "200ms"
      rate_limit_burst: 3
      breaker_threshold: 7
      specific_parameters: {
        auth_token: sometoken
      }
    }
    {
      name: ip-api-com
      role: fallback
    }
  ]
}`))

	suite.Require().NoError(err)

	suite.Equal("custom-agent/2.0", conf.GetUserAgent())
	suite.EqualValues(500, conf.CacheSize)
	suite.Equal(5*time.Minute, conf.CacheTTL.Duration)
	suite.Equal("DE", conf.DefaultCountry)

	primary := conf.GetProviders()[0]

	suite.Equal(2*time.Second, primary.GetHTTPTimeout())
	suite.Equal(200*time.Millisecond, primary.GetRateLimitInterval())
	suite.Equal(3, primary.GetRateLimitBurst())
	suite.EqualValues(7, primary.GetBreakerThreshold())
	suite.Equal("sometoken", primary.GetSpecificParameters()["auth_token"])

	fallback := conf.GetProviders()[1]

	suite.Equal(ProviderRoleFallback, fallback.GetRole())
	suite.Equal(DefaultFallbackHTTPTimeout, fallback.GetHTTPTimeout())
}

func (suite *ConfigTestSuite) TestBadListen() {
	_, err := parseConfig(suite.writeConfig(`{
  listen: "nonsense"
  providers: [{"name": "ipinfo"}]
}`))

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestDuplicatedName() {
	_, err := parseConfig(suite.writeConfig(`{
  listen: "127.0.0.1:8000"
  providers: [
    {"name": "ipinfo"}
    {"name": "ipinfo"}
  ]
}`))

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestUnknownRole() {
	_, err := parseConfig(suite.writeConfig(`{
  listen: "127.0.0.1:8000"
  providers: [
    {"name": "ipinfo", "role": "secondary"}
  ]
}`))

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestNoPrimaries() {
	_, err := parseConfig(suite.writeConfig(`{
  listen: "127.0.0.1:8000"
  providers: [
    {"name": "ip-api-com", "role": "fallback"}
  ]
}`))

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestTooManyFallbacks() {
	_, err := parseConfig(suite.writeConfig(`{
  listen: "127.0.0.1:8000"
  providers: [
    {"name": "ipinfo"}
    {"name": "ip-api-com", "role": "fallback"}
    {"name": "ipapi", "role": "fallback"}
  ]
}`))

	suite.Error(err)
}

func (suite *ConfigTestSuite) TestMissingFile() {
	_, err := parseConfig(filepath.Join(suite.tmpDir, "nope.hjson"))

	suite.Error(err)
}

func TestConfig(t *testing.T) {
	suite.Run(t, &ConfigTestSuite{})
}
