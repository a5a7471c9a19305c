package config

import (
	"sort"
	"strings"

	"github.com/agentgap/agentgap/types"
)

// Platform is one regional deployment of the aggregator API. Bearer auth and
// connector calls go to the gateway host; qps/rest calls go to the api host.
type Platform struct {
	Code    string
	Gateway string
	API     string
}

var platforms = map[string]Platform{
	"US1": {Code: "US1", Gateway: "gateway.qg1.apps.qualys.com", API: "qualysapi.qg1.apps.qualys.com"},
	"US2": {Code: "US2", Gateway: "gateway.qg2.apps.qualys.com", API: "qualysapi.qg2.apps.qualys.com"},
	"US3": {Code: "US3", Gateway: "gateway.qg3.apps.qualys.com", API: "qualysapi.qg3.apps.qualys.com"},
	"US4": {Code: "US4", Gateway: "gateway.qg4.apps.qualys.com", API: "qualysapi.qg4.apps.qualys.com"},
	"EU1": {Code: "EU1", Gateway: "gateway.qg1.apps.qualys.eu", API: "qualysapi.qg1.apps.qualys.eu"},
	"EU2": {Code: "EU2", Gateway: "gateway.qg2.apps.qualys.eu", API: "qualysapi.qg2.apps.qualys.eu"},
	"IN1": {Code: "IN1", Gateway: "gateway.qg1.apps.qualys.in", API: "qualysapi.qg1.apps.qualys.in"},
	"CA1": {Code: "CA1", Gateway: "gateway.qg1.apps.qualys.ca", API: "qualysapi.qg1.apps.qualys.ca"},
	"AE1": {Code: "AE1", Gateway: "gateway.qg1.apps.qualys.ae", API: "qualysapi.qg1.apps.qualys.ae"},
	"UK1": {Code: "UK1", Gateway: "gateway.qg1.apps.qualys.co.uk", API: "qualysapi.qg1.apps.qualys.co.uk"},
	"AU1": {Code: "AU1", Gateway: "gateway.qg1.apps.qualys.com.au", API: "qualysapi.qg1.apps.qualys.com.au"},
}

// LookupPlatform resolves a platform code (case-insensitive) to its hosts.
// An unknown code is a ConfigError.
func LookupPlatform(code string) (Platform, error) {
	p, ok := platforms[strings.ToUpper(code)]
	if !ok {
		return Platform{}, types.NewConfigError("unknown platform %q (valid: %s)",
			code, strings.Join(PlatformCodes(), ", "))
	}
	return p, nil
}

// PlatformCodes returns all known platform codes, sorted.
func PlatformCodes() []string {
	codes := make([]string, 0, len(platforms))
	for code := range platforms {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GatewayURL returns the base URL for gateway (bearer-auth) requests.
func (p Platform) GatewayURL() string {
	return "https://" + p.Gateway
}

// APIURL returns the base URL for qps/rest (basic-auth) requests.
func (p Platform) APIURL() string {
	return "https://" + p.API
}
