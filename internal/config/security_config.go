// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// EndpointSecurityConfig maps "METHOD path-template" routes to their
// required security level. Unlisted routes require an access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"GET /healthz": SecurityPublic,

	// Queries - Public
	"GET /api/v1/assets/{collection}/{tokenId}":             SecurityPublic,
	"GET /api/v1/assets/{collection}/{tokenId}/settlements": SecurityPublic,
	"GET /api/v1/containers/{id}":                           SecurityPublic,
	"GET /api/v1/hosting/tiers":                             SecurityPublic,
	"GET /api/v1/balances/{address}":                        SecurityPublic,

	// RentalService - Access Protected
	"POST /api/v1/assets/{collection}/{tokenId}/offers":   SecurityAccess,
	"DELETE /api/v1/assets/{collection}/{tokenId}/offers": SecurityAccess,
	"POST /api/v1/assets/{collection}/{tokenId}/accept":   SecurityAccess,
	"POST /api/v1/assets/{collection}/{tokenId}/release":  SecurityAccess,

	// NoRent and Hosting - Access Protected
	"POST /api/v1/assets/{collection}/{tokenId}/norent":        SecurityAccess,
	"POST /api/v1/assets/{collection}/{tokenId}/norent/extend": SecurityAccess,
	"POST /api/v1/assets/{collection}/{tokenId}/hosting-fees":  SecurityAccess,
	"POST /api/v1/hosting/tiers":                               SecurityAccess,
	"PUT /api/v1/hosting/tiers/{id}":                           SecurityAccess,

	// Containers - Access Protected
	"POST /api/v1/containers":        SecurityAccess,
	"DELETE /api/v1/containers/{id}": SecurityAccess,

	// Ledger and collections - Access Protected
	"POST /api/v1/ledger/approvals":                   SecurityAccess,
	"POST /api/v1/collections/{collection}/approvals": SecurityAccess,
}

// RequiredLevel returns the security level of a route, defaulting to
// SecurityAccess.
func RequiredLevel(method, pathTemplate string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAccess
}
