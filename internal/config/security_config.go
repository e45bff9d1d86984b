// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // No authentication
	SecurityOptional                      // Token validated when present, anonymous allowed
	SecurityAccess                        // Access token required
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Ops - Public
	"Healthz": SecurityPublic,

	// Intents - anonymous sponsors may submit
	"SubmitIntent": SecurityOptional,

	// Intents - Access Protected
	"ListMyIntents":    SecurityAccess,
	"GetIntent":        SecurityAccess,
	"UpdateIntent":     SecurityAccess,
	"DeleteIntent":     SecurityAccess,
	"GetIntentHistory": SecurityAccess,
	"ReviewIntent":     SecurityAccess,

	// Gateway checkout - anonymous sponsors pay for their own intents
	"CreatePaymentOrder":   SecurityOptional,
	"VerifyGatewayPayment": SecurityOptional,

	// Payments - Access Protected
	"VerifyManualPayment": SecurityAccess,
	"RefundPayment":       SecurityAccess,

	// Organization admin views - Access Protected
	"ListOrganizationIntents":      SecurityAccess,
	"ListOrganizationSponsorships": SecurityAccess,
	"ExportOrganizationReport":     SecurityAccess,

	// Sponsorships and sponsors - Access Protected
	"UpdateSponsorship":   SecurityAccess,
	"ListReceipts":        SecurityAccess,
	"GetMySponsorProfile": SecurityAccess,

	// Notifications - Access Protected
	"GetNotifications":     SecurityAccess,
	"MarkNotificationRead": SecurityAccess,
}

// GetSecurityLevel returns the security level for a given route name
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityAccess
}
