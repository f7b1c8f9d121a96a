package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with admin role required
)

const reservationService = "/trailerhub.v1.ReservationService/"

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,

	// Quotes and availability are shown before login
	reservationService + "GetQuote":        SecurityPublic,
	reservationService + "GetAvailability": SecurityPublic,

	// ReservationService - Access Protected
	reservationService + "CreateReservation":        SecurityAccess,
	reservationService + "TransitionStatus":         SecurityAccess,
	reservationService + "RetryPayment":             SecurityAccess,
	reservationService + "CapturePayment":           SecurityAccess,
	reservationService + "ReportDamage":             SecurityAccess,
	reservationService + "RespondToDamageReport":    SecurityAccess,
	reservationService + "BlockDates":               SecurityAccess,
	reservationService + "UnblockDates":             SecurityAccess,
	reservationService + "UpdateWeeklySchedule":     SecurityAccess,
	reservationService + "GetRental":                SecurityAccess,
	reservationService + "ListRentals":              SecurityAccess,
	reservationService + "GetRentalHistory":         SecurityAccess,
	reservationService + "ListDamageReports":        SecurityAccess,
	reservationService + "RequestDamagePhotoUpload": SecurityAccess,
	reservationService + "GetNotifications":         SecurityAccess,
	reservationService + "MarkNotificationRead":     SecurityAccess,

	// Admin only
	reservationService + "SyncPayment": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to access token for unknown endpoints
	return SecurityAccess
}
