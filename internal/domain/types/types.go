package types

type ServiceMode string

// Admin Service - HTTP API, dashboard and live snapshot push for operators
// Ingest Service - Receives device pings from the MQTT broker and fills the location cache
const (
	AdminService  ServiceMode = "admin-service"
	IngestService ServiceMode = "ingest-service"
)

// UserRole is the access level of an admin panel account.
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleViewer:
		return true
	}
	return false
}

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleViewer UserRole = "VIEWER"
)

// PresenceStatus is the human readable form of a presence snapshot.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "Online"
	StatusOffline PresenceStatus = "Offline"
)

// LocationSourceKind selects where location history is read from.
type LocationSourceKind string

const (
	SourceCache   LocationSourceKind = "cache"
	SourceWebhook LocationSourceKind = "webhook"
)
