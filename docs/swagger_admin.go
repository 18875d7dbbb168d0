package docs

// @title           Tracker Admin API
// @version         1.0
// @description     Admin panel of the device location tracker: device registry, location history, presence dashboard and user management.

// @host      localhost:3004
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey IngestToken
// @in header
// @name X-Ingest-Token
