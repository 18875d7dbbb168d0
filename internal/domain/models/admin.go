package models

import "time"

// Dashboard is the overview served by GET /api/dashboard and pushed to
// live dashboard clients.
type Dashboard struct {
	Timestamp time.Time       `json:"timestamp"`
	Stats     DashboardStats  `json:"stats"`
	Devices   []DashboardCard `json:"devices"`
	Degraded  bool            `json:"degraded"`
}

type DashboardStats struct {
	TotalDevices  int       `json:"total_devices"`
	OnlineDevices int       `json:"online_devices"`
	TotalPoints   int       `json:"total_points"`
	LastUpdated   time.Time `json:"last_updated"`
}

// DashboardCard is one device tile of the dashboard.
type DashboardCard struct {
	PresenceSnapshot
	Status             string `json:"status"`
	SpeedDisplay       string `json:"speed_display,omitempty"`
	CoordinatesDisplay string `json:"coordinates_display"`
}
