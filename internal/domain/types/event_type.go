package types

type TrackerEvent string

func (s TrackerEvent) String() string {
	return string(s)
}

const (
	EventDeviceCreated    TrackerEvent = "DEVICE_CREATED"
	EventDeviceUpdated    TrackerEvent = "DEVICE_UPDATED"
	EventDeviceDeleted    TrackerEvent = "DEVICE_DELETED"
	EventLocationRecorded TrackerEvent = "LOCATION_RECORDED"
)

// RoutingKey returns the topic routing key prefix of the event.
func (s TrackerEvent) RoutingKey() string {
	switch s {
	case EventDeviceCreated:
		return "device.created"
	case EventDeviceUpdated:
		return "device.updated"
	case EventDeviceDeleted:
		return "device.deleted"
	case EventLocationRecorded:
		return "location.recorded"
	default:
		return "unknown"
	}
}
