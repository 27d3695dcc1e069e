package domain

import "time"

// Identity is an anonymous user handle bound to a device key
type Identity struct {
	ID        string
	DeviceKey string
	CreatedAt time.Time
}
