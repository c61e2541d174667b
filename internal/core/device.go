package core

// DeviceType indicates the kind of playback device.
type DeviceType string

const (
	DeviceTypeSpeaker  DeviceType = "speaker"
	DeviceTypeComputer DeviceType = "computer"
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypeTV       DeviceType = "tv"
	DeviceTypeSoundbar DeviceType = "soundbar"
)

// Device represents a Connect device.
type Device struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Type         DeviceType `json:"type"`
	IsActive     bool       `json:"is_active"`
	IsRestricted bool       `json:"is_restricted"`
	Volume       *int       `json:"volume,omitempty"`
}

// FindDevice returns the first device with the given name, or nil.
func FindDevice(devices []Device, name string) *Device {
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i]
		}
	}
	return nil
}

// ActiveDevice returns the device the service reports as active, or nil.
func ActiveDevice(devices []Device) *Device {
	for i := range devices {
		if devices[i].IsActive {
			return &devices[i]
		}
	}
	return nil
}
