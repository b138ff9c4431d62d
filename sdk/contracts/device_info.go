package contracts

// DeviceInfo describes an output destination a hardware backend can address.
type DeviceInfo struct {
	Name         string // Destination name.
	Manufacturer string // Destination manufacturer.
	EntityName   string // Name of the entity to which the destination belongs.
}
