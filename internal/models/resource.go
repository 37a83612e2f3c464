package models

// Resource type keys of the default catalog.
const (
	TypeWorkspaceOpen = "workspace_open"
	TypeOfficeLight   = "office_light"
	TypeOfficePremium = "office_premium"
	TypeMeetingRoom   = "meeting_room"
)

// ResourceType is a bookable kind of space.
type ResourceType struct {
	Key       string             `json:"key"`
	Label     string             `json:"label"`
	Instances []ResourceInstance `json:"instances,omitempty"`
}

// HasInstances reports whether bookings of this type are assigned to
// individual units rather than to the type as a whole.
func (t ResourceType) HasInstances() bool {
	return len(t.Instances) > 0
}

// Instance returns the instance with the given id.
func (t ResourceType) Instance(id int64) (ResourceInstance, bool) {
	for _, inst := range t.Instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return ResourceInstance{}, false
}

// ResourceInstance is a physical unit of a resource type.
type ResourceInstance struct {
	ID             int64  `json:"id"`
	TypeKey        string `json:"type_key"`
	EquipmentClass string `json:"equipment_class"`
}
