// Package catalog holds the closed, ordered set of bookable resource types.
package catalog

import (
	"sync/atomic"

	"coworking/internal/config"
	"coworking/internal/models"
)

// Catalog is an immutable ordered list of resource types. Order is significant:
// it drives instance selection and alternative type suggestions.
type Catalog struct {
	types []models.ResourceType
	index map[string]int
}

// New builds a catalog from types in the given order.
func New(types []models.ResourceType) *Catalog {
	c := &Catalog{
		types: make([]models.ResourceType, len(types)),
		index: make(map[string]int, len(types)),
	}
	for i, t := range types {
		instances := make([]models.ResourceInstance, len(t.Instances))
		for j, inst := range t.Instances {
			inst.TypeKey = t.Key
			instances[j] = inst
		}
		t.Instances = instances
		c.types[i] = t
		c.index[t.Key] = i
	}
	return c
}

// Default returns the pooled catalog of the coworking site.
func Default() *Catalog {
	return New([]models.ResourceType{
		{
			Key:   models.TypeWorkspaceOpen,
			Label: "Open workspace",
			Instances: []models.ResourceInstance{
				{ID: 1, EquipmentClass: "Standard"},
				{ID: 2, EquipmentClass: "Standard"},
			},
		},
		{
			Key:       models.TypeOfficeLight,
			Label:     "Light office",
			Instances: []models.ResourceInstance{{ID: 3, EquipmentClass: "Light"}},
		},
		{
			Key:       models.TypeOfficePremium,
			Label:     "Premium office",
			Instances: []models.ResourceInstance{{ID: 4, EquipmentClass: "Premium"}},
		},
		{
			Key:   models.TypeMeetingRoom,
			Label: "Meeting room",
			Instances: []models.ResourceInstance{
				{ID: 5, EquipmentClass: "Projector"},
				{ID: 6, EquipmentClass: "Video conferencing"},
			},
		},
	})
}

// FromConfig converts a validated catalog.yaml into a Catalog.
func FromConfig(cfg *config.CatalogConfig) *Catalog {
	types := make([]models.ResourceType, 0, len(cfg.Types))
	for _, t := range cfg.Types {
		rt := models.ResourceType{Key: t.Key, Label: t.Label}
		for _, inst := range t.Instances {
			rt.Instances = append(rt.Instances, models.ResourceInstance{
				ID:             inst.ID,
				EquipmentClass: inst.EquipmentClass,
			})
		}
		types = append(types, rt)
	}
	return New(types)
}

// ListTypes returns the types in catalog order.
func (c *Catalog) ListTypes() []models.ResourceType {
	out := make([]models.ResourceType, len(c.types))
	copy(out, c.types)
	return out
}

func (c *Catalog) IsValidType(key string) bool {
	_, ok := c.index[key]
	return ok
}

func (c *Catalog) Type(key string) (models.ResourceType, bool) {
	i, ok := c.index[key]
	if !ok {
		return models.ResourceType{}, false
	}
	return c.types[i], true
}

// Label returns the display label, or the key itself for unknown types.
func (c *Catalog) Label(key string) string {
	if t, ok := c.Type(key); ok {
		return t.Label
	}
	return key
}

// InstancesOf returns the physical units of a type in catalog order.
func (c *Catalog) InstancesOf(key string) []models.ResourceInstance {
	t, ok := c.Type(key)
	if !ok {
		return nil
	}
	return t.Instances
}

// Holder publishes the current catalog to concurrent readers.
// A reload swaps the whole catalog; readers keep the version they loaded.
type Holder struct {
	current atomic.Pointer[Catalog]
}

func NewHolder(c *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(c)
	return h
}

func (h *Holder) Current() *Catalog {
	return h.current.Load()
}

func (h *Holder) Replace(c *Catalog) {
	h.current.Store(c)
}
