package domain

import "fmt"

// Category identifies a class of hardware component. The string values are
// the path segments understood by the product search endpoint and the keys
// used in the components table.
type Category string

const (
	CategoryCase        Category = "case"
	CategoryCaseFan     Category = "case_fan"
	CategoryCPUFan      Category = "cpu_fan"
	CategoryGPU         Category = "gpu"
	CategoryKeyboard    Category = "keyboard"
	CategoryMotherboard Category = "motherboard"
	CategoryMouse       Category = "mouse"
	CategoryPowerSupply Category = "power_supply"
	CategoryProcessor   Category = "processor"
	CategoryRAM         Category = "ram"
	CategoryStorage     Category = "storage"
)

// Categories lists every known category in registry order. Bootstrap seeding
// staggers refresh dates in this order, so the order is part of the contract.
func Categories() []Category {
	return []Category{
		CategoryCase,
		CategoryCaseFan,
		CategoryCPUFan,
		CategoryGPU,
		CategoryKeyboard,
		CategoryMotherboard,
		CategoryMouse,
		CategoryPowerSupply,
		CategoryProcessor,
		CategoryRAM,
		CategoryStorage,
	}
}

// ParseCategory validates a category key coming from the wire or the chat.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case CategoryCase, CategoryCaseFan, CategoryCPUFan, CategoryGPU,
		CategoryKeyboard, CategoryMotherboard, CategoryMouse,
		CategoryPowerSupply, CategoryProcessor, CategoryRAM, CategoryStorage:
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// DisplayName returns the human-readable name used in chat menus.
func (c Category) DisplayName() string {
	switch c {
	case CategoryCase:
		return "Case"
	case CategoryCaseFan:
		return "Case fan"
	case CategoryCPUFan:
		return "CPU fan"
	case CategoryGPU:
		return "Graphics card"
	case CategoryKeyboard:
		return "Keyboard"
	case CategoryMotherboard:
		return "Motherboard"
	case CategoryMouse:
		return "Mouse"
	case CategoryPowerSupply:
		return "Power supply"
	case CategoryProcessor:
		return "Processor"
	case CategoryRAM:
		return "RAM"
	case CategoryStorage:
		return "Storage"
	}
	return string(c)
}

// Shape describes the record layout of a category: which attributes exist
// beyond the common set, and which field carries the price. Components that
// need to interpret a category's records consult this instead of hardcoding
// the layout.
type Shape struct {
	Category   Category
	PriceField string
	Attributes []string
}

// CommonAttributes are present on every category's records.
var CommonAttributes = []string{"id", "title", "link", "img", "price", "brand", "model"}

// ShapeOf returns the record shape for a category.
func ShapeOf(c Category) Shape {
	s := Shape{Category: c, PriceField: "price"}
	switch c {
	case CategoryCase:
		s.Attributes = []string{"sidePanel", "color", "cabinetType"}
	case CategoryCaseFan:
		s.Attributes = []string{"rpm", "airFlow", "noiseLevel"}
	case CategoryCPUFan:
		s.Attributes = []string{"rpm", "color", "noiseLevel"}
	case CategoryGPU:
		s.Attributes = []string{"storageInterface", "memory", "clockSpeed", "chipset"}
	case CategoryKeyboard:
		s.Attributes = []string{"style", "backlit", "color", "wireless"}
	case CategoryMotherboard:
		s.Attributes = []string{"formFactor", "chipset", "memorySlots", "socketType"}
	case CategoryMouse:
		s.Attributes = []string{"trackingMethod", "color", "wireless"}
	case CategoryPowerSupply:
		s.Attributes = []string{"power", "color", "efficiency"}
	case CategoryProcessor:
		s.Attributes = []string{"speed", "socketType"}
	case CategoryRAM:
		s.Attributes = []string{"size", "quantity", "type"}
	case CategoryStorage:
		s.Attributes = []string{"storageInterface", "rpm", "type", "cacheMemory"}
	}
	return s
}
