package models

// SoilPropertyKind distinguishes numeric measurements from free-text entries.
type SoilPropertyKind string

const (
	SoilPropertyNumber SoilPropertyKind = "number"
	SoilPropertyText   SoilPropertyKind = "text"
)

// SoilProperty describes one recognized soil/environmental input.
type SoilProperty struct {
	Key   string
	Label string
	Unit  string
	Kind  SoilPropertyKind
}

// SoilCatalog is the fixed set of recognized soil/environmental properties.
// The order here is the order properties are rendered into the prompt.
var SoilCatalog = []SoilProperty{
	{Key: "nitrogen", Label: "Nitrogen", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "phosphorus", Label: "Phosphorus", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "potassium", Label: "Potassium", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "pH", Label: "Soil pH", Unit: "", Kind: SoilPropertyNumber},
	{Key: "water", Label: "Water Content", Unit: "%", Kind: SoilPropertyNumber},
	{Key: "sunlight", Label: "Sunlight Hours", Unit: "hrs/day", Kind: SoilPropertyNumber},
	{Key: "magnesium", Label: "Magnesium", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "sodium", Label: "Sodium", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "calcium", Label: "Calcium", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "sulfur", Label: "Sulfur", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "iron", Label: "Iron", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "manganese", Label: "Manganese", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "zinc", Label: "Zinc", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "copper", Label: "Copper", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "boron", Label: "Boron", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "molybdenum", Label: "Molybdenum", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "chlorine", Label: "Chlorine", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "nickel", Label: "Nickel", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "aluminum", Label: "Aluminum", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "silicon", Label: "Silicon", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "cobalt", Label: "Cobalt", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "vanadium", Label: "Vanadium", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "selenium", Label: "Selenium", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "iodine", Label: "Iodine", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "atmosphericGases", Label: "Atmospheric Gases", Unit: "", Kind: SoilPropertyText},
	{Key: "arsenic", Label: "Arsenic", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "lead", Label: "Lead", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "cadmium", Label: "Cadmium", Unit: "ppm", Kind: SoilPropertyNumber},
	{Key: "mercury", Label: "Mercury", Unit: "ppm", Kind: SoilPropertyNumber},
}

// GrowthCriticalProperties are inputs a crop cannot grow without. A supplied
// zero for any of them makes the estimation deterministic (zero yield) with
// no model involvement.
var GrowthCriticalProperties = []string{"water", "sunlight"}

var soilCatalogIndex = func() map[string]SoilProperty {
	idx := make(map[string]SoilProperty, len(SoilCatalog))
	for _, p := range SoilCatalog {
		idx[p.Key] = p
	}
	return idx
}()

// RecognizedSoilProperty reports whether key belongs to the catalog.
func RecognizedSoilProperty(key string) (SoilProperty, bool) {
	p, ok := soilCatalogIndex[key]
	return p, ok
}
