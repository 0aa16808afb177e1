package survey

// Category identifies one of the eight fixed sections of a GP survey form.
type Category string

const (
	CategoryDemographics        Category = "Demographics"
	CategoryEducation           Category = "Education"
	CategoryHealthChildcare     Category = "HealthChildcare"
	CategoryMigrationEmployment Category = "MigrationEmployment"
	CategoryRoadInfrastructure  Category = "RoadInfrastructure"
	CategoryPanchayatFinances   Category = "PanchayatFinances"
	CategoryLandUseMapping      Category = "LandUseMapping"
	CategoryWaterResources      Category = "WaterResources"
)

// AllCategories lists the categories in form order. Completion scoring divides by its length.
var AllCategories = []Category{
	CategoryDemographics,
	CategoryEducation,
	CategoryHealthChildcare,
	CategoryMigrationEmployment,
	CategoryRoadInfrastructure,
	CategoryPanchayatFinances,
	CategoryLandUseMapping,
	CategoryWaterResources,
}

// categoryKeys holds the storage keys a category may appear under. Older app
// builds wrote the legacy key; current builds write the human-readable label.
type categoryKeys struct {
	primary string
	legacy  string
}

var categoryAliases = map[Category]categoryKeys{
	CategoryDemographics:        {primary: "Demographics", legacy: "demographics"},
	CategoryEducation:           {primary: "Education", legacy: "education"},
	CategoryHealthChildcare:     {primary: "Health and Childcare", legacy: "HealthChildcare"},
	CategoryMigrationEmployment: {primary: "Migration and Employment", legacy: "MigrationEmployment"},
	CategoryRoadInfrastructure:  {primary: "Road Infrastructure", legacy: "RoadInfrastructure"},
	CategoryPanchayatFinances:   {primary: "Panchayat Finances", legacy: "PanchayatFinances"},
	CategoryLandUseMapping:      {primary: "Land Use Mapping", legacy: "LandUseMapping"},
	CategoryWaterResources:      {primary: "Water Resources", legacy: "WaterResources"},
}

// Label returns the human-readable key used by current app builds.
func (c Category) Label() string {
	if k, ok := categoryAliases[c]; ok {
		return k.primary
	}
	return string(c)
}

// IsValid reports whether c is one of the eight known categories.
func (c Category) IsValid() bool {
	_, ok := categoryAliases[c]
	return ok
}

// IsVillageScoped reports whether the category payload is keyed per village.
func (c Category) IsVillageScoped() bool {
	switch c {
	case CategoryDemographics, CategoryEducation, CategoryMigrationEmployment, CategoryRoadInfrastructure:
		return true
	default:
		return false
	}
}

// CategoryForKey maps a storage key (primary or legacy) back to its category.
func CategoryForKey(key string) (Category, bool) {
	for c, k := range categoryAliases {
		if key == k.primary || key == k.legacy {
			return c, true
		}
	}
	return "", false
}

//Personal.AI order the ending
