package survey

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Diagnostics counts data-quality events met while normalizing a payload.
// They are informational; normalization never fails.
type Diagnostics struct {
	CoercedLeaves    int `json:"coercedLeaves"`
	SynthesizedNames int `json:"synthesizedNames"`
}

// Add accumulates o into d.
func (d *Diagnostics) Add(o Diagnostics) {
	d.CoercedLeaves += o.CoercedLeaves
	d.SynthesizedNames += o.SynthesizedNames
}

// Fields holds the numeric leaves of a free-form payload keyed by dotted path.
type Fields map[string]float64

// DemographicsVillage is the canonical demographics entry of one village.
type DemographicsVillage struct {
	TotalPopulation  float64 `json:"totalPopulation"`
	Households       float64 `json:"households"`
	MalePopulation   float64 `json:"malePopulation"`
	FemalePopulation float64 `json:"femalePopulation"`
	Age0To14Male     float64 `json:"age0to14Male"`
	Age0To14Female   float64 `json:"age0to14Female"`
	Age15To60Male    float64 `json:"age15to60Male"`
	Age15To60Female  float64 `json:"age15to60Female"`
	Age60PlusMale    float64 `json:"age60PlusMale"`
	Age60PlusFemale  float64 `json:"age60PlusFemale"`
}

func (v DemographicsVillage) plus(o DemographicsVillage) DemographicsVillage {
	v.TotalPopulation += o.TotalPopulation
	v.Households += o.Households
	v.MalePopulation += o.MalePopulation
	v.FemalePopulation += o.FemalePopulation
	v.Age0To14Male += o.Age0To14Male
	v.Age0To14Female += o.Age0To14Female
	v.Age15To60Male += o.Age15To60Male
	v.Age15To60Female += o.Age15To60Female
	v.Age60PlusMale += o.Age60PlusMale
	v.Age60PlusFemale += o.Age60PlusFemale
	return v
}

// School is one school listed under a village.
type School struct {
	Name           string  `json:"name,omitempty"`
	Type           string  `json:"type,omitempty"`
	TeachersMale   float64 `json:"teachersMale"`
	TeachersFemale float64 `json:"teachersFemale"`
	Students       float64 `json:"students"`
}

// Teachers is the total teaching staff of the school.
func (s School) Teachers() float64 { return s.TeachersMale + s.TeachersFemale }

// EducationVillage lists the schools of one village.
type EducationVillage struct {
	Schools []School `json:"schools"`
}

// MigrationVillage is the migration and employment entry of one village.
type MigrationVillage struct {
	SeasonalMale       float64 `json:"seasonalMigrantsMale"`
	SeasonalFemale     float64 `json:"seasonalMigrantsFemale"`
	PermanentMale      float64 `json:"permanentMigrantsMale"`
	PermanentFemale    float64 `json:"permanentMigrantsFemale"`
	MGNREGSCardHolders float64 `json:"householdsWithMGNREGSCards"`
}

// Migrants sums seasonal and permanent migrants of both sexes.
func (m MigrationVillage) Migrants() float64 {
	return m.SeasonalMale + m.SeasonalFemale + m.PermanentMale + m.PermanentFemale
}

func (m MigrationVillage) plus(o MigrationVillage) MigrationVillage {
	m.SeasonalMale += o.SeasonalMale
	m.SeasonalFemale += o.SeasonalFemale
	m.PermanentMale += o.PermanentMale
	m.PermanentFemale += o.PermanentFemale
	m.MGNREGSCardHolders += o.MGNREGSCardHolders
	return m
}

// Finances is the flat panchayat revenue record, in rupees.
type Finances struct {
	CFC        decimal.Decimal `json:"cfc"`
	SFC        decimal.Decimal `json:"sfc"`
	OwnSources decimal.Decimal `json:"ownSources"`
	MGNREGS    decimal.Decimal `json:"mgnregs"`
}

// Total is the revenue from all four sources.
func (f Finances) Total() decimal.Decimal {
	return f.CFC.Add(f.SFC).Add(f.OwnSources).Add(f.MGNREGS)
}

// Reported is true when any source carries a non-zero amount.
func (f Finances) Reported() bool {
	return !f.CFC.IsZero() || !f.SFC.IsZero() || !f.OwnSources.IsZero() || !f.MGNREGS.IsZero()
}

// LandUseRow is the land use entry of one village.
type LandUseRow struct {
	ForestArea     float64 `json:"forestArea"`
	CultivableArea float64 `json:"cultivableArea"`
	Fields         Fields  `json:"fields,omitempty"`
}

func (r LandUseRow) plus(o LandUseRow) LandUseRow {
	r.ForestArea += o.ForestArea
	r.CultivableArea += o.CultivableArea
	r.Fields = mergeFields(r.Fields, o.Fields)
	return r
}

// LandUse holds the two independently keyed land sub-collections.
type LandUse struct {
	Rows       map[string]LandUseRow `json:"landUseData"`
	CommonLand map[string]Fields     `json:"commonLandAreas"`
}

// Entry is one water body or irrigation structure.
type Entry struct {
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
	Fields Fields `json:"fields,omitempty"`
}

// Water holds water bodies and irrigation structures per village.
type Water struct {
	Bodies     map[string][]Entry `json:"waterBodies"`
	Irrigation map[string][]Entry `json:"irrigationStructures"`
}

// BodyCount is the number of water bodies across all villages.
func (w Water) BodyCount() int {
	n := 0
	for _, list := range w.Bodies {
		n += len(list)
	}
	return n
}

// NormalizedRecord is the canonical, typed shape of a survey payload. Every
// map is non-nil so downstream code never has to branch on shape. Village
// keys are trimmed and keep the spelling a village was first seen with;
// entries whose names differ only in case or padding are merged.
type NormalizedRecord struct {
	Villages     []string                       `json:"villages"`
	Demographics map[string]DemographicsVillage `json:"demographics"`
	Education    map[string]EducationVillage    `json:"education"`
	Migration    map[string]MigrationVillage    `json:"migration"`
	Roads        map[string]Fields              `json:"roads"`
	Health       Fields                         `json:"health"`
	Finances     Finances                       `json:"finances"`
	LandUse      LandUse                        `json:"landUse"`
	Water        Water                          `json:"water"`
	Diagnostics  Diagnostics                    `json:"diagnostics"`

	spellings map[string]string
}

func newNormalizedRecord() NormalizedRecord {
	return NormalizedRecord{
		Villages:     []string{},
		Demographics: map[string]DemographicsVillage{},
		Education:    map[string]EducationVillage{},
		Migration:    map[string]MigrationVillage{},
		Roads:        map[string]Fields{},
		Health:       Fields{},
		LandUse:      LandUse{Rows: map[string]LandUseRow{}, CommonLand: map[string]Fields{}},
		Water:        Water{Bodies: map[string][]Entry{}, Irrigation: map[string][]Entry{}},
	}
}

// Normalize canonicalizes a single category payload. Only the part of the
// result that belongs to cat is populated. villageNames pairs positional
// (array) payloads with names; missing names become "Village {i+1}".
func Normalize(cat Category, raw any, villageNames []string) NormalizedRecord {
	n := newNormalizedRecord()
	n.addVillages(villageNames)
	n.apply(cat, raw, villageNames)
	return n
}

// NormalizeRecord canonicalizes every category of r. Village names for
// positional payloads are taken from the record's Demographics category.
func NormalizeRecord(r SurveyRecord) NormalizedRecord {
	n := newNormalizedRecord()
	names, synthesized := villageNames(r)
	n.addVillages(names)
	n.Diagnostics.SynthesizedNames += synthesized
	for _, c := range AllCategories {
		raw, _ := r.FormData.Lookup(c)
		n.apply(c, raw, names)
	}
	return n
}

// RecordVillageNames returns the village names of r's Demographics category:
// object keys in submission order, or the embedded names of an array payload.
func RecordVillageNames(r SurveyRecord) []string {
	names, _ := villageNames(r)
	return names
}

func villageNames(r SurveyRecord) ([]string, int) {
	raw, _ := r.FormData.Lookup(CategoryDemographics)
	switch t := raw.(type) {
	case map[string]any:
		return orderedKeys(t, r.VillageOrder), 0
	case []any:
		names := make([]string, len(t))
		synthesized := 0
		for i, el := range t {
			if name := embeddedName(el, "villageName", "village", "name"); name != "" {
				names[i] = name
				continue
			}
			names[i] = syntheticVillageName(i)
			synthesized++
		}
		return names, synthesized
	default:
		return []string{}, 0
	}
}

// addVillages records names in order, skipping blanks and names already seen.
func (n *NormalizedRecord) addVillages(names []string) {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if lo.ContainsBy(n.Villages, func(v string) bool { return SameVillage(v, name) }) {
			continue
		}
		n.Villages = append(n.Villages, n.village(name))
	}
}

// village returns the key name is stored under in this record.
func (n *NormalizedRecord) village(name string) string {
	name = strings.TrimSpace(name)
	key := foldVillage(name)
	if n.spellings == nil {
		n.spellings = make(map[string]string)
	}
	if first, ok := n.spellings[key]; ok {
		return first
	}
	n.spellings[key] = name
	return name
}

// apply normalizes one category into n. A village resolved twice (repeated
// names, or an embedded name equal to a synthesized one) is merged, never
// overwritten: counts are summed and lists concatenated.
func (n *NormalizedRecord) apply(cat Category, raw any, names []string) {
	d := &n.Diagnostics
	switch cat {
	case CategoryDemographics:
		for _, v := range resolveVillages(raw, names, d) {
			name := n.village(v.name)
			n.Demographics[name] = n.Demographics[name].plus(demographicsOf(asMap(v.value), d))
		}
	case CategoryEducation:
		for _, v := range resolveVillages(raw, names, d) {
			name := n.village(v.name)
			edu := educationOf(v.value, d)
			if cur, ok := n.Education[name]; ok {
				edu.Schools = append(cur.Schools, edu.Schools...)
			}
			n.Education[name] = edu
		}
	case CategoryMigrationEmployment:
		for _, v := range resolveVillages(raw, names, d) {
			name := n.village(v.name)
			n.Migration[name] = n.Migration[name].plus(migrationOf(asMap(v.value), d))
		}
	case CategoryRoadInfrastructure:
		for _, v := range resolveVillages(raw, names, d) {
			name := n.village(v.name)
			n.Roads[name] = mergeFields(n.Roads[name], flatten(v.value))
		}
	case CategoryHealthChildcare:
		n.Health = flatten(raw)
	case CategoryPanchayatFinances:
		n.Finances = financesOf(asMap(raw), d)
	case CategoryLandUseMapping:
		m := asMap(raw)
		for _, v := range resolveVillages(m["landUseData"], names, d) {
			name := n.village(v.name)
			row := landUseRowOf(asMap(v.value), d)
			if cur, ok := n.LandUse.Rows[name]; ok {
				row = cur.plus(row)
			}
			n.LandUse.Rows[name] = row
		}
		for _, v := range resolveVillages(m["commonLandAreas"], names, d) {
			name := n.village(v.name)
			n.LandUse.CommonLand[name] = mergeFields(n.LandUse.CommonLand[name], flatten(v.value))
		}
	case CategoryWaterResources:
		m := asMap(raw)
		for _, v := range resolveVillages(m["waterBodies"], names, d) {
			name := n.village(v.name)
			n.Water.Bodies[name] = append(n.Water.Bodies[name], entriesOf(v.value, "waterBodyName", "waterBodyType")...)
		}
		for _, v := range resolveVillages(m["irrigationStructures"], names, d) {
			name := n.village(v.name)
			n.Water.Irrigation[name] = append(n.Water.Irrigation[name], entriesOf(v.value, "structureName", "structureType")...)
		}
	}
}

// mergeFields adds from into into, creating into when it is nil.
func mergeFields(into, from Fields) Fields {
	if into == nil {
		return from
	}
	for k, v := range from {
		into[k] += v
	}
	return into
}

type villageValue struct {
	name  string
	value any
}

// resolveVillages applies the array-vs-object rule: objects are already keyed
// by village, arrays are paired positionally with names.
func resolveVillages(raw any, names []string, d *Diagnostics) []villageValue {
	switch t := raw.(type) {
	case map[string]any:
		keys := orderedKeys(t, names)
		out := make([]villageValue, 0, len(keys))
		for _, k := range keys {
			out = append(out, villageValue{name: k, value: t[k]})
		}
		return out
	case []any:
		out := make([]villageValue, 0, len(t))
		for i, el := range t {
			name := ""
			if i < len(names) {
				name = strings.TrimSpace(names[i])
			}
			if name == "" {
				name = syntheticVillageName(i)
				d.SynthesizedNames++
			}
			out = append(out, villageValue{name: name, value: el})
		}
		return out
	default:
		return nil
	}
}

func syntheticVillageName(i int) string {
	return "Village " + strconv.Itoa(i+1)
}

// orderedKeys returns the keys of m following hint first, then the rest sorted.
func orderedKeys(m map[string]any, hint []string) []string {
	out := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range hint {
		if _, ok := m[k]; ok && !seen[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(m)-len(out))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return nil
}

func embeddedName(v any, keys ...string) string {
	m := asMap(v)
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// number reads the first present key of m as a number.
func number(m map[string]any, d *Diagnostics, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		f, usable := parseLeaf(v)
		if !usable {
			d.CoercedLeaves++
		}
		return f, true
	}
	return 0, false
}

func numberOrZero(m map[string]any, d *Diagnostics, keys ...string) float64 {
	f, _ := number(m, d, keys...)
	return f
}

// amount reads the first present key of m as a money value.
func amount(m map[string]any, d *Diagnostics, keys ...string) decimal.Decimal {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if _, usable := parseDecimal(v); !usable {
			d.CoercedLeaves++
		}
		return DecimalOrZero(v)
	}
	return decimal.Zero
}

func demographicsOf(m map[string]any, d *Diagnostics) DemographicsVillage {
	v := DemographicsVillage{
		Households:       numberOrZero(m, d, "households", "totalHouseholds"),
		MalePopulation:   numberOrZero(m, d, "malePopulation", "male"),
		FemalePopulation: numberOrZero(m, d, "femalePopulation", "female"),
		Age0To14Male:     numberOrZero(m, d, "age0to14Male"),
		Age0To14Female:   numberOrZero(m, d, "age0to14Female"),
		Age15To60Male:    numberOrZero(m, d, "age15to60Male"),
		Age15To60Female:  numberOrZero(m, d, "age15to60Female"),
		Age60PlusMale:    numberOrZero(m, d, "age60PlusMale"),
		Age60PlusFemale:  numberOrZero(m, d, "age60PlusFemale"),
	}
	if total, ok := number(m, d, "totalPopulation", "population"); ok {
		v.TotalPopulation = total
	} else {
		v.TotalPopulation = v.MalePopulation + v.FemalePopulation
	}
	return v
}

func educationOf(raw any, d *Diagnostics) EducationVillage {
	list := raw
	if m := asMap(raw); m != nil {
		if s, ok := m["schools"]; ok {
			list = s
		}
	}
	rows := entryMaps(list)
	out := EducationVillage{Schools: make([]School, 0, len(rows))}
	for _, s := range rows {
		school := School{
			Name:           embeddedName(s, "schoolName", "name"),
			Type:           embeddedName(s, "schoolType", "type", "category"),
			TeachersMale:   numberOrZero(s, d, "teachersMale", "maleTeachers"),
			TeachersFemale: numberOrZero(s, d, "teachersFemale", "femaleTeachers"),
		}
		if students, ok := number(s, d, "studentsTotal", "totalStudents"); ok {
			school.Students = students
		} else {
			school.Students = numberOrZero(s, d, "studentsBoys", "boys") + numberOrZero(s, d, "studentsGirls", "girls")
		}
		out.Schools = append(out.Schools, school)
	}
	return out
}

func migrationOf(m map[string]any, d *Diagnostics) MigrationVillage {
	return MigrationVillage{
		SeasonalMale:       numberOrZero(m, d, "seasonalMigrantsMale"),
		SeasonalFemale:     numberOrZero(m, d, "seasonalMigrantsFemale"),
		PermanentMale:      numberOrZero(m, d, "permanentMigrantsMale"),
		PermanentFemale:    numberOrZero(m, d, "permanentMigrantsFemale"),
		MGNREGSCardHolders: numberOrZero(m, d, "householdsWithMGNREGSCards", "mgnregsCards"),
	}
}

func financesOf(m map[string]any, d *Diagnostics) Finances {
	return Finances{
		CFC:        amount(m, d, "cfc", "CFC", "cfcGrant"),
		SFC:        amount(m, d, "sfc", "SFC", "sfcGrant"),
		OwnSources: amount(m, d, "ownSources", "ownSourceRevenue"),
		MGNREGS:    amount(m, d, "mgnregs", "MGNREGS", "mgnregsFunds"),
	}
}

func landUseRowOf(m map[string]any, d *Diagnostics) LandUseRow {
	return LandUseRow{
		ForestArea:     numberOrZero(m, d, "forestArea", "forestLand"),
		CultivableArea: numberOrZero(m, d, "cultivableArea", "totalCultivableLand"),
		Fields:         flatten(m),
	}
}

func entriesOf(raw any, nameKey, typeKey string) []Entry {
	rows := entryMaps(raw)
	out := make([]Entry, 0, len(rows))
	for _, m := range rows {
		out = append(out, Entry{
			Name:   embeddedName(m, nameKey, "name"),
			Type:   embeddedName(m, typeKey, "type"),
			Fields: flatten(m),
		})
	}
	return out
}

// entryMaps reads a list of entries given as an array, an object of objects
// keyed by id, or a single object.
func entryMaps(raw any) []map[string]any {
	switch t := raw.(type) {
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, el := range t {
			if m := asMap(el); m != nil {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
		for _, v := range t {
			if asMap(v) == nil {
				return []map[string]any{t}
			}
		}
		out := make([]map[string]any, 0, len(t))
		for _, k := range sortedKeys(t) {
			out = append(out, t[k].(map[string]any))
		}
		return out
	default:
		return nil
	}
}

const maxFlattenDepth = 6

// flatten collects the numeric leaves of v. Text that does not parse as a
// number is descriptive and skipped.
func flatten(v any) Fields {
	out := Fields{}
	flattenInto(out, "", v, 0)
	return out
}

func flattenInto(out Fields, prefix string, v any, depth int) {
	if depth > maxFlattenDepth {
		return
	}
	join := func(k string) string {
		if prefix == "" {
			return k
		}
		return prefix + "." + k
	}
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			flattenInto(out, join(k), child, depth+1)
		}
	case []any:
		for i, child := range t {
			flattenInto(out, join(strconv.Itoa(i)), child, depth+1)
		}
	case nil, bool:
	default:
		if prefix == "" {
			return
		}
		if f, ok := parseLeaf(t); ok {
			out[prefix] = f
		}
	}
}

//Personal.AI order the ending
