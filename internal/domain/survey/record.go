package survey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormData is the decoded survey payload: category key to category payload.
// Values are whatever the JSON decoder produced (maps, slices, strings, numbers).
type FormData map[string]any

// Lookup returns the payload stored for category c, trying the primary key
// first and the legacy key second. Absence is not an error.
func (f FormData) Lookup(c Category) (any, bool) {
	if f == nil {
		return nil, false
	}
	keys, ok := categoryAliases[c]
	if !ok {
		return nil, false
	}
	if v, ok := f[keys.primary]; ok && v != nil {
		return v, true
	}
	if v, ok := f[keys.legacy]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// SurveyRecord is one GP's submission for one financial year.
type SurveyRecord struct {
	GPName        string     `json:"gpName"`
	District      string     `json:"district"`
	Block         string     `json:"block"`
	FinancialYear string     `json:"financialYear"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	FormData      FormData   `json:"formData"`

	// VillageOrder is the key order of the Demographics object as submitted.
	// JSON objects lose their order once decoded into a map, so it is captured
	// separately and used to pair positional payloads with village names.
	VillageOrder []string `json:"-"`
}

// IdentityKey is the upsert key of a record: submitting user (or GP when the
// user is unknown) plus financial year.
func (r SurveyRecord) IdentityKey() string {
	owner := strings.TrimSpace(r.UserID)
	if owner == "" {
		owner = strings.TrimSpace(r.GPName)
	}
	return owner + "|" + strings.TrimSpace(r.FinancialYear)
}

// LastTouched returns the most recent write time of the record.
func (r SurveyRecord) LastTouched() time.Time {
	if r.LastUpdatedAt != nil && !r.LastUpdatedAt.IsZero() {
		return *r.LastUpdatedAt
	}
	return r.SubmittedAt
}

// UnmarshalJSON decodes a record and captures the Demographics key order.
func (r *SurveyRecord) UnmarshalJSON(data []byte) error {
	type plain SurveyRecord
	var aux struct {
		plain
		FormData json.RawMessage `json:"formData"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = SurveyRecord(aux.plain)
	r.FormData, r.VillageOrder = nil, nil
	if len(aux.FormData) == 0 || bytes.Equal(bytes.TrimSpace(aux.FormData), []byte("null")) {
		return nil
	}
	fd, order, err := DecodeFormData(aux.FormData)
	if err != nil {
		return fmt.Errorf("formData: %w", err)
	}
	r.FormData, r.VillageOrder = fd, order
	return nil
}

// DecodeFormData decodes a raw formData object and returns it together with
// the submitted key order of its Demographics payload, if that payload is an object.
func DecodeFormData(raw []byte) (FormData, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, err
	}
	fd := make(FormData, len(fields))
	for k, v := range fields {
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", k, err)
		}
		fd[k] = decoded
	}

	keys := categoryAliases[CategoryDemographics]
	var order []string
	for _, k := range []string{keys.primary, keys.legacy} {
		if v, ok := fields[k]; ok {
			if order = objectKeyOrder(v); order != nil {
				break
			}
		}
	}
	return fd, order, nil
}

// MarshalJSON encodes the record with its Demographics object in VillageOrder,
// so a decode of the output recovers the same order.
func (r SurveyRecord) MarshalJSON() ([]byte, error) {
	type plain SurveyRecord
	fd, err := EncodeFormData(r.FormData, r.VillageOrder)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		plain
		FormData json.RawMessage `json:"formData"`
	}{plain: plain(r), FormData: fd})
}

// EncodeFormData is the inverse of DecodeFormData. Top-level keys are sorted;
// the Demographics object lists the keys in order first.
func EncodeFormData(fd FormData, order []string) ([]byte, error) {
	if fd == nil {
		return []byte("null"), nil
	}
	keys := categoryAliases[CategoryDemographics]
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range sortedKeys(fd) {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(k)
		buf.Write(name)
		buf.WriteByte(':')

		obj, isObj := fd[k].(map[string]any)
		if isObj && (k == keys.primary || k == keys.legacy) {
			if err := writeOrderedObject(&buf, obj, order); err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			continue
		}
		v, err := json.Marshal(fd[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeOrderedObject(buf *bytes.Buffer, m map[string]any, order []string) error {
	buf.WriteByte('{')
	for i, k := range orderedKeys(m, order) {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, _ := json.Marshal(k)
		v, err := json.Marshal(m[k])
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return nil
}

// objectKeyOrder returns the top-level keys of a JSON object in document order,
// or nil when raw is not an object.
func objectKeyOrder(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}
	keys := []string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

// SameVillage compares village names ignoring case and surrounding whitespace.
func SameVillage(a, b string) bool {
	return foldVillage(a) == foldVillage(b)
}

func foldVillage(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UnknownKeys returns the sorted top-level keys that match no category under
// either spelling. They are kept in storage but never aggregated.
func (f FormData) UnknownKeys() []string {
	var out []string
	for k := range f {
		if _, ok := CategoryForKey(k); !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

//Personal.AI order the ending
