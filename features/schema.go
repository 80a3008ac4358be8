package features

import "fmt"

// Group tags the origin of a feature column.
type Group string

const (
	GroupNumeric   Group = "numeric"
	GroupCondition Group = "Condition"
	GroupType      Group = "Type"
	GroupHeating   Group = "Heating"
)

// Numeric column names.
const (
	ColArea           = "Area_m2"
	ColRooms          = "Rooms"
	ColFloor          = "Floor_num"
	ColTopFloor       = "Is_top_floor"
	ColNegativeFloor  = "Negative_floor"
	ColParking        = "Parking_effect"
	ColMunicipality   = "Municipality_score"
	ColConditionScore = "Condition_score"
)

// Column is one entry of a frozen schema. Numeric columns have an empty
// Category; one-hot columns are named "<Group>_<Category>".
type Column struct {
	Group    Group  `json:"group"`
	Category string `json:"category,omitempty"`
	Name     string `json:"name"`
}

func numericColumn(name string) Column {
	return Column{Group: GroupNumeric, Name: name}
}

func oneHotColumn(g Group, category string) Column {
	return Column{Group: g, Category: category, Name: fmt.Sprintf("%s_%s", g, category)}
}

// Schema is the ordered column list frozen at fit time. Every encoded
// vector is laid out in this order.
type Schema struct {
	columns []Column
	index   map[string]int
}

func newSchema(cols []Column) *Schema {
	s := &Schema{columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		s.index[c.Name] = i
	}
	return s
}

// Len is the vector width.
func (s *Schema) Len() int { return len(s.columns) }

// Columns returns a copy of the tagged column list.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Categories lists the one-hot categories frozen for g, in column order.
func (s *Schema) Categories(g Group) []string {
	var out []string
	for _, c := range s.columns {
		if c.Group == g && c.Category != "" {
			out = append(out, c.Category)
		}
	}
	return out
}

// Map pairs a vector with the column names.
func (s *Schema) Map(v []float64) map[string]float64 {
	out := make(map[string]float64, len(s.columns))
	for i, c := range s.columns {
		if i < len(v) {
			out[c.Name] = v[i]
		}
	}
	return out
}

// Reindex lays values out in schema order. Columns missing from values
// are zero and names outside the schema are ignored.
func (s *Schema) Reindex(values map[string]float64) []float64 {
	v := make([]float64, len(s.columns))
	for name, x := range values {
		if i, ok := s.index[name]; ok {
			v[i] = x
		}
	}
	return v
}
