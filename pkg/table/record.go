package table

// Field is a named value inside a Record
type Field struct {
	Name  string
	Value Value
}

// Record is one JSON object with its keys in document order
type Record struct {
	fields []Field
	index  map[string]int
}

func NewRecord(fields ...Field) Record {
	r := Record{}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

// Set adds or replaces a field. A replaced field keeps its original position.
func (r *Record) Set(name string, v Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}

	if i, ok := r.index[name]; ok {
		r.fields[i].Value = v
		return
	}

	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r Record) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return NullValue(), false
	}
	return r.fields[i].Value, true
}

func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

func (r Record) Fields() []Field {
	return r.fields
}

func (r Record) Len() int {
	return len(r.fields)
}

// Dataset is the ordered list of records read from a single document
type Dataset []Record

// Rows renders every record as CSV cells in column order. Fields missing from
// a record render as empty cells.
func (ds Dataset) Rows(columns []string) [][]string {
	rows := make([][]string, 0, len(ds))
	for _, r := range ds {
		row := make([]string, len(columns))
		for i, c := range columns {
			if v, ok := r.Get(c); ok {
				row[i] = v.String()
			}
		}
		rows = append(rows, row)
	}
	return rows
}
