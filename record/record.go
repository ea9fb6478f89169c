// Package record holds flat, ordered records and the sinks writing them.
package record

type Field struct {
	Name  string
	Value interface{}
}

// Record maps field names to scalar values and remembers the order in which
// the fields were set first.
type Record struct {
	fields []Field
	index  map[string]int
}

func New() *Record {
	return &Record{
		index: map[string]int{},
	}
}

// Set a field, replacing a value keeps the original position
func (r *Record) Set(name string, value interface{}) *Record {
	if r.index == nil {
		r.index = map[string]int{}
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = value
		return r
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: value})
	return r
}

func (r *Record) Get(name string) (value interface{}, ok bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.fields[i].Value, true
}

// Names in insertion order
func (r *Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

func (r *Record) Fields() []Field {
	fields := make([]Field, len(r.fields))
	copy(fields, r.fields)
	return fields
}

func (r *Record) Len() int {
	return len(r.fields)
}

// Sink consumes records in order
type Sink interface {
	Write(r *Record) error
	Flush() error
}

// Collector is an in memory Sink
type Collector struct {
	Records []*Record
}

func (c *Collector) Write(r *Record) error {
	c.Records = append(c.Records, r)
	return nil
}

func (c *Collector) Flush() error {
	return nil
}
