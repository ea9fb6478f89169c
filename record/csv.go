package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrUnknownField is returned for a field, that is not in the header
var ErrUnknownField = errors.New("unknown field")

type CSVOption func(c *CSVWriter)

// WithDelimiter replaces the default comma
func WithDelimiter(delimiter rune) CSVOption {
	return func(c *CSVWriter) {
		c.w.Comma = delimiter
	}
}

// CSVWriter writes delimited text. The first record defines the header row.
type CSVWriter struct {
	w      *csv.Writer
	header []string
	column map[string]int
}

func NewCSVWriter(w io.Writer, opts ...CSVOption) *CSVWriter {
	c := &CSVWriter{
		w: csv.NewWriter(w),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Header is nil until the first record was written
func (c *CSVWriter) Header() []string {
	return c.header
}

func (c *CSVWriter) Write(r *Record) error {
	if c.header == nil {
		c.header = r.Names()
		c.column = make(map[string]int, len(c.header))
		for i, name := range c.header {
			c.column[name] = i
		}
		if errHeader := c.w.Write(c.header); errHeader != nil {
			return errHeader
		}
	}
	row := make([]string, len(c.header))
	for _, f := range r.fields {
		i, ok := c.column[f.Name]
		if !ok {
			return fmt.Errorf("%w %q, header is %v", ErrUnknownField, f.Name, c.header)
		}
		row[i] = FormatValue(f.Value)
	}
	return c.w.Write(row)
}

// WriteAll records and flush
func (c *CSVWriter) WriteAll(records []*Record) error {
	for _, r := range records {
		if errWrite := c.Write(r); errWrite != nil {
			return errWrite
		}
	}
	return c.Flush()
}

func (c *CSVWriter) Flush() error {
	c.w.Flush()
	return c.w.Error()
}

// FormatValue renders a scalar for a cell, nil is the empty string
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
