// Package chunk reads and writes the columnar files the pipeline stages
// between phases. A chunk is a single Arrow IPC file holding one record
// batch: raw chunks carry every column as nullable strings, clean chunks
// carry typed date and number columns. A manifest per stage directory
// indexes the chunks in source offset order.
package chunk

import (
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/arrow/memory"
)

// Kind is the logical type of a chunk column.
type Kind int

const (
	KindString Kind = iota
	KindDate
	KindFloat
)

// Field names one chunk column and its logical type.
type Field struct {
	Name string
	Kind Kind
}

// StringFields builds the all-string field list raw chunks use.
func StringFields(columns []string) []Field {
	fields := make([]Field, len(columns))
	for i, c := range columns {
		fields[i] = Field{Name: c, Kind: KindString}
	}
	return fields
}

// Names returns the column names of fields, in order.
func Names(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// FileName returns the canonical chunk file name for a page number.
func FileName(page int) string {
	return fmt.Sprintf("chunk_%05d.arrow", page)
}

func arrowType(k Kind) arrow.DataType {
	switch k {
	case KindDate:
		return arrow.FixedWidthTypes.Date32
	case KindFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

func buildSchema(fields []Field) *arrow.Schema {
	afields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		afields[i] = arrow.Field{Name: f.Name, Type: arrowType(f.Kind), Nullable: true}
	}
	return arrow.NewSchema(afields, nil)
}

func appendValue(bld array.Builder, f Field, v any) error {
	if v == nil {
		bld.AppendNull()
		return nil
	}
	switch f.Kind {
	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("chunk: column %s: unsupported value type %T", f.Name, v)
		}
		bld.(*array.StringBuilder).Append(s)
	case KindDate:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("chunk: column %s: unsupported value type %T", f.Name, v)
		}
		bld.(*array.Date32Builder).Append(arrow.Date32FromTime(t))
	case KindFloat:
		fv, ok := v.(float64)
		if !ok {
			return fmt.Errorf("chunk: column %s: unsupported value type %T", f.Name, v)
		}
		bld.(*array.Float64Builder).Append(fv)
	default:
		return fmt.Errorf("chunk: column %s: unknown kind %d", f.Name, f.Kind)
	}
	return nil
}

// Write stores rows as one Arrow record batch at path. Cells must be nil,
// string, time.Time or float64 matching the field kinds. The file appears
// atomically: data goes to a sibling .tmp file first and is renamed into
// place only after a clean close.
func Write(path string, fields []Field, rows [][]any) error {
	schema := buildSchema(fields)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for r, row := range rows {
		if len(row) != len(fields) {
			return fmt.Errorf("chunk: row %d has %d values, want %d", r, len(row), len(fields))
		}
		for i, f := range fields {
			if err := appendValue(b.Field(i), f, row[i]); err != nil {
				return err
			}
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	tmp := path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("chunk: create %s: %w", tmp, err)
	}
	w := ipc.NewWriter(out, ipc.WithSchema(schema))
	if err := w.Write(rec); err != nil {
		w.Close()
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("chunk: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("chunk: close writer for %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chunk: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chunk: rename %s: %w", tmp, err)
	}
	return nil
}

func fieldsOf(schema *arrow.Schema, path string) ([]Field, error) {
	fields := make([]Field, len(schema.Fields()))
	for i, f := range schema.Fields() {
		var k Kind
		switch f.Type.ID() {
		case arrow.STRING:
			k = KindString
		case arrow.DATE32:
			k = KindDate
		case arrow.FLOAT64:
			k = KindFloat
		default:
			return nil, fmt.Errorf("chunk: %s: column %s has unsupported type %s", path, f.Name, f.Type)
		}
		fields[i] = Field{Name: f.Name, Kind: k}
	}
	return fields, nil
}

// Read loads the chunk at path back into fields and rows. NULL cells come
// back as nil, dates as UTC midnight time.Time values.
func Read(path string) ([]Field, [][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("chunk: open %s: %w", path, err)
	}
	defer f.Close()

	r, err := ipc.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("chunk: read %s: %w", path, err)
	}
	defer r.Release()

	fields, err := fieldsOf(r.Schema(), path)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]any
	for r.Next() {
		rec := r.Record()
		n := int(rec.NumRows())
		for j := 0; j < n; j++ {
			row := make([]any, len(fields))
			for i, fd := range fields {
				col := rec.Column(i)
				if col.IsNull(j) {
					continue
				}
				switch fd.Kind {
				case KindString:
					row[i] = col.(*array.String).Value(j)
				case KindDate:
					row[i] = col.(*array.Date32).Value(j).ToTime()
				case KindFloat:
					row[i] = col.(*array.Float64).Value(j)
				}
			}
			rows = append(rows, row)
		}
	}
	if err := r.Err(); err != nil {
		return nil, nil, fmt.Errorf("chunk: read %s: %w", path, err)
	}
	return fields, rows, nil
}
