package domain

import "fmt"

// Well-known order fields. Only Status and OrderDate are interpreted.
const (
	FieldOrderID   = "OrderID"
	FieldCustomer  = "Customer"
	FieldStatus    = "Status"
	FieldOrderDate = "OrderDate"
	FieldAmount    = "Amount"
)

// Record is one row of an uploaded dataset, keyed by header field name.
// Values are untyped strings at the transform boundary.
type Record map[string]string

// Dataset is an ordered sequence of records sharing one ordered header.
type Dataset struct {
	Header  []string
	Records []Record
}

// NewDataset builds a Dataset from a header and positional rows.
// Every row must have exactly len(header) fields.
func NewDataset(header []string, rows [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, ErrValidation("dataset header is empty")
	}
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		if _, dup := seen[h]; dup {
			return nil, ErrValidation("duplicate header field %q", h)
		}
		seen[h] = struct{}{}
	}

	ds := &Dataset{
		Header:  append([]string(nil), header...),
		Records: make([]Record, 0, len(rows)),
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, ErrValidation("row %d has %d fields, header has %d", i, len(row), len(header))
		}
		rec := make(Record, len(header))
		for j, h := range header {
			rec[h] = row[j]
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// HasField reports whether name is part of the header.
func (d *Dataset) HasField(name string) bool {
	for _, h := range d.Header {
		if h == name {
			return true
		}
	}
	return false
}

// Rows returns the records as positional rows in header order.
func (d *Dataset) Rows() [][]string {
	out := make([][]string, len(d.Records))
	for i, rec := range d.Records {
		row := make([]string, len(d.Header))
		for j, h := range d.Header {
			row[j] = rec[h]
		}
		out[i] = row
	}
	return out
}

// Validate checks that every record's field set equals the header field set.
func (d *Dataset) Validate() error {
	if len(d.Header) == 0 {
		return ErrValidation("dataset header is empty")
	}
	for i, rec := range d.Records {
		if len(rec) != len(d.Header) {
			return ErrValidation("record %d has %d fields, header has %d", i, len(rec), len(d.Header))
		}
		for _, h := range d.Header {
			if _, ok := rec[h]; !ok {
				return ErrValidation("record %d is missing field %q", i, h)
			}
		}
	}
	return nil
}

// String is used in log lines.
func (d *Dataset) String() string {
	return fmt.Sprintf("dataset(%d fields, %d records)", len(d.Header), len(d.Records))
}
