package meta

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/crud/dialect"
)

var errUnknownKind = errors.New("unknown statement kind")

// BuildSelectAll renders `SELECT <columns> FROM <table>`.
func BuildSelectAll(d *Descriptor, table string, a dialect.Adapter) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, f := range d.Selected() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.QuoteIdentifier(f.Name))
	}
	b.WriteString(" FROM ")
	b.WriteString(table)
	return b.String()
}

// BuildSelectByKey renders the select-all text filtered by the single key
// bound to @id.
func BuildSelectByKey(d *Descriptor, table string, a dialect.Adapter) (string, error) {
	key, err := d.SingleKey(SelectByKey.String())
	if err != nil {
		return "", err
	}
	return BuildSelectAll(d, table, a) + " WHERE " + a.QuoteIdentifier(key.Name) + " = @id", nil
}

// BuildUpdate renders `UPDATE <table> SET <col> = @<col>, ... WHERE <key> =
// @<key> [AND ...]`. The concurrency token joins the keys in the WHERE list.
func BuildUpdate(d *Descriptor, table string, a dialect.Adapter) (string, error) {
	keys := d.Keys()
	if len(keys) == 0 {
		return "", configError(d.Type, Update.String(), ErrNoKey)
	}
	set := d.Updated()
	if len(set) == 0 {
		return "", configError(d.Type, Update.String(), ErrNoColumns)
	}
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(table)
	b.WriteString(" SET ")
	appendEquals(&b, a, set, ", ")
	b.WriteString(" WHERE ")
	if d.Token != nil {
		keys = append(keys, d.Token)
	}
	appendEquals(&b, a, keys, " AND ")
	return b.String(), nil
}

// UpdateArgs returns the fields bound by the update statement.
func (d *Descriptor) UpdateArgs() []*Field {
	fields := append(d.Updated(), d.Keys()...)
	if d.Token != nil {
		fields = append(fields, d.Token)
	}
	return fields
}

// BuildDelete renders `DELETE FROM <table> WHERE <key> = @<key> [AND ...]`.
func BuildDelete(d *Descriptor, table string, a dialect.Adapter) (string, error) {
	keys := d.Keys()
	if len(keys) == 0 {
		return "", configError(d.Type, Delete.String(), ErrNoKey)
	}
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(table)
	b.WriteString(" WHERE ")
	appendEquals(&b, a, keys, " AND ")
	return b.String(), nil
}

// BuildDeleteAll renders `DELETE FROM <table>`.
func BuildDeleteAll(table string) string {
	return "DELETE FROM " + table
}

// BuildInsert renders the column and parameter lists of a single-row insert.
func BuildInsert(d *Descriptor, a dialect.Adapter) (columns, params string) {
	fields := d.Inserted()
	cols := make([]string, len(fields))
	ps := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = a.QuoteIdentifier(f.Name)
		ps[i] = "@" + f.Name
	}
	return strings.Join(cols, ", "), strings.Join(ps, ", ")
}

// BuildInsertBatch renders one insert of n rows. Row i binds field f to the
// parameter @<f>_<i>.
func BuildInsertBatch(d *Descriptor, table string, a dialect.Adapter, n int) string {
	fields := d.Inserted()
	columns, _ := BuildInsert(d, a)
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, columns)
	for i := range n {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, f := range fields {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("@")
			b.WriteString(BatchParam(f.Name, i))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// BatchParam returns the parameter name of field name in row i of a batch.
func BatchParam(name string, i int) string {
	return name + "_" + strconv.Itoa(i)
}

func appendEquals(b *strings.Builder, a dialect.Adapter, fields []*Field, sep string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteString(sep)
		}
		a.AppendColumnEqualsParam(b, f.Name)
	}
}
