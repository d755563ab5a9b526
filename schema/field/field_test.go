package field_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/crud/schema/field"
)

func TestNew(t *testing.T) {
	fd := field.New("Name").Comment("display name").Descriptor()
	assert.Equal(t, "Name", fd.Name)
	assert.Equal(t, "display name", fd.Comment)
	assert.Equal(t, field.Role(0), fd.Roles)
	assert.True(t, fd.Writable())
	assert.False(t, fd.IsIdentity())
	assert.False(t, fd.IsKey())
	assert.False(t, fd.IsComputed())
	assert.False(t, fd.IsConcurrencyToken())
}

func TestRoles(t *testing.T) {
	fd := field.New("Id").Identity().Descriptor()
	assert.True(t, fd.IsIdentity())
	assert.Equal(t, "identity", fd.Roles.String())

	fd = field.New("Code").Key().NonWritable().Descriptor()
	assert.True(t, fd.IsKey())
	assert.False(t, fd.Writable())
	assert.Equal(t, "key|non_writable", fd.Roles.String())

	fd = field.New("Version").ConcurrencyToken().Descriptor()
	assert.True(t, fd.IsConcurrencyToken())

	fd = field.New("CreatedAt").Computed().Roles(field.RoleNonWritable).Descriptor()
	assert.True(t, fd.IsComputed())
	assert.False(t, fd.Writable())

	assert.Equal(t, "plain", field.Role(0).String())
	assert.True(t, (field.RoleKey | field.RoleComputed).Has(field.RoleKey))
	assert.False(t, field.RoleKey.Has(field.RoleKey|field.RoleComputed))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want field.Role
		ok   bool
	}{
		{"identity", field.RoleIdentity, true},
		{"key", field.RoleKey, true},
		{"explicit_key", field.RoleKey, true},
		{"computed", field.RoleComputed, true},
		{"version", field.RoleConcurrencyToken, true},
		{" Concurrency_Token ", field.RoleConcurrencyToken, true},
		{"nowrite", field.RoleNonWritable, true},
		{"primary", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := field.ParseRole(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptors(t *testing.T) {
	ds := field.Descriptors([]field.Field{
		field.New("A"),
		nil,
		field.New("B").Key(),
	})
	require.Len(t, ds, 2)
	assert.Equal(t, "A", ds[0].Name)
	assert.Equal(t, "B", ds[1].Name)
	assert.Empty(t, field.Descriptors(nil))
}
