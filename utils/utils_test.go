package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePagination(t *testing.T) {
	p := CreatePagination(25, 0, 0)
	assert.Equal(t, &Pagination{TotalItems: 25, CurrentPage: 1, PageSize: 10, TotalPages: 3}, p)

	p = CreatePagination(0, 2, 500)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, 0, p.TotalPages)
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-05", "2024/03/05", "03/05/2024", "5 Mar 2024", " 2024-03-05T00:00:00Z "} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	got, err := ParseDate("2024-03-05T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, got.UTC().Hour())

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString("  "))
	s := OptionalString(" a@b.c ")
	require.NotNil(t, s)
	assert.Equal(t, "a@b.c", *s)
	assert.Equal(t, "", Deref(nil))
	assert.Equal(t, "x", Deref(OptionalString("x")))
}
