package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name    string
	Status  string
	Created time.Time
}

func sampleRecords(n int, status string) []record {
	out := make([]record, n)
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = record{
			Name:    fmt.Sprintf("user-%02d", i),
			Status:  status,
			Created: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return out
}

func TestPaginate_SplitsPages(t *testing.T) {
	items := sampleRecords(15, "BLOCKED")

	p0 := Paginate(items, 0, 10)
	require.Len(t, p0.Items, 10)
	assert.Equal(t, 0, p0.Page)
	assert.Equal(t, 15, p0.TotalItems)
	assert.Equal(t, 2, p0.TotalPages)
	assert.Equal(t, "user-00", p0.Items[0].Name)

	p1 := Paginate(items, 1, 10)
	require.Len(t, p1.Items, 5)
	assert.Equal(t, "user-10", p1.Items[0].Name)
}

func TestPaginate_ClampsToLastPage(t *testing.T) {
	items := sampleRecords(15, "BLOCKED")

	p := Paginate(items, 5, 10)
	assert.Equal(t, 1, p.Page)
	require.Len(t, p.Items, 5)
	assert.Equal(t, "user-10", p.Items[0].Name)
}

func TestPaginate_EmptyAndDefaults(t *testing.T) {
	p := Paginate([]record{}, 3, 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.Page)
	assert.Equal(t, 1, p.TotalPages)

	// Non-positive and oversized sizes fall back to the limits.
	p = Paginate(sampleRecords(5, "ACTIVE"), 0, 0)
	assert.Equal(t, DefaultPageSize, p.Size)
	p = Paginate(sampleRecords(5, "ACTIVE"), 0, 1000)
	assert.Equal(t, MaxPageSize, p.Size)

	p = Paginate(sampleRecords(5, "ACTIVE"), -2, 2)
	assert.Equal(t, 0, p.Page)
}

func TestFilter_PreservesOrderAndANDsDimensions(t *testing.T) {
	items := []record{
		{Name: "ana", Status: "ACTIVE"},
		{Name: "bruno", Status: "BLOCKED"},
		{Name: "carla", Status: "ACTIVE"},
		{Name: "anabel", Status: "BLOCKED"},
	}

	got := Filter(items,
		OneOf([]string{"BLOCKED"}, func(r record) string { return r.Status }),
		TextSearch("ANA", func(r record) string { return r.Name }),
	)
	require.Len(t, got, 1)
	assert.Equal(t, "anabel", got[0].Name)

	// Nil predicates (unset dimensions) are ignored.
	got = Filter(items, nil, OneOf(nil, func(r record) string { return r.Status }))
	assert.Len(t, got, 4)
	assert.Equal(t, "ana", got[0].Name)
	assert.Equal(t, "anabel", got[3].Name)
}

func TestTextSearch_ORsAcrossFields(t *testing.T) {
	type user struct{ Name, Email string }
	items := []user{
		{Name: "Lucia Perez", Email: "lucia@example.com"},
		{Name: "Marco Silva", Email: "marco@shop.example"},
	}

	pred := TextSearch[user]("shop",
		func(u user) string { return u.Name },
		func(u user) string { return u.Email },
	)
	got := Filter(items, pred)
	require.Len(t, got, 1)
	assert.Equal(t, "Marco Silva", got[0].Name)

	assert.Nil(t, TextSearch[user]("   ", func(u user) string { return u.Name }))
}

func TestInRange(t *testing.T) {
	items := sampleRecords(10, "ACTIVE")
	from := items[3].Created
	to := items[6].Created

	got := Filter(items, InRange(DateRange{From: from, To: to}, func(r record) time.Time { return r.Created }))
	require.Len(t, got, 4)
	assert.Equal(t, "user-03", got[0].Name)
	assert.Equal(t, "user-06", got[3].Name)

	// Zero timestamps never match a constrained range.
	withZero := append(items, record{Name: "undated"})
	got = Filter(withZero, InRange(DateRange{From: from}, func(r record) time.Time { return r.Created }))
	for _, r := range got {
		assert.NotEqual(t, "undated", r.Name)
	}
}

func TestList_FilterThenPaginate(t *testing.T) {
	items := append(sampleRecords(15, "BLOCKED"), sampleRecords(7, "ACTIVE")...)

	p := List(items, 1, 10, OneOf([]string{"BLOCKED"}, func(r record) string { return r.Status }))
	assert.Equal(t, 15, p.TotalItems)
	require.Len(t, p.Items, 5)
}
