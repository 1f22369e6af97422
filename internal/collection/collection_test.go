package collection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBooks() []Record {
	return []Record{
		{"id": 1, "title": "Throne of Glass", "auhtor": "Sarah J. Maas"},
		{"id": 2, "title": "Vampire Academy", "author": "Richelle Mead"},
		{"id": 3, "title": "Poison Study", "author": "Maria V. Snyder"},
		{"id": 4, "title": "Storm Born", "author": "Richelle Mead"},
	}
}

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	c, err := New("books", testBooks())
	require.NoError(t, err)

	return c
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	tests := []struct {
		name    string
		filter  Record
		wantIDs []float64
	}{
		{
			name:    "nil filter matches everything",
			filter:  nil,
			wantIDs: []float64{1, 2, 3, 4},
		},
		{
			name:    "empty filter matches everything",
			filter:  Record{},
			wantIDs: []float64{1, 2, 3, 4},
		},
		{
			name:    "by id",
			filter:  Record{"id": 3},
			wantIDs: []float64{3},
		},
		{
			name:    "by author keeps insertion order",
			filter:  Record{"author": "Richelle Mead"},
			wantIDs: []float64{2, 4},
		},
		{
			name:    "every pair must match",
			filter:  Record{"author": "Richelle Mead", "id": 4},
			wantIDs: []float64{4},
		},
		{
			name:    "no match",
			filter:  Record{"id": 42},
			wantIDs: []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := c.Find(ctx, tt.filter)
			require.NoError(t, err)

			ids := []float64{}
			for _, rec := range found {
				for key, value := range tt.filter {
					assert.EqualValues(t, value, rec[key])
				}
				ids = append(ids, rec["id"].(float64))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	found, err := c.Find(ctx, Record{"id": 2})
	require.NoError(t, err)
	require.Len(t, found, 1)
	found[0]["title"] = "Changed outside"

	rec, ok, err := c.FindOne(ctx, Record{"id": 2})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Vampire Academy", rec["title"])
}

func TestFindOne(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	rec, found, err := c.FindOne(ctx, Record{"author": "Richelle Mead"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 2, rec["id"])

	rec, found, err = c.FindOne(ctx, Record{"id": 100})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, rec)
}

func TestInsertOne(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	type book struct {
		ID     int    `json:"id"`
		Title  string `json:"title"`
		Author string `json:"author"`
	}

	committed, err := c.InsertOne(ctx, book{ID: 5, Title: "New Book", Author: "New Author"})
	require.NoError(t, err)
	assert.Equal(t, Record{"id": float64(5), "title": "New Book", "author": "New Author"}, committed)

	found, err := c.Find(ctx, Record{"id": 5})
	require.NoError(t, err)
	assert.Equal(t, []Record{committed}, found)

	all, err := c.Find(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, committed, all[len(all)-1], "inserted record should be the last element")

	_, err = c.InsertOne(ctx, Record{"id": 5, "title": "Duplicate id"})
	assert.NoError(t, err, "duplicate ids are accepted")
	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestInsertOneMalformed(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	for _, input := range []any{nil, []string{"a"}, 42, func() {}} {
		_, err := c.InsertOne(ctx, input)
		assert.ErrorIs(t, err, ErrMalformed)
	}
}

func TestDeleteOne(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	require.NoError(t, c.DeleteOne(ctx, Record{"id": 2}))
	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, c.DeleteOne(ctx, Record{"id": 2}), "repeated delete is a no-op")
	count, err = c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := c.Find(ctx, nil)
	require.NoError(t, err)
	ids := []any{}
	for _, rec := range all {
		ids = append(ids, rec["id"])
	}
	assert.Equal(t, []any{float64(1), float64(3), float64(4)}, ids, "the gap closes")
}

func TestDeleteOneRemovesOnlyFirstMatch(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	require.NoError(t, c.DeleteOne(ctx, Record{"author": "Richelle Mead"}))

	left, err := c.Find(ctx, Record{"author": "Richelle Mead"})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.EqualValues(t, 4, left[0]["id"])
}

func TestUpdateOne(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	before, err := c.Find(ctx, nil)
	require.NoError(t, err)

	err = c.UpdateOne(ctx, Record{"id": 2}, Record{"title": "Updated Book", "author": "Updated Author"})
	require.NoError(t, err)

	after, err := c.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, after, len(before))

	for i := range before {
		if before[i]["id"] == float64(2) {
			assert.Equal(t, Record{"id": float64(2), "title": "Updated Book", "author": "Updated Author"}, after[i])
			continue
		}
		assert.Equal(t, before[i], after[i])
	}
}

func TestUpdateOneKeepsAbsentFields(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	require.NoError(t, c.UpdateOne(ctx, Record{"id": 3}, Record{"title": "Only the title"}))

	rec, found, err := c.FindOne(ctx, Record{"id": 3})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Only the title", rec["title"])
	assert.Equal(t, "Maria V. Snyder", rec["author"])
}

func TestUpdateOneNotFound(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	err := c.UpdateOne(ctx, Record{"id": 99}, Record{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResetIsVisibleImmediately(t *testing.T) {
	ctx := context.Background()
	c := newTestCollection(t)

	require.NoError(t, c.DeleteOne(ctx, Record{"id": 1}))
	require.NoError(t, c.Reset(testBooks()))

	rec, found, err := c.FindOne(ctx, Record{"id": 1})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Sarah J. Maas", rec["auhtor"])
}

func TestCanceledContext(t *testing.T) {
	c := newTestCollection(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Find(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.InsertOne(ctx, Record{"id": 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindComparesWholeValues(t *testing.T) {
	ctx := context.Background()
	c, err := New("docs", []Record{
		{"id": 1, "tags": []any{"a", "b"}, "meta": Record{"x": 1, "y": 2}, "a": Record{"b": 7}, "code": "1"},
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		filter    Record
		wantCount int
		wantErr   error
	}{
		{name: "scalar against array field", filter: Record{"tags": "a"}},
		{name: "partial object", filter: Record{"meta": Record{"x": 1}}},
		{name: "whole object", filter: Record{"meta": Record{"x": 1, "y": 2}}, wantCount: 1},
		{name: "whole array", filter: Record{"tags": []any{"a", "b"}}, wantCount: 1},
		{name: "array in another order", filter: Record{"tags": []any{"b", "a"}}},
		{name: "operator-looking value", filter: Record{"id": Record{"$ne": 5}}},
		{name: "null against missing field", filter: Record{"missing": nil}},
		{name: "number against numeric string", filter: Record{"code": 1}},
		{name: "string against number", filter: Record{"id": "1"}},
		{name: "dotted key", filter: Record{"a.b": 7}, wantErr: ErrMalformed},
		{name: "operator key", filter: Record{"$or": []any{Record{"id": 1}}}, wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := c.Find(ctx, tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, found, tt.wantCount)
		})
	}
}

func TestFindNullValue(t *testing.T) {
	ctx := context.Background()
	c, err := New("docs", []Record{
		{"id": 1, "author": nil},
		{"id": 2},
	})
	require.NoError(t, err)

	found, err := c.Find(ctx, Record{"author": nil})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.EqualValues(t, 1, found[0]["id"])
}

func TestUpdateOneOverwritesTopLevelFields(t *testing.T) {
	ctx := context.Background()
	c, err := New("docs", []Record{
		{"id": 1, "author": "A", "meta": Record{"x": 1, "y": 2}, "tags": []any{"a", "b"}},
	})
	require.NoError(t, err)

	err = c.UpdateOne(ctx, Record{"id": 1}, Record{
		"author": nil,
		"meta":   Record{"x": 9},
		"tags":   []any{"c"},
	})
	require.NoError(t, err)

	rec, found, err := c.FindOne(ctx, Record{"id": 1})
	require.NoError(t, err)
	require.True(t, found)

	author, present := rec["author"]
	assert.True(t, present, "a null field is stored, not removed")
	assert.Nil(t, author)
	assert.Equal(t, map[string]any{"x": float64(9)}, rec["meta"])
	assert.Equal(t, []any{"c"}, rec["tags"])
	assert.EqualValues(t, 1, rec["id"])
}
