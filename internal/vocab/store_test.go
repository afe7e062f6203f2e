package vocab

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewStore("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Record{
		Text:        "run",
		Translation: "[v.  ] correr",
		TargetLang:  "es",
		Provider:    "openai",
		Model:       "gpt-4o",
		PageNumber:  12,
		HadImage:    true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "run", got.Text)
	assert.Equal(t, "[v.  ] correr", got.Translation)
	assert.Equal(t, "es", got.TargetLang)
	assert.Equal(t, 12, got.PageNumber)
	assert.True(t, got.HadImage)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetUnknownID(t *testing.T) {
	s := testStore(t)
	got, err := s.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, w := range []string{"uno", "dos", "tres"} {
		_, err := s.Save(ctx, Record{Text: w, CreatedAt: base.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "tres", all[0].Text)
	assert.Equal(t, "uno", all[2].Text)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, "tres", two[0].Text)
}

func TestCountDeleteClear(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, Record{Text: "uno"})
	require.NoError(t, err)
	_, err = s.Save(ctx, Record{Text: "dos"})
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.Delete(ctx, id))
	n, _ = s.Count(ctx)
	assert.Equal(t, int64(1), n)

	require.NoError(t, s.Clear(ctx))
	n, _ = s.Count(ctx)
	assert.Equal(t, int64(0), n)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)
}
