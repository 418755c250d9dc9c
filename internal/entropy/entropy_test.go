package entropy

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecords() []ParticipationRecord {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []ParticipationRecord{
		NewParticipationRecord("b-second", "user-2", []int64{10000004, 10000005}, 2, base.Add(time.Minute)),
		NewParticipationRecord("a-first", "user-1", []int64{10000001, 10000002, 10000003}, 3, base),
	}
}

func TestNewParticipationRecord(t *testing.T) {
	t.Run("sorts numbers ascending", func(t *testing.T) {
		rec := NewParticipationRecord("p1", "u1", []int64{5, 3, 4}, 3, time.Now())
		assert.Equal(t, []int64{3, 4, 5}, rec.Numbers)
	})

	t.Run("does not mutate the input slice", func(t *testing.T) {
		numbers := []int64{5, 3, 4}
		NewParticipationRecord("p1", "u1", numbers, 3, time.Now())
		assert.Equal(t, []int64{5, 3, 4}, numbers)
	})

	t.Run("normalizes timestamp to UTC", func(t *testing.T) {
		loc := time.FixedZone("UTC+9", 9*3600)
		at := time.Date(2026, 3, 1, 21, 0, 0, 0, loc)
		rec := NewParticipationRecord("p1", "u1", nil, 0, at)
		assert.Equal(t, "2026-03-01T12:00:00Z", rec.CreatedAt)
	})
}

func TestParticipationDigest(t *testing.T) {
	t.Run("independent of record order", func(t *testing.T) {
		records := testRecords()
		reversed := []ParticipationRecord{records[1], records[0]}

		d1, err := ParticipationDigest(records)
		require.NoError(t, err)
		d2, err := ParticipationDigest(reversed)
		require.NoError(t, err)
		assert.Equal(t, d1, d2)
	})

	t.Run("changes when any record changes", func(t *testing.T) {
		records := testRecords()
		d1, err := ParticipationDigest(records)
		require.NoError(t, err)

		records[0].Cost++
		d2, err := ParticipationDigest(records)
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("changes when a record is removed", func(t *testing.T) {
		records := testRecords()
		d1, err := ParticipationDigest(records)
		require.NoError(t, err)

		d2, err := ParticipationDigest(records[:1])
		require.NoError(t, err)
		assert.NotEqual(t, d1, d2)
	})

	t.Run("is a hex sha-256", func(t *testing.T) {
		d, err := ParticipationDigest(testRecords())
		require.NoError(t, err)
		raw, err := hex.DecodeString(d)
		require.NoError(t, err)
		assert.Len(t, raw, 32)
	})
}

func TestComposeSeed(t *testing.T) {
	const (
		roundID       = "11111111-1111-1111-1111-111111111111"
		productHash   = "aaaa"
		partHash      = "bbbb"
		systemEntropy = "cccc"
	)

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		s1, err := ComposeSeed(roundID, partHash, productHash, systemEntropy)
		require.NoError(t, err)
		s2, err := ComposeSeed(roundID, partHash, productHash, systemEntropy)
		require.NoError(t, err)
		assert.Equal(t, s1, s2)
	})

	t.Run("sensitive to every input", func(t *testing.T) {
		base, err := ComposeSeed(roundID, partHash, productHash, systemEntropy)
		require.NoError(t, err)

		variants := [][4]string{
			{"22222222-2222-2222-2222-222222222222", partHash, productHash, systemEntropy},
			{roundID, "bbbc", productHash, systemEntropy},
			{roundID, partHash, "aaab", systemEntropy},
			{roundID, partHash, productHash, "cccd"},
		}
		for _, v := range variants {
			s, err := ComposeSeed(v[0], v[1], v[2], v[3])
			require.NoError(t, err)
			assert.NotEqual(t, base, s)
		}
	})
}

func TestWinningOffset(t *testing.T) {
	t.Run("deterministic and within range", func(t *testing.T) {
		seed, err := ComposeSeed("round-1", "p", "q", "e")
		require.NoError(t, err)

		o1, err := WinningOffset(seed, "round-1", 100)
		require.NoError(t, err)
		o2, err := WinningOffset(seed, "round-1", 100)
		require.NoError(t, err)
		assert.Equal(t, o1, o2)
		assert.GreaterOrEqual(t, o1, int64(0))
		assert.Less(t, o1, int64(100))
	})

	t.Run("single share always offset zero", func(t *testing.T) {
		offset, err := WinningOffset("any-seed", "round-1", 1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), offset)
	})

	t.Run("rejects non-positive share counts", func(t *testing.T) {
		_, err := WinningOffset("seed", "round-1", 0)
		assert.Error(t, err)
		_, err = WinningOffset("seed", "round-1", -5)
		assert.Error(t, err)
	})

	t.Run("different rounds get different offsets for the same seed", func(t *testing.T) {
		// Not guaranteed for any single pair, but across many rounds at
		// least one must differ if the round ID is actually mixed in.
		same := true
		base, err := WinningOffset("seed", "round-0", 1_000_000)
		require.NoError(t, err)
		for _, roundID := range []string{"round-1", "round-2", "round-3", "round-4"} {
			offset, err := WinningOffset("seed", roundID, 1_000_000)
			require.NoError(t, err)
			if offset != base {
				same = false
			}
		}
		assert.False(t, same)
	})
}

func TestNewSystemEntropy(t *testing.T) {
	e1, err := NewSystemEntropy()
	require.NoError(t, err)
	e2, err := NewSystemEntropy()
	require.NoError(t, err)

	raw, err := hex.DecodeString(e1)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, e1, e2)
}

func TestProductDigest(t *testing.T) {
	d1, err := ProductDigest("product-1", SeedVersionTag)
	require.NoError(t, err)
	d2, err := ProductDigest("product-2", SeedVersionTag)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)

	d3, err := ProductDigest("product-1", "1.0")
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}
