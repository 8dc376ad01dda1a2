package optimization

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/capital-commander/pkg/types"
)

func testCodec() *Codec {
	cfg := DefaultConfig()
	return NewCodec(&cfg)
}

// TestCodec_Decode tests decoding skips unused slots and sorts by price
func TestCodec_Decode(t *testing.T) {
	codec := testCodec()

	c := make(Chromosome, 4*fieldsPerSlot)
	// slot 0: sell at 90000
	c[0], c[1], c[2] = 90_000, 1, 0.5
	// slot 1: unused (price below the floor)
	c[3], c[4], c[5] = 500, 0, 0.5
	// slot 2: buy at 70000.567 (price should round to 2 decimals)
	c[6], c[7], c[8] = 70_000.567, 0, 0.333
	// slot 3: unused (size below the minimum)
	c[9], c[10], c[11] = 80_000, 0, 0.001

	ops := codec.Decode(c)
	require.Len(t, ops, 2)

	// sorted ascending by price
	assert.Equal(t, 70_000.57, ops[0].Price)
	assert.Equal(t, types.ActionBuy, ops[0].Type)
	assert.Equal(t, 0.33, ops[0].SizeRatio)

	assert.Equal(t, 90_000.0, ops[1].Price)
	assert.Equal(t, types.ActionSell, ops[1].Type)
	assert.Equal(t, 0.5, ops[1].SizeRatio)
}

// TestCodec_Decode_AllZero tests that an all-zero chromosome decodes to no operations
func TestCodec_Decode_AllZero(t *testing.T) {
	codec := testCodec()
	c := make(Chromosome, 20*fieldsPerSlot)

	ops := codec.Decode(c)
	assert.Empty(t, ops)
}

// TestCodec_EncodeDecode_RoundTrip tests that a sorted sequence survives encoding
func TestCodec_EncodeDecode_RoundTrip(t *testing.T) {
	codec := testCodec()

	ops := []types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 0.25},
		{Price: 85_000.5, Type: types.ActionSell, SizeRatio: 0.5},
		{Price: 110_000, Type: types.ActionSell, SizeRatio: 1.0},
	}

	c := codec.Encode(ops, 20)
	require.Len(t, c, 20*fieldsPerSlot)

	decoded := codec.Decode(c)
	assert.Equal(t, ops, decoded)
}

// TestCodec_Encode_Truncates tests that operations beyond maxLength are dropped
func TestCodec_Encode_Truncates(t *testing.T) {
	codec := testCodec()

	ops := []types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 0.25},
		{Price: 85_000, Type: types.ActionSell, SizeRatio: 0.5},
		{Price: 110_000, Type: types.ActionSell, SizeRatio: 1.0},
	}

	c := codec.Encode(ops, 2)
	require.Len(t, c, 2*fieldsPerSlot)
	assert.Len(t, codec.Decode(c), 2)
}

// TestCodec_CreateRandom tests the invariants of freshly drawn chromosomes
func TestCodec_CreateRandom(t *testing.T) {
	codec := testCodec()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 100; i++ {
		c := codec.CreateRandom(rng)
		require.Len(t, c, codec.cfg.MaxChromosomeLength*fieldsPerSlot)

		used := c.usedSlots()
		assert.GreaterOrEqual(t, used, 3)
		assert.LessOrEqual(t, used, 15)

		prev := 0.0
		for s := 0; s < used; s++ {
			price := c[s*fieldsPerSlot]
			size := c[s*fieldsPerSlot+2]
			assert.True(t, codec.cfg.PriceRange.Contains(price), "price %f out of range", price)
			assert.GreaterOrEqual(t, price, prev, "prices must be sorted ascending")
			assert.GreaterOrEqual(t, size, codec.cfg.SizeRatioRange.Lo)
			assert.LessOrEqual(t, size, codec.cfg.SizeRatioRange.Hi)
			prev = price
		}
	}
}

// TestCodec_CreateRandom_ShortChromosome tests random creation with tight length limits
func TestCodec_CreateRandom_ShortChromosome(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxChromosomeLength = 2
	codec := NewCodec(&cfg)
	rng := rand.New(rand.NewSource(7))

	c := codec.CreateRandom(rng)
	require.Len(t, c, 2*fieldsPerSlot)
	assert.LessOrEqual(t, c.usedSlots(), 2)
}

// TestCodec_Mutate_ZeroRate tests that a zero mutation rate leaves the chromosome intact
func TestCodec_Mutate_ZeroRate(t *testing.T) {
	codec := testCodec()
	rng := rand.New(rand.NewSource(1))

	c := codec.CreateRandom(rng)
	mutated := codec.Mutate(c, 0, rng)

	assert.Equal(t, c, mutated)
}

// TestCodec_Mutate_StaysValid tests that mutation output is always compact and sorted
func TestCodec_Mutate_StaysValid(t *testing.T) {
	codec := testCodec()
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 200; i++ {
		c := codec.CreateRandom(rng)
		mutated := codec.Mutate(c, 0.5, rng)
		require.Len(t, mutated, len(c))

		used := mutated.usedSlots()
		prev := 0.0
		for s := 0; s < mutated.slots(); s++ {
			price := mutated[s*fieldsPerSlot]
			if s < used {
				require.GreaterOrEqual(t, price, unusedPriceFloor, "used slots must be packed first")
				assert.GreaterOrEqual(t, price, prev)
				prev = price
			} else {
				require.Less(t, price, unusedPriceFloor, "trailing slots must be unused")
			}
		}

		// original untouched
		assert.Equal(t, c, codec.Mutate(c, 0, rng))
	}
}

// TestCodec_Mutate_PriceStaysInRange tests the price shift clamp
func TestCodec_Mutate_PriceStaysInRange(t *testing.T) {
	codec := testCodec()
	rng := rand.New(rand.NewSource(5))

	c := codec.CreateRandom(rng)
	for i := 0; i < 50; i++ {
		c = codec.Mutate(c, 1.0, rng)
		for s := 0; s < c.usedSlots(); s++ {
			price := c[s*fieldsPerSlot]
			assert.True(t, codec.cfg.PriceRange.Contains(price), "mutated price %f left the range", price)
		}
	}
}

// TestCodec_Crossover tests single-point crossover in whole-operation units
func TestCodec_Crossover(t *testing.T) {
	codec := testCodec()
	rng := rand.New(rand.NewSource(13))

	parent1 := codec.CreateRandom(rng)
	parent2 := codec.CreateRandom(rng)

	child1, child2 := codec.Crossover(parent1, parent2, rng)
	require.Len(t, child1, len(parent1))
	require.Len(t, child2, len(parent2))

	// every slot of a child comes verbatim from one parent at that position
	for s := 0; s < child1.slots(); s++ {
		idx := s * fieldsPerSlot
		fromP1 := child1[idx] == parent1[idx] && child1[idx+1] == parent1[idx+1] && child1[idx+2] == parent1[idx+2]
		fromP2 := child1[idx] == parent2[idx] && child1[idx+1] == parent2[idx+1] && child1[idx+2] == parent2[idx+2]
		assert.True(t, fromP1 || fromP2, "slot %d not inherited from either parent", s)
	}
}

// TestCodec_Crossover_DegenerateParents tests crossover fallbacks
func TestCodec_Crossover_DegenerateParents(t *testing.T) {
	codec := testCodec()
	rng := rand.New(rand.NewSource(3))

	empty := make(Chromosome, codec.cfg.MaxChromosomeLength*fieldsPerSlot)
	other := codec.CreateRandom(rng)

	// empty parent: plain copies
	c1, c2 := codec.Crossover(empty, other, rng)
	assert.Equal(t, empty, c1)
	assert.Equal(t, other, c2)

	// single-operation parents: no usable cut point
	single := codec.Encode([]types.Operation{{Price: 70_000, Type: types.ActionBuy, SizeRatio: 0.5}}, codec.cfg.MaxChromosomeLength)
	c1, c2 = codec.Crossover(single, other, rng)
	assert.Equal(t, single, c1)
	assert.Equal(t, other, c2)
}

// TestCodec_IsValidSequence tests sequence validation rules
func TestCodec_IsValidSequence(t *testing.T) {
	codec := testCodec()

	valid := []types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 0.5},
		{Price: 90_000, Type: types.ActionSell, SizeRatio: 1.0},
	}
	assert.True(t, codec.IsValidSequence(valid))

	// empty
	assert.False(t, codec.IsValidSequence(nil))

	// descending prices
	assert.False(t, codec.IsValidSequence([]types.Operation{
		{Price: 90_000, Type: types.ActionBuy, SizeRatio: 0.5},
		{Price: 65_000, Type: types.ActionSell, SizeRatio: 0.5},
	}))

	// price outside the configured range
	assert.False(t, codec.IsValidSequence([]types.Operation{
		{Price: 10_000, Type: types.ActionBuy, SizeRatio: 0.5},
	}))

	// size ratio out of bounds
	assert.False(t, codec.IsValidSequence([]types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 0.001},
	}))
	assert.False(t, codec.IsValidSequence([]types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 1.5},
	}))

	// unknown action
	assert.False(t, codec.IsValidSequence([]types.Operation{
		{Price: 65_000, Type: types.ActionType(7), SizeRatio: 0.5},
	}))

	// equal prices are allowed
	assert.True(t, codec.IsValidSequence([]types.Operation{
		{Price: 65_000, Type: types.ActionBuy, SizeRatio: 0.5},
		{Price: 65_000, Type: types.ActionSell, SizeRatio: 0.5},
	}))
}
