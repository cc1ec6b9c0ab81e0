package meta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{7, "7.0"},
		{0.5, "0.5"},
		{0.35, "0.35"},
		{-2, "-2.0"},
		{0.0001, "0.0001"},
		{1e-05, "1e-05"},
		{123456789, "123456789.0"},
		{1e16, "1e+16"},
		{0, "0.0"},
		{math.Copysign(0, -1), "-0.0"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{math.NaN(), "nan"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFloat(tt.in))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "euler", Format("euler"))
	assert.Equal(t, "True", Format(true))
	assert.Equal(t, "False", Format(false))
	assert.Equal(t, "20", Format(int64(20)))
	assert.Equal(t, "20", Format(20))
	assert.Equal(t, "7.0", Format(7.0))
	assert.Equal(t, "0.1", Format(float32(0.1)))
	assert.Equal(t, "MODEL_NAME", Format(ModelName))
}

func TestToInt(t *testing.T) {
	i, ok := ToInt(int64(512))
	assert.True(t, ok)
	assert.Equal(t, int64(512), i)

	i, ok = ToInt(uint8(8))
	assert.True(t, ok)
	assert.Equal(t, int64(8), i)

	for _, v := range []any{512.0, "512", true, nil, uint64(math.MaxUint64)} {
		_, ok := ToInt(v)
		assert.False(t, ok, "%#v", v)
	}
}

func TestToFloat(t *testing.T) {
	f, ok := ToFloat(" 0.75 ")
	assert.True(t, ok)
	assert.Equal(t, 0.75, f)

	f, ok = ToFloat(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = ToFloat("high")
	assert.False(t, ok)
	_, ok = ToFloat([]any{1.0})
	assert.False(t, ok)
}

func TestScalarAndBlank(t *testing.T) {
	assert.True(t, IsScalar("x"))
	assert.True(t, IsScalar(false))
	assert.True(t, IsScalar(float32(1)))
	assert.False(t, IsScalar(nil))
	assert.False(t, IsScalar([]any{"a"}))
	assert.False(t, IsScalar(map[string]any{}))

	assert.True(t, IsBlank(nil))
	assert.True(t, IsBlank("  \t"))
	assert.False(t, IsBlank("a"))
	assert.False(t, IsBlank(0))
}

func TestField(t *testing.T) {
	assert.Equal(t, "MODEL_HASH", ModelHash.String())
	assert.Equal(t, "UNKNOWN", Field(0).String())
	assert.False(t, Field(0).Valid())
	assert.True(t, UpscaleModelHash.Valid())

	f, ok := ParseField("LORA_STRENGTH_CLIP")
	assert.True(t, ok)
	assert.Equal(t, LoraStrengthClip, f)
	_, ok = ParseField("lora_strength_clip")
	assert.False(t, ok)

	assert.True(t, EmbeddingHash.Multi())
	assert.True(t, LoraModelName.Multi())
	assert.False(t, Seed.Multi())
}

func TestInputsFirst(t *testing.T) {
	in := Inputs{}
	in.Add(Seed, Candidate{NodeID: "1", Value: nil})
	in.Add(Seed, Candidate{NodeID: "2", Value: []any{int64(1)}})
	in.Add(Seed, Candidate{NodeID: "3", Value: "   "})
	in.Add(Seed, Candidate{NodeID: "4", Value: int64(42)})
	in.Add(Seed, Candidate{NodeID: "5", Value: int64(7)})

	c, ok := in.First(Seed)
	assert.True(t, ok)
	assert.Equal(t, "4", c.NodeID)

	s, ok := in.FirstString(Seed)
	assert.True(t, ok)
	assert.Equal(t, "42", s)

	_, ok = in.First(Steps)
	assert.False(t, ok)
	_, ok = in.FirstString(Steps)
	assert.False(t, ok)

	assert.True(t, in.Has(Seed))
	assert.False(t, in.Has(Steps))
	assert.Equal(t, 5, in.Len())
	assert.Equal(t, []any{nil, []any{int64(1)}, "   ", int64(42), int64(7)}, in.Values(Seed))
	assert.Nil(t, in.Values(Steps))
}

func TestInputsFirst_FalseIsPresent(t *testing.T) {
	in := Inputs{}
	in.Add(Denoise, Candidate{Value: false})
	c, ok := in.First(Denoise)
	assert.True(t, ok)
	assert.Equal(t, false, c.Value)
}

func TestInputsStrings(t *testing.T) {
	in := Inputs{}
	in.Add(LoraModelName, Candidate{Value: "a.safetensors"})
	in.Add(LoraModelName, Candidate{Value: nil})
	in.Add(LoraModelName, Candidate{Value: "b.safetensors"})
	assert.Equal(t, []string{"a.safetensors", "b.safetensors"}, in.Strings(LoraModelName))
}

func TestInputsSortByRank(t *testing.T) {
	in := Inputs{}
	in.Add(Steps, Candidate{NodeID: "far", Value: int64(10), Rank: 3})
	in.Add(Steps, Candidate{NodeID: "near-a", Value: int64(20), Rank: 1})
	in.Add(Steps, Candidate{NodeID: "near-b", Value: int64(30), Rank: 1})
	in.SortByRank()

	ids := make([]string, 0, 3)
	for _, c := range in.Get(Steps) {
		ids = append(ids, c.NodeID)
	}
	assert.Equal(t, []string{"near-a", "near-b", "far"}, ids)
}

func TestInputsClone(t *testing.T) {
	in := Inputs{}
	in.Add(CFG, Candidate{Value: 7.0})
	out := in.Clone()
	out.Add(CFG, Candidate{Value: 8.0})
	out[CFG][0].Value = 1.0

	assert.Len(t, in.Get(CFG), 1)
	assert.Equal(t, 7.0, in.Get(CFG)[0].Value)
	assert.Len(t, out.Get(CFG), 2)
}
