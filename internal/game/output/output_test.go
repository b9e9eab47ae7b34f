package output_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/altai/internal/game/output"
)

func TestOutput_AddSub(t *testing.T) {
	a := output.New(1, 2, 3, 4, 5, 6)
	b := output.New(6, 5, 4, 3, 2, 1)
	assert.Equal(t, output.New(7, 7, 7, 7, 7, 7), a.Add(b))
	assert.Equal(t, output.New(-5, -3, -1, 1, 3, 5), a.Sub(b))
}

func TestOutput_ApplyPercent(t *testing.T) {
	o := output.New(10, 10, 10)
	got := o.ApplyPercent(output.New(50, 0, -50))
	assert.Equal(t, output.New(15, 10, 5), got)
}

func TestOutput_AnyPositive_EmptyMeansAll(t *testing.T) {
	o := output.New(0, 0, 0, 0, 0, 1)
	assert.True(t, o.AnyPositive(nil))
	assert.False(t, o.AnyPositive([]output.Category{output.Food, output.Gold}))
}

func TestFromMap_RejectsUnknown(t *testing.T) {
	_, err := output.FromMap(map[string]int{"mana": 3})
	assert.Error(t, err)

	o, err := output.FromMap(map[string]int{"research": 3, "food": 1})
	require.NoError(t, err)
	assert.Equal(t, output.New(1, 0, 0, 3), o)
}

func TestParseCategory_RoundTrip(t *testing.T) {
	for _, c := range output.AllCategories() {
		got, ok := output.ParseCategory(c.String())
		require.True(t, ok)
		assert.Equal(t, c, got)
	}
}

func TestMakeValueF_Weighted(t *testing.T) {
	f := output.MakeValueF(output.OnlyWeights(output.Research))
	assert.Equal(t, 7.0, f(output.New(100, 100, 100, 7)))
}

func TestCompileFormula_Evaluates(t *testing.T) {
	f, err := output.CompileFormula("Food*2 + Research")
	require.NoError(t, err)
	v, err := f.Eval(output.New(3, 0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
	assert.Equal(t, 10.0, f.ValueF()(output.New(3, 0, 0, 4)))
}

func TestCompileFormula_RejectsUnknownIdentifier(t *testing.T) {
	_, err := output.CompileFormula("Mana * 2")
	assert.Error(t, err)
	_, err = output.CompileFormula("")
	assert.Error(t, err)
}

func TestProperty_ValueF_Linear(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		var a, b output.Output
		for i := range a {
			a[i] = rapid.IntRange(-1000, 1000).Draw(rt, "a")
			b[i] = rapid.IntRange(-1000, 1000).Draw(rt, "b")
		}
		f := output.MakeValueF(output.DefaultWeights)
		if got, want := f(a.Add(b)), f(a)+f(b); got != want {
			rt.Fatalf("value of sum %v != sum of values %v", got, want)
		}
	})
}
