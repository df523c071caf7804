package rating

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		rating float64
		code   string
	}{
		{-250, "L1"},
		{0, "L1"},
		{899, "L1"},
		{899.99, "L1"},
		{900, "L2"},
		{999.5, "L2"},
		{1000, "L3"},
		{1099, "L3"},
		{1100, "L4"},
		{1200, "L5"},
		{1300, "L6"},
		{1399.999, "L6"},
		{1400, "L7"},
		{1499, "L7"},
		{1500, "L8"},
		{3200, "L8"},
		{math.Inf(1), "L8"},
		{math.Inf(-1), "L1"},
		{math.NaN(), "L1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, Classify(tt.rating).Code, "rating %v", tt.rating)
	}
}

func TestClassify_NamesMatchTable(t *testing.T) {
	assert.Equal(t, "Rookie", Classify(850).Name)
	assert.Equal(t, "Club Starter", Classify(950).Name)
	assert.Equal(t, "Club Intermediate", Classify(1000).Name)
	assert.Equal(t, "Strong Intermediate", Classify(1150).Name)
	assert.Equal(t, "Club Advanced", Classify(1250).Name)
	assert.Equal(t, "Tournament Challenger", Classify(1350).Name)
	assert.Equal(t, "Tournament Winner", Classify(1450).Name)
	assert.Equal(t, "Semi-Pro Tier", Classify(1550).Name)
}

func TestLevels_ContiguousAndOrdered(t *testing.T) {
	all := Levels()
	require.Len(t, all, 8)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].UpperBound, all[i].LowerBound, "gap between %s and %s", all[i-1].Code, all[i].Code)
		assert.True(t, all[i].Contains(all[i].LowerBound))
		assert.False(t, all[i-1].Contains(all[i].LowerBound))
	}

	// The returned slice is a copy.
	all[0].Name = "changed"
	assert.Equal(t, "Rookie", Levels()[0].Name)
}

func TestLevelByCode(t *testing.T) {
	l, ok := LevelByCode("L5")
	require.True(t, ok)
	assert.Equal(t, "Club Advanced", l.Name)

	_, ok = LevelByCode("L9")
	assert.False(t, ok)
}

func TestLevel_Range(t *testing.T) {
	assert.Equal(t, "0-899", Classify(100).Range())
	assert.Equal(t, "1000-1099", Classify(1050).Range())
	assert.Equal(t, "1500+", Classify(2000).Range())
}

func TestLevel_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Classify(10))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"L1","name":"Rookie","range":"0-899","lower_bound":null,"upper_bound":900}`, string(b))

	b, err = json.Marshal(Classify(1600))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":"L8","name":"Semi-Pro Tier","range":"1500+","lower_bound":1500,"upper_bound":null}`, string(b))
}
