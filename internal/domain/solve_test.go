package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYSeriesUnmarshalFlat(t *testing.T) {
	var ys YSeries
	require.NoError(t, json.Unmarshal([]byte(`[1, 2.5, 3]`), &ys))
	assert.Equal(t, YSeries{{1}, {2.5}, {3}}, ys)
}

func TestYSeriesUnmarshalTuples(t *testing.T) {
	var ys YSeries
	require.NoError(t, json.Unmarshal([]byte(`[[1, 0], [2, 1]]`), &ys))
	assert.Equal(t, YSeries{{1, 0}, {2, 1}}, ys)
}

func TestYSeriesUnmarshalRejectsOther(t *testing.T) {
	var ys YSeries
	assert.Error(t, json.Unmarshal([]byte(`"oops"`), &ys))
}

func TestYSeriesMarshalRoundTrip(t *testing.T) {
	flat, err := json.Marshal(YSeries{{1}, {2}})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2]`, string(flat))

	tuples, err := json.Marshal(YSeries{{1, 0}, {2, 1}})
	require.NoError(t, err)
	assert.JSONEq(t, `[[1, 0], [2, 1]]`, string(tuples))
}

func TestResultDecode(t *testing.T) {
	payload := `{"xvalues": [0, 0.5], "yvalues": [1, 1.5], "solution": "y = x + 1"}`

	var result Result
	require.NoError(t, json.Unmarshal([]byte(payload), &result))
	assert.Equal(t, []float64{0, 0.5}, result.XValues)
	assert.Equal(t, YSeries{{1}, {1.5}}, result.YValues)
	assert.Equal(t, "y = x + 1", result.Solution)
}

func TestApplicationEntry(t *testing.T) {
	app := Application{
		ID:         7,
		Parameters: `{"method": "euler", "order": 1, "userEquation": "y' = x"}`,
	}
	entry := app.Entry()
	assert.Equal(t, int64(7), entry.ID)
	assert.Equal(t, "euler", entry.Request.Method)
	assert.Equal(t, "y' = x", entry.Request.UserEquation)

	// Unparseable parameters still yield a usable entry.
	broken := Application{ID: 8, Parameters: "not json"}
	entry = broken.Entry()
	assert.Equal(t, int64(8), entry.ID)
	assert.Zero(t, entry.Request)
}
