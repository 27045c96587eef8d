package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Uptrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	assert.Equal(t, Up, Classify(closes, 10, 30))
}

func TestClassify_Downtrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 200 - float64(i)*0.5
	}
	assert.Equal(t, Down, Classify(closes, 10, 30))
}

func TestClassify_InsufficientData_Sideways(t *testing.T) {
	assert.Equal(t, Sideways, Classify([]float64{1, 2, 3}, 10, 30))
}

func TestConfirm_AgreementAndConfidence(t *testing.T) {
	votes := []IntradayVote{
		{Name: "rsi4h", Vote: Up, Weight: 0.6},
		{Name: "macd4h", Vote: Sideways, Weight: 0.4},
	}
	c := Confirm(Up, votes)
	assert.True(t, c.Confirmed)
	assert.InDelta(t, 0.6, c.Confidence, 1e-9)
}
