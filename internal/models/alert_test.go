package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityForConfidence(t *testing.T) {
	cases := []struct {
		confidence float64
		want       Severity
	}{
		{0.95, SeverityCritical},
		{0.9, SeverityCritical},
		{0.89, SeverityHigh},
		{0.7, SeverityHigh},
		{0.69, SeverityMedium},
		{0.5, SeverityMedium},
		{0.49, SeverityLow},
		{0.0, SeverityLow},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SeverityForConfidence(tc.confidence), "confidence %.2f", tc.confidence)
	}
}

func TestSeverityMonotonicInConfidence(t *testing.T) {
	prev := 0
	for c := 0.0; c <= 1.0; c += 0.01 {
		rank := SeverityForConfidence(c).Rank()
		assert.GreaterOrEqual(t, rank, prev, "severity rank regressed at %.2f", c)
		prev = rank
	}
}

func TestRecordConfidence(t *testing.T) {
	alert := &Alert{Status: AlertStatusNew, Severity: SeverityMedium}

	assert.True(t, alert.RecordConfidence(0.55))
	assert.Equal(t, SeverityMedium, alert.Severity)

	// lower confidence never regresses the alert
	assert.False(t, alert.RecordConfidence(0.4))
	assert.InDelta(t, 0.55, alert.Confidence, 1e-9)

	assert.True(t, alert.RecordConfidence(0.95))
	assert.Equal(t, SeverityCritical, alert.Severity)
	assert.InDelta(t, 0.95, alert.Confidence, 1e-9)
}

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 1, SeverityLow.Rank())
	assert.Equal(t, 2, SeverityMedium.Rank())
	assert.Equal(t, 3, SeverityHigh.Rank())
	assert.Equal(t, 4, SeverityCritical.Rank())
	assert.Equal(t, 2, Severity("bogus").Rank())
}

func TestAlertStatusIsResolution(t *testing.T) {
	assert.False(t, AlertStatusNew.IsResolution())
	assert.True(t, AlertStatusConfirmed.IsResolution())
	assert.True(t, AlertStatusDismissed.IsResolution())
	assert.True(t, AlertStatusFalsePositive.IsResolution())
}
