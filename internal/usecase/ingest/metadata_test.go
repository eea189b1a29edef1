package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDecision = `PEOPLE OF THE PHILIPPINES v. JUAN DELA CRUZ

EN BANC

G.R. No. 123456

January 15, 2024

REYES, J.:

FACTS

The accused was charged with violation of Republic Act No. 9165.

RULING

WHEREFORE, the appeal is DENIED.`

func TestExtractMetadata(t *testing.T) {
	meta := ExtractMetadata(sampleDecision)

	require.NotNil(t, meta.CaseNumber)
	assert.Equal(t, "G.R. No. 123456", *meta.CaseNumber)

	require.NotNil(t, meta.Title)
	assert.Equal(t, "PEOPLE OF THE PHILIPPINES v. JUAN DELA CRUZ", *meta.Title)

	require.NotNil(t, meta.Court)
	assert.Equal(t, "PH Supreme Court", *meta.Court)

	require.NotNil(t, meta.PromulgationDate)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), *meta.PromulgationDate)

	require.NotNil(t, meta.Ponente)
	assert.Equal(t, "REYES", *meta.Ponente)

	require.NotNil(t, meta.Division)
	assert.Equal(t, "EN BANC", *meta.Division)
}

func TestExtractMetadataFieldRules(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, meta Metadata)
	}{
		{
			name: "administrative matter docket",
			text: "SOME TITLE\nA.M. No. P-23-001\nTHIRD DIVISION",
			check: func(t *testing.T, meta Metadata) {
				require.NotNil(t, meta.CaseNumber)
				assert.Equal(t, "A.M. No. P-23-001", *meta.CaseNumber)
				require.NotNil(t, meta.Division)
				assert.Equal(t, "THIRD DIVISION", *meta.Division)
			},
		},
		{
			name: "gr number wins over am number",
			text: "TITLE\nG.R. No. 1111\nA.M. No. 2222",
			check: func(t *testing.T, meta Metadata) {
				require.NotNil(t, meta.CaseNumber)
				assert.Equal(t, "G.R. No. 1111", *meta.CaseNumber)
			},
		},
		{
			name: "spaced docket is normalized",
			text: "TITLE\nG. R.  No.  98765",
			check: func(t *testing.T, meta Metadata) {
				require.NotNil(t, meta.CaseNumber)
				assert.Equal(t, "G. R. No. 98765", *meta.CaseNumber)
			},
		},
		{
			name: "missing fields stay nil",
			text: "just some text without any legal markers",
			check: func(t *testing.T, meta Metadata) {
				assert.Nil(t, meta.CaseNumber)
				assert.Nil(t, meta.PromulgationDate)
				assert.Nil(t, meta.Ponente)
				assert.Nil(t, meta.Division)
				require.NotNil(t, meta.Title)
				assert.Equal(t, "just some text without any legal markers", *meta.Title)
			},
		},
		{
			name: "invalid date leaves field nil",
			text: "TITLE\nFebruary 31, 2024",
			check: func(t *testing.T, meta Metadata) {
				assert.Nil(t, meta.PromulgationDate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ExtractMetadata(tt.text))
		})
	}
}
