package scoring

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAnswers_Valid(t *testing.T) {
	c := DefaultCatalog()
	assert.NoError(t, ValidateAnswers(c, answerAll(c, uniform(42))))
	assert.NoError(t, ValidateAnswers(c, nil))
}

func TestValidateAnswers_Errors(t *testing.T) {
	tests := []struct {
		name          string
		answers       []Answer
		expectedField string
		expectedCode  string
	}{
		{
			name:          "value above range",
			answers:       []Answer{{QuestionID: "vis-01", Value: 120}},
			expectedField: "answers[0].value",
			expectedCode:  "range",
		},
		{
			name:          "negative value",
			answers:       []Answer{{QuestionID: "vis-01", Value: -3}},
			expectedField: "answers[0].value",
			expectedCode:  "range",
		},
		{
			name:          "infinite value",
			answers:       []Answer{{QuestionID: "vis-01", Value: math.Inf(1)}},
			expectedField: "answers[0].value",
			expectedCode:  "number",
		},
		{
			name:          "missing question id",
			answers:       []Answer{{Value: 10}},
			expectedField: "answers[0].questionId",
			expectedCode:  "required",
		},
		{
			name:          "unknown question",
			answers:       []Answer{{QuestionID: "vis-99", Value: 10}},
			expectedField: "answers[0].questionId",
			expectedCode:  "unknown",
		},
		{
			name:          "duplicate question",
			answers:       []Answer{{QuestionID: "vis-01", Value: 10}, {QuestionID: "vis-01", Value: 20}},
			expectedField: "answers[1].questionId",
			expectedCode:  "duplicate",
		},
		{
			name:          "rationale too long",
			answers:       []Answer{{QuestionID: "vis-01", Value: 10, Rationale: strings.Repeat("x", 2001)}},
			expectedField: "answers[0].rationale",
			expectedCode:  "too_long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswers(DefaultCatalog(), tt.answers)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))

			found := false
			for _, f := range verr.Fields {
				if f.Field == tt.expectedField && f.Code == tt.expectedCode {
					found = true
				}
			}
			assert.True(t, found, "fields: %+v", verr.Fields)
		})
	}
}

func TestValidateAnswers_ReportsEveryField(t *testing.T) {
	err := ValidateAnswers(DefaultCatalog(), []Answer{
		{QuestionID: "vis-01", Value: 101},
		{QuestionID: "ghost", Value: 50},
		{QuestionID: "inv-02", Value: -1},
	})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, err.Error(), "answers[1].questionId")
}

func TestValidateOrgMeta(t *testing.T) {
	assert.NoError(t, ValidateOrgMeta(RawOrgMeta{Industry: "Retail"}))

	err := ValidateOrgMeta(RawOrgMeta{Region: strings.Repeat("r", 129)})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "org.region", verr.Fields[0].Field)
}
