package categorizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
)

type fakeAIClient struct {
	answer AIAnswer
	err    error
	got    AIRequest
}

func (f *fakeAIClient) Suggest(_ context.Context, req AIRequest) (AIAnswer, error) {
	f.got = req
	return f.answer, f.err
}

func (f *fakeAIClient) ModelVersion() string { return "gemini-test" }

type fakeCategories []models.Category

func (f fakeCategories) ListCategories(context.Context, string) ([]models.Category, error) {
	return f, nil
}

func TestAIStrategy_Categorize(t *testing.T) {
	cats := fakeCategories{{ID: "cat-dining", Name: "Dining"}, {ID: "cat-fuel", Name: "Fuel"}}

	tests := []struct {
		name           string
		answer         AIAnswer
		clientErr      error
		expectFound    bool
		expectErr      bool
		expectConf     float64
		expectCategory string
	}{
		{
			name:           "known category",
			answer:         AIAnswer{CategoryID: "cat-fuel", Confidence: 0.8, Reasoning: "gas station"},
			expectFound:    true,
			expectConf:     0.8,
			expectCategory: "cat-fuel",
		},
		{
			name:           "confidence capped",
			answer:         AIAnswer{CategoryID: "cat-dining", Confidence: 1.4},
			expectFound:    true,
			expectConf:     0.95,
			expectCategory: "cat-dining",
		},
		{
			name:        "unknown category is a miss",
			answer:      AIAnswer{CategoryID: "cat-made-up", Confidence: 0.9},
			expectFound: false,
		},
		{
			name:      "client error",
			clientErr: errors.New("quota exceeded"),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeAIClient{answer: tt.answer, err: tt.clientErr}
			s := NewAIStrategy(client, cats, 0.95, logging.NewMockLogger())

			res, found, err := s.Categorize(context.Background(), Input{
				OrganizationID: "org-1",
				Description:    "POSTO IPIRANGA",
				Type:           models.TypeExpense,
			})
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectFound, found)
			if !tt.expectFound {
				return
			}
			assert.Equal(t, tt.expectCategory, res.CategoryID)
			assert.InDelta(t, tt.expectConf, res.Confidence, 1e-9)
			assert.Equal(t, models.SourceAI, res.Source)
			assert.Equal(t, "gemini-test", res.ModelVersion)
			assert.Len(t, client.got.Categories, 2)
		})
	}
}

func TestAIStrategy_NoCategories(t *testing.T) {
	client := &fakeAIClient{answer: AIAnswer{CategoryID: "x"}}
	s := NewAIStrategy(client, fakeCategories(nil), 0.95, nil)

	_, found, err := s.Categorize(context.Background(), Input{Description: "anything"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, client.got.Description, "client is not called without categories")
}

func TestParseAnswer(t *testing.T) {
	answer, err := parseAnswer("```json\n{\"category_id\": \"cat-1\", \"confidence\": 0.7, \"reasoning\": \"coffee shop\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "cat-1", answer.CategoryID)
	assert.InDelta(t, 0.7, answer.Confidence, 1e-9)

	_, err = parseAnswer(`{"confidence": 0.7}`)
	assert.Error(t, err)

	_, err = parseAnswer("Category: Dining")
	assert.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(AIRequest{
		Description: "UBEREATS *TRIP",
		Type:        models.TypeExpense,
		Categories:  []models.Category{{ID: "cat-dining", Name: "Dining"}},
	})
	assert.Contains(t, prompt, "UBEREATS *TRIP")
	assert.Contains(t, prompt, "- cat-dining: Dining")
	assert.Contains(t, prompt, "category_id")
}
