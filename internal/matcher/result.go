package matcher

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Result is the scoring API answer. Only the fields the UI renders are typed;
// Raw keeps the body exactly as received.
type Result struct {
	Score            float64  `mapstructure:"score" json:"score"`
	SemanticPct      float64  `mapstructure:"semantic_pct" json:"semantic_pct"`
	OverlapPct       float64  `mapstructure:"overlap_pct" json:"overlap_pct"`
	TopOverlapSkills []string `mapstructure:"top_overlap_skills" json:"top_overlap_skills"`
	MissingSkills    []string `mapstructure:"missing_skills" json:"missing_skills"`
	Strengths        []string `mapstructure:"strengths" json:"strengths,omitempty"`
	Suggestions      []string `mapstructure:"suggestions" json:"suggestions,omitempty"`
	CoverLetter      string   `mapstructure:"cover_letter" json:"cover_letter,omitempty"`

	Raw json.RawMessage `mapstructure:"-" json:"-"`
}

// DecodeResult parses a response body. The shape is not validated beyond
// requiring a JSON object: absent fields stay zero, numbers sent as strings
// are coerced.
func DecodeResult(data []byte) (*Result, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse match result: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse match result: empty body")
	}

	var result Result
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &result,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode match result: %w", err)
	}

	result.Raw = append(json.RawMessage(nil), data...)
	return &result, nil
}
