package exam

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/qbank/exam-platform/internal/apperr"
	"github.com/qbank/exam-platform/internal/model"
)

// strictOption is the canonical stored shape. Any other field fails the strict tier.
type strictOption struct {
	Key       *string `json:"key"`
	Text      *string `json:"text"`
	IsCorrect *bool   `json:"isCorrect"`
}

var (
	textFields    = []string{"text", "content", "value", "label"}
	correctFields = []string{"isCorrect", "is_correct", "correct"}
)

// ParseOptions normalizes a stored option payload into canonical options.
//
// Three shapes are tried in order: a strict list of {key,text,isCorrect}
// objects, a list of plain strings, and finally a generic list where every
// element is decoded on its own and fields are guessed. In the last tier an
// element that cannot be understood is dropped without failing the rest.
// An error is returned only when the payload is not a list at all.
func ParseOptions(raw []byte) ([]model.Option, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if opts, ok := parseStrict(raw); ok {
		return opts, nil
	}

	var texts []string
	if err := json.Unmarshal(raw, &texts); err == nil {
		opts := make([]model.Option, len(texts))
		for i, t := range texts {
			opts[i] = model.Option{Text: t}
		}
		return opts, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, apperr.Validation("options must be a JSON array: %v", err)
	}

	opts := make([]model.Option, 0, len(elems))
	for i, elem := range elems {
		opt, ok := guessOption(elem)
		if !ok {
			log.Warn().
				Str("component", "exam").
				Int("index", i).
				RawJSON("element", elem).
				Msg("Dropping unrecognized option element")
			continue
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func parseStrict(raw []byte) ([]model.Option, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var list []strictOption
	if err := dec.Decode(&list); err != nil {
		return nil, false
	}
	if list == nil {
		return nil, false
	}

	opts := make([]model.Option, len(list))
	for i, so := range list {
		if so.Text == nil {
			return nil, false
		}
		opts[i].Text = *so.Text
		if so.Key != nil {
			opts[i].Key = *so.Key
		}
		if so.IsCorrect != nil {
			opts[i].IsCorrect = *so.IsCorrect
		}
	}
	return opts, true
}

func guessOption(elem json.RawMessage) (model.Option, bool) {
	if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
		return model.Option{}, false
	}

	var s string
	if err := json.Unmarshal(elem, &s); err == nil {
		return model.Option{Text: s}, true
	}

	var obj map[string]any
	if err := json.Unmarshal(elem, &obj); err != nil || obj == nil {
		return model.Option{}, false
	}

	var opt model.Option
	found := false
	for _, f := range textFields {
		if text, ok := scalarString(obj[f]); ok {
			opt.Text = text
			found = true
			break
		}
	}
	if !found {
		return model.Option{}, false
	}

	if key, ok := scalarString(obj["key"]); ok {
		opt.Key = key
	}
	for _, f := range correctFields {
		if v, ok := obj[f]; ok {
			opt.IsCorrect = truthy(v)
			break
		}
	}
	return opt, true
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	case float64:
		return t == 1
	}
	return false
}

// CorrectAnswer joins the text of every correct option in canonical order.
func CorrectAnswer(opts []model.Option) string {
	var parts []string
	for _, o := range opts {
		if o.IsCorrect {
			parts = append(parts, o.Text)
		}
	}
	return strings.Join(parts, ",")
}

// CheckOptions enforces the correctness rule of objective question types.
// Free-text types may carry no options.
func CheckOptions(t model.QuestionType, opts []model.Option) error {
	if !t.IsObjective() {
		return nil
	}
	if len(opts) < 2 {
		return apperr.Validation("%s question needs at least two options", t)
	}

	correct := 0
	for _, o := range opts {
		if strings.TrimSpace(o.Text) == "" {
			return apperr.Validation("option text must not be empty")
		}
		if o.IsCorrect {
			correct++
		}
	}

	switch t {
	case model.QuestionTypeSingleChoice, model.QuestionTypeTrueFalse:
		if correct != 1 {
			return apperr.Validation("%s question must have exactly one correct option, got %d", t, correct)
		}
	case model.QuestionTypeMultipleChoice:
		if correct < 1 {
			return apperr.Validation("multiple choice question must have at least one correct option")
		}
	}
	return nil
}
