// Package validation checks request payloads against fixed shapes and
// reports every violation found instead of stopping at the first one.
package validation

import (
	"errors"
	"fmt"
	"sort"

	validator "github.com/go-playground/validator/v10"
)

// SecurityAnswersCount is the number of answers a verification request must carry.
const SecurityAnswersCount = 3

const answerField = "answer"

// Violation describes a single mismatch between a payload and its expected shape.
type Violation struct {
	InstancePath string         `json:"instancePath"`
	Keyword      string         `json:"keyword"`
	Message      string         `json:"message"`
	Params       map[string]any `json:"params"`
}

var validate = validator.New()

var itemsCountRule = fmt.Sprintf("min=%d,max=%d", SecurityAnswersCount, SecurityAnswersCount)

// SecurityAnswers validates a decoded JSON payload: it must be an array of
// exactly SecurityAnswersCount objects, each holding a string "answer" and
// nothing else. A nil result means the payload is valid.
func SecurityAnswers(payload any) []Violation {
	items, ok := payload.([]any)
	if !ok {
		return []Violation{typeViolation("", "array")}
	}

	var violations []Violation

	if err := validate.Var(items, itemsCountRule); err != nil {
		violations = append(violations, countViolations(err)...)
	}

	for i, item := range items {
		path := fmt.Sprintf("/%d", i)

		obj, ok := item.(map[string]any)
		if !ok {
			violations = append(violations, typeViolation(path, "object"))
			continue
		}

		answer, present := obj[answerField]
		switch {
		case !present:
			violations = append(violations, Violation{
				InstancePath: path,
				Keyword:      "required",
				Message:      fmt.Sprintf("must have required property '%s'", answerField),
				Params:       map[string]any{"missingProperty": answerField},
			})
		default:
			if _, isString := answer.(string); !isString {
				violations = append(violations, typeViolation(path+"/"+answerField, "string"))
			}
		}

		extra := make([]string, 0, len(obj))
		for key := range obj {
			if key != answerField {
				extra = append(extra, key)
			}
		}
		sort.Strings(extra)
		for _, key := range extra {
			violations = append(violations, Violation{
				InstancePath: path,
				Keyword:      "additionalProperties",
				Message:      "must NOT have additional properties",
				Params:       map[string]any{"additionalProperty": key},
			})
		}
	}

	return violations
}

func typeViolation(path, expected string) Violation {
	return Violation{
		InstancePath: path,
		Keyword:      "type",
		Message:      "must be " + expected,
		Params:       map[string]any{"type": expected},
	}
}

func countViolations(err error) []Violation {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []Violation{{Keyword: "items", Message: err.Error(), Params: map[string]any{}}}
	}

	result := make([]Violation, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "min":
			result = append(result, Violation{
				Keyword: "minItems",
				Message: fmt.Sprintf("must NOT have fewer than %s items", fe.Param()),
				Params:  map[string]any{"limit": SecurityAnswersCount},
			})
		case "max":
			result = append(result, Violation{
				Keyword: "maxItems",
				Message: fmt.Sprintf("must NOT have more than %s items", fe.Param()),
				Params:  map[string]any{"limit": SecurityAnswersCount},
			})
		}
	}

	return result
}
