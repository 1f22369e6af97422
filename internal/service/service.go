// Package service holds the request-handling logic of the catalog: input
// validation, collection calls and classification of every outcome into
// ErrValidation, ErrAuth or an internal error.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	validator "github.com/go-playground/validator/v10"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
)

type store interface {
	Find(ctx context.Context, filter collection.Record) ([]collection.Record, error)

	FindOne(ctx context.Context, filter collection.Record) (collection.Record, bool, error)

	InsertOne(ctx context.Context, record any) (collection.Record, error)

	UpdateOne(ctx context.Context, filter collection.Record, patch any) error

	DeleteOne(ctx context.Context, filter collection.Record) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("truthy", validateTruthy); err != nil {
		panic(err)
	}

	return v
}

// validateTruthy rejects the empty string, false, zero and NaN. A null or
// absent value never reaches it: validator fails nil interfaces on its own.
func validateTruthy(fieldLevel validator.FieldLevel) bool {
	field := fieldLevel.Field()
	switch field.Kind() {
	case reflect.String:
		return field.Len() > 0
	case reflect.Bool:
		return field.Bool()
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() != 0
	}

	return true
}

// parseID reads the leading integer of a path id: optional leading spaces
// and sign, then decimal digits. Whatever follows the digits is ignored, so
// "3abc" and "3.7" are 3. ok is false when there are no digits.
func parseID(raw string) (id int, ok bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	id, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}

	return id, true
}

// remarshal converts between a stored record and a typed model.
func remarshal(input any, output any) error {
	b, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := json.Unmarshal(b, output); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}

	return nil
}
