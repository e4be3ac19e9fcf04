package validate

import (
	"strings"

	"github.com/shopspring/decimal"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect keeps the failed checks. It returns nil when every check passed.
func Collect(checks ...*ErrField) Errs {
	var out Errs
	for _, c := range checks {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out
}

func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func PositiveID(field string, v int64) *ErrField {
	if v <= 0 {
		return &ErrField{Field: field, Msg: "must be a positive id"}
	}
	return nil
}

func NonEmptyIDs(field string, ids []int64) *ErrField {
	if len(ids) == 0 {
		return &ErrField{Field: field, Msg: "at least one id required"}
	}
	for _, id := range ids {
		if id <= 0 {
			return &ErrField{Field: field, Msg: "ids must be positive"}
		}
	}
	return nil
}

func PositiveAmount(field string, d decimal.Decimal) *ErrField {
	if !d.IsPositive() {
		return &ErrField{Field: field, Msg: "must be > 0"}
	}
	return nil
}
