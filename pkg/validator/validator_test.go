package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

func (s status) IsValid() bool { return s == "OPEN" || s == "CLOSED" }

type sample struct {
	ID       uuid.UUID       `validate:"uuid_required"`
	Code     string          `validate:"notblank"`
	Price    decimal.Decimal `validate:"decimal_gte0,decimal_cents"`
	Statuses []status        `validate:"dive,order_status"`
}

func validSample() sample {
	return sample{
		ID:       uuid.New(),
		Code:     "S1",
		Price:    decimal.RequireFromString("10.50"),
		Statuses: []status{"OPEN"},
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sample)
		field  string
		tag    string
	}{
		{"nil uuid", func(s *sample) { s.ID = uuid.Nil }, "sample.ID", "uuid_required"},
		{"blank code", func(s *sample) { s.Code = "   " }, "sample.Code", "notblank"},
		{"negative price", func(s *sample) { s.Price = decimal.RequireFromString("-0.01") }, "sample.Price", "decimal_gte0"},
		{"sub-cent price", func(s *sample) { s.Price = decimal.RequireFromString("0.125") }, "sample.Price", "decimal_cents"},
		{"unknown status", func(s *sample) { s.Statuses = []status{"OPEN", "LOST"} }, "sample.Statuses[1]", "order_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSample()
			tt.mutate(&s)

			errs := ValidateStruct(s)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].FailedField)
			assert.Equal(t, tt.tag, errs[0].Tag)
			assert.Contains(t, errs[0].Error(), tt.field)
		})
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	s := validSample()
	s.Price = decimal.RequireFromString("3.100")

	assert.Empty(t, ValidateStruct(s))
}
