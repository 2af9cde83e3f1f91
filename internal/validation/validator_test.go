// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package validation

import (
	"strings"
	"testing"
)

type pageRequest struct {
	Page    int    `validate:"min=1"`
	PerPage int    `validate:"min=1,max=500"`
	Month   string `validate:"omitempty,month"`
}

func TestValidateStructPasses(t *testing.T) {
	req := pageRequest{Page: 1, PerPage: 50, Month: "2026-03"}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid struct, got: %v", err)
	}
}

func TestValidateStructMonthTag(t *testing.T) {
	tests := []struct {
		month string
		valid bool
	}{
		{"2026-03", true},
		{"1999-12", true},
		{"unknown", true},
		{"", true}, // omitempty
		{"2026-13", false},
		{"2026-3", false},
		{"March 2026", false},
		{"2026-03-15", false},
	}

	for _, tt := range tests {
		req := pageRequest{Page: 1, PerPage: 10, Month: tt.month}
		err := ValidateStruct(&req)
		if tt.valid && err != nil {
			t.Errorf("month %q should be valid: %v", tt.month, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("month %q should be rejected", tt.month)
		}
	}
}

func TestValidateStructBounds(t *testing.T) {
	req := pageRequest{Page: 0, PerPage: 1000}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if len(err.Errors()) != 2 {
		t.Errorf("got %d errors, want 2: %v", len(err.Errors()), err)
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Page") {
		t.Errorf("message should name the failing field: %s", apiErr.Message)
	}
}

func TestSingleErrorDetails(t *testing.T) {
	req := pageRequest{Page: 1, PerPage: 501}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Details["field"] != "PerPage" {
		t.Errorf("details.field = %v, want PerPage", apiErr.Details["field"])
	}
	if apiErr.Details["tag"] != "max" {
		t.Errorf("details.tag = %v, want max", apiErr.Details["tag"])
	}
}
