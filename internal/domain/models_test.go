package domain

import (
	"encoding/json"
	"testing"
)

func TestAmountUnmarshal(t *testing.T) {
	// Decoding never rejects the amount; deciding whether it parses belongs
	// to the validator.
	cases := []struct {
		name string
		body string
		want string
	}{
		{"quoted decimal", `{"amount":"99.95"}`, "99.95"},
		{"bare number", `{"amount":100}`, "100"},
		{"bare decimal", `{"amount":12.5}`, "12.5"},
		{"unparseable string", `{"amount":"abc"}`, "abc"},
		{"missing", `{}`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req InitiateRequest
			if err := json.Unmarshal([]byte(tc.body), &req); err != nil {
				t.Fatalf("decode must not fail: %v", err)
			}
			if req.Amount.String() != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, req.Amount)
			}
		})
	}
}
