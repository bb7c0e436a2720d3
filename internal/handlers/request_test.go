package handlers

import (
	"encoding/json"
	"testing"
)

func TestDecimalStringUnmarshal(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{`{"amount": 12.5}`, "12.5", false},
		{`{"amount": "12.50"}`, "12.50", false},
		{`{"amount": 0}`, "0", false},
		{`{"amount": null}`, "", false},
		{`{}`, "", false},
		{`{"amount": "abc"}`, "abc", false},
		{`{"amount": true}`, "", true},
		{`{"amount": [1]}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var req struct {
				Amount decimalString `json:"amount"`
			}
			err := json.Unmarshal([]byte(tt.input), &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && string(req.Amount) != tt.want {
				t.Errorf("amount = %q, want %q", req.Amount, tt.want)
			}
		})
	}
}
