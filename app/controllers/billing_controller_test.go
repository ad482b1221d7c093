package controllers

import (
	"testing"
)

func TestExtractInvoiceSubscriptionID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain string field",
			raw:  `{"id":"in_1","subscription":"sub_123"}`,
			want: "sub_123",
		},
		{
			name: "expanded object",
			raw:  `{"id":"in_2","subscription":{"id":"sub_456","status":"past_due"}}`,
			want: "sub_456",
		},
		{
			name: "nested under parent subscription details",
			raw:  `{"id":"in_3","parent":{"subscription_details":{"subscription":"sub_789"}}}`,
			want: "sub_789",
		},
		{
			name: "nested expanded object",
			raw:  `{"id":"in_4","parent":{"subscription_details":{"subscription":{"id":"sub_abc"}}}}`,
			want: "sub_abc",
		},
		{
			name: "one-time invoice without subscription",
			raw:  `{"id":"in_5","amount_due":500}`,
			want: "",
		},
		{
			name: "invalid json",
			raw:  `not json`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractInvoiceSubscriptionID([]byte(tt.raw))
			if got != tt.want {
				t.Fatalf("extractInvoiceSubscriptionID() = %q, want %q", got, tt.want)
			}
		})
	}
}
