package payment

import "testing"

func TestIntentUsable(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name   string
		intent Intent
		usable bool
	}{
		{name: "open with secret", intent: Intent{ClientSecret: "secret", Status: "requires_payment_method"}, usable: true},
		{name: "succeeded", intent: Intent{ClientSecret: "secret", Status: IntentStatusSucceeded}, usable: false},
		{name: "canceled", intent: Intent{ClientSecret: "secret", Status: IntentStatusCanceled}, usable: false},
		{name: "missing secret", intent: Intent{Status: "requires_payment_method"}, usable: false},
	}
	for _, testCase := range cases {
		if got := testCase.intent.Usable(); got != testCase.usable {
			test.Fatalf("%s: expected usable=%v, got %v", testCase.name, testCase.usable, got)
		}
	}
}
