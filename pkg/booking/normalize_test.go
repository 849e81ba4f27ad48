package booking

import (
	"errors"
	"testing"
)

func TestNormalizeDateShapes(test *testing.T) {
	test.Parallel()
	cases := []struct {
		name     string
		input    string
		timezone string
		want     string
	}{
		{name: "literal date", input: "2025-03-10", want: "2025-03-10"},
		{name: "literal date ignores zone shift", input: "2025-03-10", timezone: "America/New_York", want: "2025-03-10"},
		{name: "literal date with padding", input: "  2025-03-10 ", want: "2025-03-10"},
		{name: "iso timestamp to utc day", input: "2025-03-10T23:30:00-05:00", want: "2025-03-11"},
		{name: "iso timestamp in club zone", input: "2025-03-10T23:30:00-05:00", timezone: "America/New_York", want: "2025-03-10"},
		{name: "epoch milliseconds", input: "1741651200000", want: "2025-03-11"},
		{name: "epoch milliseconds in zone", input: "1741651200000", timezone: "America/New_York", want: "2025-03-10"},
	}

	for _, testCase := range cases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			date, err := NormalizeDate(testCase.input, testCase.timezone)
			if err != nil {
				test.Fatalf("normalize %q: %v", testCase.input, err)
			}
			if date.String() != testCase.want {
				test.Fatalf("expected %s, got %s", testCase.want, date.String())
			}
		})
	}
}

func TestNormalizeDateRejectsGarbage(test *testing.T) {
	test.Parallel()
	for _, input := range []string{"", "next tuesday", "2025-13-40T00:00:00Z", "10/03/2025"} {
		if _, err := NormalizeDate(input, ""); !errors.Is(err, ErrInvalidDate) {
			test.Fatalf("expected ErrInvalidDate for %q, got %v", input, err)
		}
	}
}

func TestNormalizeDateRejectsUnknownTimezone(test *testing.T) {
	test.Parallel()
	if _, err := NormalizeDate("2025-03-10", "Mars/Olympus"); !errors.Is(err, ErrInvalidTimezone) {
		test.Fatalf("expected ErrInvalidTimezone, got %v", err)
	}
}
