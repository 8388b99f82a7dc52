package bill

import (
	"testing"

	"cloud.google.com/go/civil"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    civil.Date
		wantErr bool
	}{
		{input: "2024-03-05", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "05.03.2024", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "5.3.2024", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "05.03.24", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "5.3.24", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "05/03/2024", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "05-03-2024", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "2024/03/05", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		{input: "  2024-03-05  ", want: civil.Date{Year: 2024, Month: 3, Day: 5}},
		// Ambiguous dates resolve day-first.
		{input: "03.04.2024", want: civil.Date{Year: 2024, Month: 4, Day: 3}},
		{input: "", wantErr: true},
		{input: "not a date", wantErr: true},
		{input: "2024-03-05 14:30", wantErr: true},
		{input: "32.01.2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
