package service_test

import (
	"testing"

	"github.com/kovacsgabor0730/Kovacs-Gabor-Szakdolgozat/app/service"
)

func TestCanonicalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Anna@Example.com ", want: "anna@example.com"},
		{in: "anna.kiss+vault@gmail.com", want: "annakiss@gmail.com"},
		{in: "Anna.Kiss@GoogleMail.com", want: "annakiss@gmail.com"},
		{in: "anna.kiss+vault@example.hu", want: "anna.kiss+vault@example.hu"},
		{in: "not-an-email", want: "not-an-email"},
	}

	for _, tt := range tests {
		if got := service.CanonicalizeEmail(tt.in); got != tt.want {
			t.Fatalf("CanonicalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
