package security

import (
	"strings"
	"testing"
	"time"
)

func hardenedInput() ReportInput {
	return ReportInput{
		SigningAlgorithm:        "hs256",
		Issuer:                  "mailauth",
		AccessTTL:               15 * time.Minute,
		RefreshTTL:              7 * 24 * time.Hour,
		Password:                PasswordReport{Memory: 64 * 1024, Time: 3, Parallelism: 2, SaltLength: 16, KeyLength: 32},
		LoginThreshold:          3,
		LoginWindow:             time.Hour,
		ResetIdentifierThrottle: true,
		ResetMaxRequests:        5,
		ResendIPThrottle:        true,
		MaxResends:              5,
		RegistrationIPThrottle:  true,
		RegistrationMaxAttempts: 20,
		LinkBaseURL:             "https://auth.example.com",
	}
}

func TestBuildReportHardened(t *testing.T) {
	r := BuildReport(hardenedInput())

	if !r.LoginThrottleActive || !r.ResetThrottleActive || !r.ResendThrottleActive || !r.RegistrationThrottleActive {
		t.Fatalf("expected every throttle active: %+v", r)
	}
	if r.LinksFromRequestHost || !r.IssuerPinned {
		t.Fatalf("unexpected link or issuer posture: %+v", r)
	}
	if len(r.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", r.Warnings)
	}
}

func TestBuildReportWarnings(t *testing.T) {
	in := hardenedInput()
	in.LinkBaseURL = ""
	in.Issuer = ""
	in.Password.Memory = 8 * 1024
	in.ResetIdentifierThrottle = false

	r := BuildReport(in)
	if r.ResetThrottleActive {
		t.Fatal("reset throttle reported active with both scopes off")
	}
	if len(r.Warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %v", r.Warnings)
	}
	if !strings.Contains(strings.Join(r.Warnings, "\n"), "Host header") {
		t.Fatalf("missing link warning: %v", r.Warnings)
	}
}
