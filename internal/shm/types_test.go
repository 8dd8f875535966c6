package shm

import (
	"testing"

	"github.com/Seintian/postoffice/internal/errors"
)

func TestService_String(t *testing.T) {
	tests := []struct {
		service Service
		want    string
	}{
		{ServicePackages, "package_shipping"},
		{ServiceLetters, "registered_letters"},
		{ServiceBanking, "postal_banking"},
		{ServicePayments, "payment_slips"},
		{ServiceFinancial, "financial_products"},
		{ServiceWatches, "watch_services"},
		{Service(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.service.String(); got != tt.want {
			t.Errorf("Service(%d).String() = %q, want %q", tt.service, got, tt.want)
		}
	}
}

func TestService_Label(t *testing.T) {
	tests := []struct {
		service Service
		want    string
	}{
		{ServicePackages, "Package Shipping"},
		{ServiceLetters, "Registered Letters"},
		{ServiceBanking, "Postal Banking"},
		{ServicePayments, "Payment Slips"},
		{ServiceFinancial, "Financial Products"},
		{ServiceWatches, "Watch Services"},
		{Service(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.service.Label(); got != tt.want {
			t.Errorf("Service(%d).Label() = %q, want %q", tt.service, got, tt.want)
		}
	}
}

func TestService_Valid(t *testing.T) {
	for _, svc := range Services() {
		if !svc.Valid() {
			t.Errorf("Services() entry %v should be valid", svc)
		}
	}

	if Service(NumServices).Valid() {
		t.Error("Service(NumServices) should not be valid")
	}
}

func TestServices_CountAndOrder(t *testing.T) {
	all := Services()

	if len(all) != NumServices {
		t.Fatalf("Expected %d services, got %d", NumServices, len(all))
	}

	for i, svc := range all {
		if int(svc) != i {
			t.Errorf("Services()[%d] = %v, want index-aligned value %d", i, svc, i)
		}
	}
}

func TestParseService(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Service
		wantErr bool
	}{
		{"packages", "package_shipping", ServicePackages, false},
		{"letters", "registered_letters", ServiceLetters, false},
		{"banking", "postal_banking", ServiceBanking, false},
		{"slips", "payment_slips", ServicePayments, false},
		{"financial", "financial_products", ServiceFinancial, false},
		{"watches", "watch_services", ServiceWatches, false},
		{"unknown name", "telegraph", 0, true},
		{"empty", "", 0, true},
		{"label not slug", "Package Shipping", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseService(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseService(%q) should fail", tt.input)
				}
				if !errors.Is(err, errors.ErrUnknownService) {
					t.Errorf("Expected ErrUnknownService, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseService(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseService(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseService_RoundTrip(t *testing.T) {
	for _, svc := range Services() {
		got, err := ParseService(svc.String())
		if err != nil {
			t.Fatalf("ParseService(%q) failed: %v", svc.String(), err)
		}
		if got != svc {
			t.Errorf("Round trip of %v returned %v", svc, got)
		}
	}
}

func TestWorkerState_String(t *testing.T) {
	tests := []struct {
		state WorkerState
		want  string
	}{
		{WorkerOffline, "offline"},
		{WorkerFree, "free"},
		{WorkerBusy, "busy"},
		{WorkerPaused, "paused"},
		{WorkerState(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("WorkerState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
