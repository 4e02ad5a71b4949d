package phonedb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/giobyte8/newsroom/internal/db/sqlite"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestValidatePhoneName(t *testing.T) {
	tests := []struct {
		name, vendor string
		wantErr      bool
	}{
		{"Galaxy S21", "Samsung", false},
		{"3310", "Nokia", false},
		{"Nokia 3310", "Nokia", true},
		{"iphone 12 (apple)", "Apple", true},
		{"   ", "Nokia", true},
		{strings.Repeat("x", 251), "Nokia", true},
		{strings.Repeat("x", 250), "Nokia", false},
	}

	for _, tt := range tests {
		err := ValidatePhoneName(tt.name, tt.vendor)
		if tt.wantErr && !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidatePhoneName(%q, %q) error = %v, want ErrInvalidName", tt.name, tt.vendor, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("ValidatePhoneName(%q, %q) error = %v", tt.name, tt.vendor, err)
		}
	}
}

func TestRepository_AddPhone(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	nokia, err := repo.AddVendor(ctx, "Nokia")
	if err != nil {
		t.Fatalf("AddVendor() error = %v", err)
	}
	for _, c := range []string{"GSM", "Bluetooth"} {
		if _, err := repo.AddConnection(ctx, c); err != nil {
			t.Fatalf("AddConnection(%s) error = %v", c, err)
		}
	}
	if _, err := repo.AddFeature(ctx, "Snake"); err != nil {
		t.Fatalf("AddFeature() error = %v", err)
	}

	phone, err := repo.AddPhone(ctx, nokia.ID, "3310", []string{"GSM"}, []string{"Snake"})
	if err != nil {
		t.Fatalf("AddPhone() error = %v", err)
	}
	if phone.ID == 0 || len(phone.Connections) != 1 || len(phone.Features) != 1 {
		t.Errorf("unexpected phone: %+v", phone)
	}

	if _, err := repo.AddPhone(ctx, nokia.ID, "Nokia 6310", nil, nil); !errors.Is(err, ErrInvalidName) {
		t.Errorf("vendor in name error = %v, want ErrInvalidName", err)
	}
	if _, err := repo.AddPhone(ctx, nokia.ID, "3310", nil, nil); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate phone error = %v, want ErrDuplicate", err)
	}
	if _, err := repo.AddPhone(ctx, 999, "X", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown vendor error = %v, want ErrNotFound", err)
	}
	if _, err := repo.AddPhone(ctx, nokia.ID, "N95", []string{"5G"}, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown connection error = %v, want ErrNotFound", err)
	}

	phones, err := repo.ListPhones(ctx, nokia.ID)
	if err != nil {
		t.Fatalf("ListPhones() error = %v", err)
	}
	if len(phones) != 1 || phones[0].Name != "3310" {
		t.Errorf("ListPhones() = %+v, want only 3310", phones)
	}
}

func TestRepository_UniqueNames(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	if _, err := repo.AddVendor(ctx, "Nokia"); err != nil {
		t.Fatalf("AddVendor() error = %v", err)
	}
	if _, err := repo.AddVendor(ctx, "Nokia"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate vendor error = %v, want ErrDuplicate", err)
	}
	if _, err := repo.AddFeature(ctx, ""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("blank feature error = %v, want ErrInvalidName", err)
	}

	if _, err := repo.AddVendor(ctx, "Ericsson"); err != nil {
		t.Fatalf("AddVendor() error = %v", err)
	}
	vendors, err := repo.ListVendors(ctx)
	if err != nil {
		t.Fatalf("ListVendors() error = %v", err)
	}
	if len(vendors) != 2 || vendors[0].Name != "Ericsson" {
		t.Errorf("ListVendors() = %+v", vendors)
	}
}
