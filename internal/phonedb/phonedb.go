// Package phonedb keeps a catalogue of phone vendors, phone models and
// the connections and features they support.
package phonedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 250

var (
	ErrInvalidName = errors.New("invalid name")
	ErrDuplicate   = errors.New("name already exists")
	ErrNotFound    = errors.New("not found")
)

type Vendor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Phone struct {
	ID          int64    `json:"id"`
	VendorID    int64    `json:"vendorId"`
	Name        string   `json:"name"`
	Connections []string `json:"connections"`
	Features    []string `json:"features"`
}

// ValidateName checks the generic constraints shared by every name
// column.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be blank", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidatePhoneName enforces the phone naming rule: the vendor is
// stored separately so it must not be repeated in the phone name.
func ValidatePhoneName(name, vendor string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	if vendor != "" && strings.Contains(strings.ToLower(name), strings.ToLower(vendor)) {
		return fmt.Errorf("%w: Phone name, please exclude vendor name.", ErrInvalidName)
	}
	return nil
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AddVendor(ctx context.Context, name string) (*Vendor, error) {
	id, err := r.insertName(ctx, "phonedb_vendor", name)
	if err != nil {
		return nil, err
	}
	return &Vendor{ID: id, Name: name}, nil
}

func (r *Repository) AddConnection(ctx context.Context, name string) (int64, error) {
	return r.insertName(ctx, "phonedb_connection", name)
}

func (r *Repository) AddFeature(ctx context.Context, name string) (int64, error) {
	return r.insertName(ctx, "phonedb_feature", name)
}

func (r *Repository) ListVendors(ctx context.Context) ([]Vendor, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM phonedb_vendor ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// AddPhone stores a phone of the given vendor and links it to the
// named connections and features, which must exist already.
func (r *Repository) AddPhone(
	ctx context.Context,
	vendorID int64,
	name string,
	connections []string,
	features []string,
) (*Phone, error) {
	var vendorName string
	err := r.db.QueryRowContext(ctx,
		"SELECT name FROM phonedb_vendor WHERE id = ?",
		vendorID,
	).Scan(&vendorName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: vendor %d", ErrNotFound, vendorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor %d: %w", vendorID, err)
	}

	if err := ValidatePhoneName(name, vendorName); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO phonedb_phone (vendor_id, name) VALUES (?, ?)",
		vendorID,
		name,
	)
	if err != nil {
		return nil, wrapConstraint(err, "phone "+name)
	}

	phone := &Phone{VendorID: vendorID, Name: name}
	if phone.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	links := []struct {
		table, linkTable, linkColumn string
		names                        []string
		dst                          *[]string
	}{
		{"phonedb_connection", "phonedb_phone_connections", "connection_id", connections, &phone.Connections},
		{"phonedb_feature", "phonedb_phone_features", "feature_id", features, &phone.Features},
	}

	for _, l := range links {
		for _, linkName := range l.names {
			var linkID int64
			err := tx.QueryRowContext(ctx,
				"SELECT id FROM "+l.table+" WHERE name = ?",
				linkName,
			).Scan(&linkID)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s %q", ErrNotFound, l.table, linkName)
			}
			if err != nil {
				return nil, fmt.Errorf("failed to get %s %q: %w", l.table, linkName, err)
			}

			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO "+l.linkTable+" (phone_id, "+l.linkColumn+") VALUES (?, ?)",
				phone.ID,
				linkID,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to link %s %q: %w", l.table, linkName, err)
			}
			*l.dst = append(*l.dst, linkName)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit phone %s: %w", name, err)
	}
	return phone, nil
}

// ListPhones returns the phones of a vendor ordered by name
func (r *Repository) ListPhones(ctx context.Context, vendorID int64) ([]Phone, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, vendor_id, name FROM phonedb_phone WHERE vendor_id = ? ORDER BY name",
		vendorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list phones: %w", err)
	}
	defer rows.Close()

	var phones []Phone
	for rows.Next() {
		var p Phone
		if err := rows.Scan(&p.ID, &p.VendorID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan phone: %w", err)
		}
		phones = append(phones, p)
	}
	return phones, rows.Err()
}

func (r *Repository) insertName(ctx context.Context, table, name string) (int64, error) {
	if err := ValidateName(name); err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, "INSERT INTO "+table+" (name) VALUES (?)", name)
	if err != nil {
		return 0, wrapConstraint(err, table+" "+name)
	}
	return res.LastInsertId()
}

func wrapConstraint(err error, what string) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrDuplicate, what)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}
