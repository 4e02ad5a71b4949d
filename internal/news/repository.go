package news

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository persists categories and entries in the news tables.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateCategory(ctx context.Context, c *Category) error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: category title cannot be empty", ErrInvalid)
	}
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	if c.Slug == "" {
		return fmt.Errorf("%w: cannot derive slug from %q", ErrInvalid, c.Title)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO news_category (title, slug) VALUES (?, ?)",
		c.Title,
		c.Slug,
	)
	if err != nil {
		return wrapConstraint(err, "failed to insert category "+c.Slug)
	}

	c.ID, err = res.LastInsertId()
	return err
}

func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, slug FROM news_category ORDER BY title",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// CreateEntry inserts e with its category links. Missing slugs are
// derived from the title and a zero PubDate defaults to now.
func (r *Repository) CreateEntry(ctx context.Context, e *Entry, categorySlugs []string) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: entry title cannot be empty", ErrInvalid)
	}
	if e.Slug == "" {
		e.Slug = Slugify(e.Title)
	}
	if e.Slug == "" {
		return fmt.Errorf("%w: cannot derive slug from %q", ErrInvalid, e.Title)
	}
	if e.PubDate.IsZero() {
		e.PubDate = time.Now()
	}
	e.PubDate = e.PubDate.UTC().Truncate(time.Second)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO news_entry (title, slug, excerpt, body, author, pub_date, image)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Title,
		e.Slug,
		e.Excerpt,
		e.Body,
		e.Author,
		e.PubDate.Unix(),
		e.Image,
	)
	if err != nil {
		return wrapConstraint(err, "failed to insert entry "+e.Slug)
	}

	if e.ID, err = res.LastInsertId(); err != nil {
		return err
	}

	e.Categories = nil
	for _, slug := range categorySlugs {
		var c Category
		err := tx.QueryRowContext(ctx,
			"SELECT id, title, slug FROM news_category WHERE slug = ?",
			slug,
		).Scan(&c.ID, &c.Title, &c.Slug)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: category %s", ErrNotFound, slug)
		}
		if err != nil {
			return fmt.Errorf("failed to get category %s: %w", slug, err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO news_entry_categories (entry_id, category_id) VALUES (?, ?)",
			e.ID,
			c.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to link category %s: %w", slug, err)
		}
		e.Categories = append(e.Categories, c)
	}

	return tx.Commit()
}

const entryColumns = "e.id, e.title, e.slug, e.excerpt, e.body, e.author, e.pub_date, e.image"

func (r *Repository) GetEntry(ctx context.Context, slug string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM news_entry e WHERE e.slug = ?",
		slug,
	)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry %s: %w", slug, err)
	}

	if err := r.loadCategories(ctx, []*Entry{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListEntries returns entries newest first, filtered by opts.
func (r *Repository) ListEntries(ctx context.Context, opts ListOptions) ([]*Entry, error) {
	var (
		where []string
		args  []any
	)

	if q := strings.TrimSpace(opts.Query); q != "" {
		// Every search term must match at least one of the fields
		for _, term := range strings.Fields(q) {
			like := "%" + escapeLike(term) + "%"
			where = append(where, `(e.title LIKE ? ESCAPE '\' OR e.excerpt LIKE ? ESCAPE '\' OR e.body LIKE ? ESCAPE '\')`)
			args = append(args, like, like, like)
		}
	}

	if opts.Category != "" {
		where = append(where, `e.id IN (
			SELECT ec.entry_id FROM news_entry_categories ec
			JOIN news_category c ON c.id = ec.category_id
			WHERE c.slug = ?)`)
		args = append(args, opts.Category)
	}

	if opts.Year > 0 {
		from, to, err := dateRange(opts.Year, opts.Month)
		if err != nil {
			return nil, err
		}
		where = append(where, "e.pub_date >= ? AND e.pub_date < ?")
		args = append(args, from.Unix(), to.Unix())
	}

	query := "SELECT " + entryColumns + " FROM news_entry e"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY e.pub_date DESC, e.id DESC"

	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadCategories(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetEntryImage records the storage name of the entry image. An
// empty name clears it.
func (r *Repository) SetEntryImage(ctx context.Context, slug, image string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE news_entry SET image = ? WHERE slug = ?",
		image,
		slug,
	)
	if err != nil {
		return fmt.Errorf("failed to update image of entry %s: %w", slug, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: entry %s", ErrNotFound, slug)
	}
	return nil
}

// ClearImage unsets the image of every entry pointing at the given
// storage name and reports how many entries were touched.
func (r *Repository) ClearImage(ctx context.Context, image string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE news_entry SET image = '' WHERE image = ?",
		image,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear image %s: %w", image, err)
	}
	return res.RowsAffected()
}

func (r *Repository) DeleteEntry(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM news_entry WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", slug, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: entry %s", ErrNotFound, slug)
	}
	return nil
}

func (r *Repository) loadCategories(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	byID := make(map[int64]*Entry, len(entries))
	placeholders := make([]string, 0, len(entries))
	args := make([]any, 0, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
		placeholders = append(placeholders, "?")
		args = append(args, e.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ec.entry_id, c.id, c.title, c.slug
		FROM news_entry_categories ec
		JOIN news_category c ON c.id = ec.category_id
		WHERE ec.entry_id IN (`+strings.Join(placeholders, ",")+`)
		ORDER BY c.title`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to load entry categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID int64
		var c Category
		if err := rows.Scan(&entryID, &c.ID, &c.Title, &c.Slug); err != nil {
			return fmt.Errorf("failed to scan entry category: %w", err)
		}
		e := byID[entryID]
		e.Categories = append(e.Categories, c)
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var pubDate int64
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Slug,
		&e.Excerpt,
		&e.Body,
		&e.Author,
		&pubDate,
		&e.Image,
	)
	if err != nil {
		return nil, err
	}

	e.PubDate = time.Unix(pubDate, 0).UTC()
	return &e, nil
}

func dateRange(year, month int) (time.Time, time.Time, error) {
	if month < 0 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month %d", ErrInvalid, month)
	}

	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0), nil
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func wrapConstraint(err error, msg string) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
