package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/linkstats/internal/analytics"
	"github.com/serroba/linkstats/internal/clicks"
	"github.com/serroba/linkstats/internal/links"
)

// SQLSTATE codes the store translates into domain errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

const linkColumns = `id::text, code, edit_key, long_url, owner_id, title, created_at, expires_at, is_active, click_count`

// PostgresStore is the PostgreSQL implementation of links.Repository,
// the click recorder and analytics.Source.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Create(ctx context.Context, link *links.Link) error {
	query := `
		INSERT INTO links (id, code, edit_key, long_url, owner_id, title, created_at, expires_at, is_active, click_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := p.pool.Exec(ctx, query,
		link.ID,
		string(link.Code),
		link.EditKey,
		link.LongURL,
		nullableString(link.OwnerID),
		link.Title,
		link.CreatedAt,
		link.ExpiresAt,
		link.IsActive,
		link.ClickCount,
	)
	if err != nil {
		if pgErr, ok := pgError(err, uniqueViolation); ok {
			return fmt.Errorf("%w: %s", links.ErrConflict, pgErr.ConstraintName)
		}

		return err
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code links.Code) (*links.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = $1`

	link, err := scanLink(p.pool.QueryRow(ctx, query, string(code)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, links.ErrNotFound
		}

		return nil, err
	}

	return link, nil
}

func (p *PostgresStore) Update(ctx context.Context, link *links.Link) error {
	query := `
		UPDATE links
		SET long_url = $2, title = $3, expires_at = $4, is_active = $5, owner_id = $6
		WHERE code = $1
		RETURNING click_count
	`

	err := p.pool.QueryRow(ctx, query,
		string(link.Code),
		link.LongURL,
		link.Title,
		link.ExpiresAt,
		link.IsActive,
		nullableString(link.OwnerID),
	).Scan(&link.ClickCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return links.ErrNotFound
	}

	return err
}

func (p *PostgresStore) Delete(ctx context.Context, code links.Code) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM links WHERE code = $1`, string(code))
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return links.ErrNotFound
	}

	return nil
}

// List returns the links matching filter, newest first.
func (p *PostgresStore) List(ctx context.Context, filter links.ListFilter) ([]*links.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE `

	var args []any

	if filter.Unowned {
		query += `owner_id IS NULL`
	} else {
		query += `owner_id = $1`

		args = append(args, filter.OwnerID)
	}

	if filter.ActiveOnly {
		query += ` AND is_active`
	}

	query += ` ORDER BY created_at DESC, code`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*links.Link, 0)

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, err
		}

		out = append(out, link)
	}

	return out, rows.Err()
}

// RecordClick inserts the click and increments the link counter in one transaction.
func (p *PostgresStore) RecordClick(ctx context.Context, click *links.Click) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		insert := `
			INSERT INTO link_clicks (link_id, clicked_at, ip_address, user_agent, referrer, country, device_type)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`

		err := tx.QueryRow(ctx, insert,
			click.LinkID,
			click.ClickedAt,
			nullableString(click.IPAddress),
			click.UserAgent,
			click.Referrer,
			nullableString(click.Country),
			string(click.DeviceType),
		).Scan(&click.ID)
		if _, ok := pgError(err, foreignKeyViolation); ok {
			// The link was deleted after the redirect looked it up.
			return links.ErrNotFound
		}

		if err != nil {
			return fmt.Errorf("insert click: %w", err)
		}

		tag, err := tx.Exec(ctx, `UPDATE links SET click_count = click_count + 1 WHERE id = $1`, click.LinkID)
		if err != nil {
			return fmt.Errorf("increment click count: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return links.ErrNotFound
		}

		return nil
	})
}

func (p *PostgresStore) ClicksByDay(ctx context.Context, linkID string, since time.Time) ([]analytics.DayCount, error) {
	query := `
		SELECT to_char((clicked_at AT TIME ZONE 'UTC')::date, 'YYYY-MM-DD') AS day, count(*)
		FROM link_clicks
		WHERE link_id = $1 AND clicked_at >= $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := p.pool.Query(ctx, query, linkID, since)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.DayCount, error) {
		var dc analytics.DayCount
		err := row.Scan(&dc.Date, &dc.Count)

		return dc, err
	})
}

func (p *PostgresStore) ClicksByCountry(ctx context.Context, linkID string) ([]analytics.CountryCount, error) {
	query := `
		SELECT country, count(*) AS n
		FROM link_clicks
		WHERE link_id = $1 AND country IS NOT NULL AND country <> ''
		GROUP BY country
		ORDER BY n DESC, country
	`

	rows, err := p.pool.Query(ctx, query, linkID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.CountryCount, error) {
		var cc analytics.CountryCount
		err := row.Scan(&cc.Country, &cc.Count)

		return cc, err
	})
}

func (p *PostgresStore) ClicksByDevice(ctx context.Context, linkID string) ([]analytics.DeviceCount, error) {
	query := `
		SELECT device_type, count(*) AS n
		FROM link_clicks
		WHERE link_id = $1 AND device_type <> ''
		GROUP BY device_type
		ORDER BY n DESC, device_type
	`

	rows, err := p.pool.Query(ctx, query, linkID)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.DeviceCount, error) {
		var dc analytics.DeviceCount
		err := row.Scan(&dc.DeviceType, &dc.Count)

		return dc, err
	})
}

func (p *PostgresStore) RecentClicks(ctx context.Context, linkID string, limit int) ([]*links.Click, error) {
	query := `
		SELECT id, link_id::text, clicked_at, ip_address, user_agent, referrer, country, device_type
		FROM link_clicks
		WHERE link_id = $1
		ORDER BY clicked_at DESC, id DESC
		LIMIT $2
	`

	rows, err := p.pool.Query(ctx, query, linkID, limit)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*links.Click, error) {
		var (
			c          links.Click
			ip, ctry   *string
			deviceType string
		)

		err := row.Scan(&c.ID, &c.LinkID, &c.ClickedAt, &ip, &c.UserAgent, &c.Referrer, &ctry, &deviceType)
		if err != nil {
			return nil, err
		}

		c.IPAddress = derefString(ip)
		c.Country = derefString(ctry)
		c.DeviceType = links.DeviceType(deviceType)
		c.ClickedAt = c.ClickedAt.UTC()

		return &c, nil
	})
}

func scanLink(row pgx.Row) (*links.Link, error) {
	var (
		link    links.Link
		code    string
		ownerID *string
	)

	err := row.Scan(
		&link.ID,
		&code,
		&link.EditKey,
		&link.LongURL,
		&ownerID,
		&link.Title,
		&link.CreatedAt,
		&link.ExpiresAt,
		&link.IsActive,
		&link.ClickCount,
	)
	if err != nil {
		return nil, err
	}

	link.Code = links.Code(code)
	link.OwnerID = derefString(ownerID)
	link.CreatedAt = link.CreatedAt.UTC()

	if link.ExpiresAt != nil {
		exp := link.ExpiresAt.UTC()
		link.ExpiresAt = &exp
	}

	return &link, nil
}

// pgError returns the PostgreSQL error in err's chain when it carries code.
func pgError(err error, code string) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr, true
	}

	return nil, false
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

var (
	_ links.Repository = (*PostgresStore)(nil)
	_ analytics.Source = (*PostgresStore)(nil)
	_ clicks.Recorder  = (*PostgresStore)(nil)
)
