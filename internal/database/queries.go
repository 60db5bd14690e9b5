package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsdigest/internal/domain"
)

// GetCachedCountry returns the cached geo-IP country if it was stored less
// than ttl before now.
func (d *Database) GetCachedCountry(
	ctx context.Context,
	now time.Time,
	ttl time.Duration,
) (string, bool, error) {
	query := "select country, fetched_at from geoip_cache where id = 1"

	var (
		country   string
		fetchedAt int64
	)

	err := d.db.QueryRowContext(ctx, query).Scan(&country, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scan row: %w", err)
	}

	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) != 2 {
		return "", false, nil
	}

	if now.Sub(time.Unix(fetchedAt, 0)) > ttl {
		return "", false, nil
	}

	return country, true, nil
}

func (d *Database) SaveCountry(ctx context.Context, country string, fetchedAt time.Time) error {
	country = strings.ToUpper(strings.TrimSpace(country))
	if len(country) != 2 {
		return fmt.Errorf("invalid country code: %q", country)
	}

	query := "insert into geoip_cache (id, country, fetched_at) values (1, ?, ?) " +
		"on conflict (id) do update set country = excluded.country, fetched_at = excluded.fetched_at"

	_, err := d.db.ExecContext(ctx, query, country, fetchedAt.Unix())

	return err
}

func (d *Database) AddRun(ctx context.Context, run domain.Run) (int64, error) {
	query := "insert into runs (started_at, feed_url, provider, stories, items, output_path) " +
		"values (?, ?, ?, ?, ?, ?)"

	res, err := d.db.ExecContext(ctx, query,
		run.StartedAt.Unix(),
		strings.TrimSpace(run.FeedURL),
		strings.TrimSpace(run.Provider),
		run.Stories,
		run.Items,
		strings.TrimSpace(run.OutputPath),
	)
	if err != nil {
		return 0, fmt.Errorf("execute query: %w", err)
	}

	return res.LastInsertId()
}

// GetRecentRuns returns at most limit runs, newest first.
func (d *Database) GetRecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	query := "select id, started_at, feed_url, provider, stories, items, output_path " +
		"from runs order by started_at desc, id desc limit ?"

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"limit", limit,
				"operation", "GetRecentRuns")
		}
	}()

	var runs []domain.Run
	for rows.Next() {
		var (
			r         domain.Run
			startedAt int64
		)
		if err = rows.Scan(&r.ID, &startedAt, &r.FeedURL, &r.Provider, &r.Stories, &r.Items, &r.OutputPath); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		r.StartedAt = time.Unix(startedAt, 0).UTC()
		runs = append(runs, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return runs, nil
}
