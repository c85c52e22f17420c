// Package sqlite provides the SQLite-backed persistent tier of the catalog
// data cache.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewilliams-labs/undertow/internal/core/domain"
	"github.com/ewilliams-labs/undertow/internal/core/ports"
	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Adapter implements the catalog store port for SQLite.
type Adapter struct {
	db *sql.DB
}

var _ ports.CatalogStore = (*Adapter)(nil)

// NewAdapter opens the database and runs the schema migration.
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	adapter := &Adapter{db: db}
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// GetArtistProfile loads one artist profile row.
func (a *Adapter) GetArtistProfile(ctx context.Context, id string) (domain.ArtistProfile, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, name, genres, popularity, followers, related_ids, fetched_at
		FROM artist_profiles WHERE id = ?
	`, id)

	var p domain.ArtistProfile
	var genresJSON, relatedJSON string
	var fetchedAt int64
	if err := row.Scan(&p.ID, &p.Name, &genresJSON, &p.Popularity, &p.Followers, &relatedJSON, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.ArtistProfile{}, domain.ErrNotFound
		}
		return domain.ArtistProfile{}, fmt.Errorf("failed to load artist profile: %w", err)
	}
	if err := json.Unmarshal([]byte(genresJSON), &p.Genres); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to decode genres for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(relatedJSON), &p.RelatedIDs); err != nil {
		return domain.ArtistProfile{}, fmt.Errorf("failed to decode related ids for %s: %w", id, err)
	}
	p.FetchedAt = time.Unix(fetchedAt, 0)
	return p, nil
}

// SaveArtistProfile upserts one artist profile row.
func (a *Adapter) SaveArtistProfile(ctx context.Context, p domain.ArtistProfile) error {
	genresJSON, err := json.Marshal(emptyIfNil(p.Genres))
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}
	relatedJSON, err := json.Marshal(emptyIfNil(p.RelatedIDs))
	if err != nil {
		return fmt.Errorf("failed to encode related ids: %w", err)
	}
	fetchedAt := p.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO artist_profiles (id, name, genres, popularity, followers, related_ids, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			genres=excluded.genres,
			popularity=excluded.popularity,
			followers=excluded.followers,
			related_ids=excluded.related_ids,
			fetched_at=excluded.fetched_at;
	`, p.ID, p.Name, string(genresJSON), p.Popularity, p.Followers, string(relatedJSON), fetchedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save artist profile %s: %w", p.ID, err)
	}
	return nil
}

// GetRelatedIDs loads the related-artist edge list for an artist.
func (a *Adapter) GetRelatedIDs(ctx context.Context, artistID string) ([]string, time.Time, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT related_ids, fetched_at FROM artist_related WHERE artist_id = ?", artistID)

	var relatedJSON string
	var fetchedAt int64
	if err := row.Scan(&relatedJSON, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, domain.ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("failed to load related ids: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(relatedJSON), &ids); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode related ids for %s: %w", artistID, err)
	}
	return ids, time.Unix(fetchedAt, 0), nil
}

// SaveRelatedIDs upserts the related-artist edge list for an artist.
func (a *Adapter) SaveRelatedIDs(ctx context.Context, artistID string, relatedIDs []string) error {
	relatedJSON, err := json.Marshal(emptyIfNil(relatedIDs))
	if err != nil {
		return fmt.Errorf("failed to encode related ids: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO artist_related (artist_id, related_ids, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(artist_id) DO UPDATE SET
			related_ids=excluded.related_ids,
			fetched_at=excluded.fetched_at;
	`, artistID, string(relatedJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save related ids for %s: %w", artistID, err)
	}
	return nil
}

// GetTopTracks loads the cached top-track list for an artist.
func (a *Adapter) GetTopTracks(ctx context.Context, artistID string) ([]domain.Track, time.Time, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT tracks, fetched_at FROM artist_top_tracks WHERE artist_id = ?", artistID)

	var tracksJSON string
	var fetchedAt int64
	if err := row.Scan(&tracksJSON, &fetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, time.Time{}, domain.ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("failed to load top tracks: %w", err)
	}
	var tracks []domain.Track
	if err := json.Unmarshal([]byte(tracksJSON), &tracks); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode top tracks for %s: %w", artistID, err)
	}
	return tracks, time.Unix(fetchedAt, 0), nil
}

// SaveTopTracks upserts the top-track list for an artist.
func (a *Adapter) SaveTopTracks(ctx context.Context, artistID string, tracks []domain.Track) error {
	if tracks == nil {
		tracks = []domain.Track{}
	}
	tracksJSON, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to encode top tracks: %w", err)
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO artist_top_tracks (artist_id, tracks, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(artist_id) DO UPDATE SET
			tracks=excluded.tracks,
			fetched_at=excluded.fetched_at;
	`, artistID, string(tracksJSON), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save top tracks for %s: %w", artistID, err)
	}
	return nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS artist_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		genres TEXT NOT NULL DEFAULT '[]',
		popularity INTEGER NOT NULL DEFAULT 0,
		followers INTEGER NOT NULL DEFAULT 0,
		related_ids TEXT NOT NULL DEFAULT '[]',
		fetched_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artist_related (
		artist_id TEXT PRIMARY KEY,
		related_ids TEXT NOT NULL DEFAULT '[]',
		fetched_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS artist_top_tracks (
		artist_id TEXT PRIMARY KEY,
		tracks TEXT NOT NULL DEFAULT '[]',
		fetched_at INTEGER NOT NULL
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return err
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
