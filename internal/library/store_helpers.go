package library

import (
	"database/sql"
	"errors"
	"time"
)

const songColumns = "id, local_path, fingerprint, remote_id, created_at, updated_at"

const (
	metaPlaylistID  = "playlist_id"
	selectMetaQuery = "SELECT value FROM store_meta WHERE key = ?"
)

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*SongRecord, error) {
	var (
		id          int64
		localPath   string
		fingerprint string
		remoteID    sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(&id, &localPath, &fingerprint, &remoteID, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	record := &SongRecord{
		ID:          id,
		LocalPath:   localPath,
		Fingerprint: fingerprint,
		RemoteID:    remoteID.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func collectRecords(rows *sql.Rows) ([]SongRecord, error) {
	defer rows.Close()
	var records []SongRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func readMeta(row *sql.Row) (string, error) {
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
