package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Upload statuses
const (
	UploadOK       = "uploaded"
	UploadRejected = "rejected" // failed local validation, never sent
	UploadFailed   = "failed"   // sent, backend or transport error
	UploadSkipped  = "skipped"  // same content already uploaded
)

// Upload is one audited upload attempt
type Upload struct {
	ID            int64
	VersionID     int
	ChildModel    string
	Discriminator string
	SrcPath       string
	SHA1          string
	SizeBytes     int64
	RemoteID      int
	Status        string
	Error         string
	CreatedAt     time.Time
}

// InsertUpload records an upload attempt
func (s *Store) InsertUpload(u *Upload) error {
	var remote any
	if u.RemoteID > 0 {
		remote = u.RemoteID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	result, err := s.db.Exec(`
		INSERT INTO uploads
		(version_id, child_model, discriminator, src_path, sha1, size_bytes, remote_id, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.VersionID, u.ChildModel, u.Discriminator, u.SrcPath, u.SHA1, u.SizeBytes, remote, u.Status, u.Error, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert upload: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		u.ID = id
	}
	return nil
}

const uploadColumns = `
	id, version_id, child_model, discriminator, src_path, sha1, size_bytes,
	COALESCE(remote_id, 0), status, COALESCE(error, ''), created_at
`

func scanUploads(rows *sql.Rows) ([]*Upload, error) {
	defer rows.Close()

	var uploads []*Upload
	for rows.Next() {
		u := &Upload{}
		err := rows.Scan(
			&u.ID, &u.VersionID, &u.ChildModel, &u.Discriminator, &u.SrcPath, &u.SHA1, &u.SizeBytes,
			&u.RemoteID, &u.Status, &u.Error, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// GetUploadsByVersion returns the upload history of a version, newest first
func (s *Store) GetUploadsByVersion(versionID int) ([]*Upload, error) {
	rows, err := s.db.Query(`SELECT `+uploadColumns+`
		FROM uploads WHERE version_id = ?
		ORDER BY created_at DESC, id DESC
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	return scanUploads(rows)
}

// GetRecentUploads returns the latest uploads across all versions
func (s *Store) GetRecentUploads(limit int) ([]*Upload, error) {
	rows, err := s.db.Query(`SELECT `+uploadColumns+`
		FROM uploads
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	return scanUploads(rows)
}

// FindUploadedContent returns the successful upload of identical content to
// the same version, or nil when there is none
func (s *Store) FindUploadedContent(versionID int, sha1 string) (*Upload, error) {
	if sha1 == "" {
		return nil, nil
	}
	rows, err := s.db.Query(`SELECT `+uploadColumns+`
		FROM uploads
		WHERE version_id = ? AND sha1 = ? AND status = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, versionID, sha1, UploadOK)
	if err != nil {
		return nil, fmt.Errorf("failed to query uploads: %w", err)
	}
	uploads, err := scanUploads(rows)
	if err != nil || len(uploads) == 0 {
		return nil, err
	}
	return uploads[0], nil
}

// ForgetRemote marks uploads of a deleted child record so their content can
// be uploaded again
func (s *Store) ForgetRemote(childModel string, remoteID int) error {
	_, err := s.db.Exec(`
		UPDATE uploads SET status = 'deleted'
		WHERE child_model = ? AND remote_id = ? AND status = ?
	`, childModel, remoteID, UploadOK)
	if err != nil {
		return fmt.Errorf("failed to update uploads: %w", err)
	}
	return nil
}

// UploadStats aggregates the upload history
type UploadStats struct {
	Total     int
	ByStatus  map[string]int
	Bytes     int64 // bytes of successful uploads
	Versions  int   // distinct versions touched
	TopErrors []ErrorCount
}

// ErrorCount is an error message and how often it occurred
type ErrorCount struct {
	Message string
	Count   int
}

// GetUploadStats returns totals for the summary report
func (s *Store) GetUploadStats(topErrors int) (*UploadStats, error) {
	stats := &UploadStats{ByStatus: map[string]int{}}

	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM uploads GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload stats: %w", err)
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan upload stats: %w", err)
		}
		stats.ByStatus[status] = n
		stats.Total += n
	}
	rows.Close()

	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(size_bytes), 0), COUNT(DISTINCT version_id)
		FROM uploads WHERE status = ?
	`, UploadOK).Scan(&stats.Bytes, &stats.Versions)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload totals: %w", err)
	}

	if topErrors > 0 {
		rows, err := s.db.Query(`
			SELECT error, COUNT(*) AS n FROM uploads
			WHERE error IS NOT NULL AND error != ''
			GROUP BY error
			ORDER BY n DESC, error
			LIMIT ?
		`, topErrors)
		if err != nil {
			return nil, fmt.Errorf("failed to query upload errors: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var ec ErrorCount
			if err := rows.Scan(&ec.Message, &ec.Count); err != nil {
				return nil, fmt.Errorf("failed to scan upload errors: %w", err)
			}
			stats.TopErrors = append(stats.TopErrors, ec)
		}
	}

	return stats, nil
}
