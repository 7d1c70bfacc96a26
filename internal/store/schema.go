package store

const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Single-row token storage
CREATE TABLE IF NOT EXISTS session (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  username TEXT NOT NULL DEFAULT '',
  access_token TEXT NOT NULL DEFAULT '',
  refresh_token TEXT NOT NULL DEFAULT '',
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per attempted child-file upload
CREATE TABLE IF NOT EXISTS uploads (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  version_id INTEGER NOT NULL,
  child_model TEXT NOT NULL,
  discriminator TEXT NOT NULL DEFAULT '',
  src_path TEXT NOT NULL,
  sha1 TEXT NOT NULL DEFAULT '',
  size_bytes INTEGER NOT NULL DEFAULT 0,
  remote_id INTEGER,
  status TEXT NOT NULL,
  error TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status);
`

const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_uploads_version ON uploads(version_id, created_at);
CREATE INDEX IF NOT EXISTS idx_uploads_version_sha1 ON uploads(version_id, sha1);
`
