package journal

// Schema v1 - operation history
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- One row per mutating operation run against a library
CREATE TABLE IF NOT EXISTS operations (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  library TEXT NOT NULL,
  args TEXT,
  started_at DATETIME NOT NULL,
  completed_at DATETIME NOT NULL,
  summary_json TEXT,
  error TEXT
);

CREATE INDEX IF NOT EXISTS idx_operations_library ON operations(library, started_at);
CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind);
`
