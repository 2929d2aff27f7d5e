package schema

// CurrentVersion is the schema version a freshly created database carries
// (PRAGMA user_version). Migrations in migrations.go close the gap for older
// files.
const CurrentVersion = 4

// createTableStatements holds the full DDL for a fresh database, in foreign
// key dependency order. Every user-owned table cascades on user delete except
// push_tokens, which sets the reference null so device history survives.
var createTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  remote_id TEXT UNIQUE,
  email TEXT NOT NULL COLLATE NOCASE UNIQUE,
  name TEXT NOT NULL,
  phone TEXT UNIQUE,
  profile_image TEXT,
  password_hash TEXT,
  verified INTEGER NOT NULL DEFAULT 0,
  role TEXT NOT NULL DEFAULT 'patient',
  permissions TEXT NOT NULL DEFAULT '[]',
  sync_status TEXT NOT NULL DEFAULT 'needs_push',
  last_synced_at DATETIME,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  created_at DATETIME,
  expires_at DATETIME NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  expires_at DATETIME NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS push_tokens (
  token TEXT PRIMARY KEY,
  user_id TEXT REFERENCES users(id) ON DELETE SET NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS pregnancy_details (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
  start_date DATETIME NOT NULL,
  weeks_pregnant INTEGER NOT NULL DEFAULT 0,
  days_pregnant INTEGER NOT NULL DEFAULT 0,
  baby_height_cm REAL,
  baby_weight_g REAL,
  due_date DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS favorite_hospitals (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  place_id TEXT NOT NULL,
  name TEXT NOT NULL,
  latitude REAL,
  longitude REAL,
  rating REAL,
  metadata TEXT,
  created_at DATETIME,
  UNIQUE (user_id, place_id)
)`,

	`CREATE TABLE IF NOT EXISTS prediction_history (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  input TEXT NOT NULL,
  output TEXT NOT NULL,
  risk_level TEXT NOT NULL,
  created_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS calendar_notes (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  note_date TEXT NOT NULL,
  note TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  sort_order INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS videos (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  url TEXT NOT NULL UNIQUE,
  description TEXT,
  category TEXT,
  recommended INTEGER NOT NULL DEFAULT 0,
  duration_seconds INTEGER,
  published_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS user_video_preferences (
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
  position_seconds INTEGER NOT NULL DEFAULT 0,
  liked INTEGER NOT NULL DEFAULT 0,
  completed INTEGER NOT NULL DEFAULT 0,
  last_watched_at DATETIME,
  PRIMARY KEY (user_id, video_id)
)`,

	`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  body TEXT,
  read INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS preferences (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS sync_meta (
  collection TEXT PRIMARY KEY,
  last_synced_at DATETIME NOT NULL
)`,

	`CREATE TABLE IF NOT EXISTS appointments (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  doctor_id TEXT NOT NULL,
  scheduled_at DATETIME NOT NULL,
  reason TEXT NOT NULL,
  notes TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS articles (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  category TEXT,
  image_url TEXT,
  published_at DATETIME,
  created_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS foods (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  trimester INTEGER NOT NULL DEFAULT 0,
  benefits TEXT,
  image_url TEXT,
  created_at DATETIME
)`,

	`CREATE TABLE IF NOT EXISTS timeline_events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  week INTEGER NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  event_date DATETIME NOT NULL,
  created_at DATETIME
)`,
}

var createIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_reset_tokens_user ON password_reset_tokens (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_push_tokens_user ON push_tokens (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_history_user_created ON prediction_history (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_notes_user_date ON calendar_notes (user_id, note_date)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_category ON videos (category)`,
	`CREATE INDEX IF NOT EXISTS idx_videos_published ON videos (published_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_user ON appointments (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments (doctor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_timeline_events_user ON timeline_events (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_users_sync_status ON users (sync_status)`,
}

// seedStatements load reference rows a fresh install expects.
var seedStatements = []string{
	`INSERT OR IGNORE INTO categories (id, name, sort_order, created_at) VALUES
  ('cat-pregnancy', 'Pregnancy', 1, CURRENT_TIMESTAMP),
  ('cat-nutrition', 'Nutrition', 2, CURRENT_TIMESTAMP),
  ('cat-exercise', 'Exercise', 3, CURRENT_TIMESTAMP),
  ('cat-mental-health', 'Mental Health', 4, CURRENT_TIMESTAMP),
  ('cat-baby-care', 'Baby Care', 5, CURRENT_TIMESTAMP)`,
}
