package schema

// A migrationStep is one statement of a version upgrade. Steps must tolerate
// re-application: a prior partial upgrade may already have run some of them,
// so "duplicate column" and "already exists" failures are logged and skipped
// rather than aborting the migration.
type migrationStep struct {
	Name string
	SQL  string
}

// migrations maps a target version to the steps that bring version-1 up to
// it. Applied in ascending order for every gap between the on-disk version
// and CurrentVersion.
var migrations = map[int][]migrationStep{
	// v2: remote sync columns on users.
	2: {
		{Name: "users.remote_id", SQL: `ALTER TABLE users ADD COLUMN remote_id TEXT`},
		{Name: "users.sync_status", SQL: `ALTER TABLE users ADD COLUMN sync_status TEXT NOT NULL DEFAULT 'needs_push'`},
		{Name: "users.last_synced_at", SQL: `ALTER TABLE users ADD COLUMN last_synced_at DATETIME`},
		{Name: "idx_users_remote_id", SQL: `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_remote_id ON users (remote_id)`},
		{Name: "idx_users_sync_status", SQL: `CREATE INDEX IF NOT EXISTS idx_users_sync_status ON users (sync_status)`},
		{Name: "sync_meta", SQL: `CREATE TABLE IF NOT EXISTS sync_meta (
  collection TEXT PRIMARY KEY,
  last_synced_at DATETIME NOT NULL
)`},
	},

	// v3: video catalog, per-user watch state, process preferences.
	3: {
		{Name: "videos", SQL: `CREATE TABLE IF NOT EXISTS videos (
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
)`},
		{Name: "user_video_preferences", SQL: `CREATE TABLE IF NOT EXISTS user_video_preferences (
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  video_id TEXT NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
  position_seconds INTEGER NOT NULL DEFAULT 0,
  liked INTEGER NOT NULL DEFAULT 0,
  completed INTEGER NOT NULL DEFAULT 0,
  last_watched_at DATETIME,
  PRIMARY KEY (user_id, video_id)
)`},
		{Name: "preferences", SQL: `CREATE TABLE IF NOT EXISTS preferences (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME
)`},
		{Name: "idx_videos_category", SQL: `CREATE INDEX IF NOT EXISTS idx_videos_category ON videos (category)`},
		{Name: "idx_videos_published", SQL: `CREATE INDEX IF NOT EXISTS idx_videos_published ON videos (published_at)`},
	},

	// v4: appointments, timeline, notification read flag.
	4: {
		{Name: "appointments", SQL: `CREATE TABLE IF NOT EXISTS appointments (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  doctor_id TEXT NOT NULL,
  scheduled_at DATETIME NOT NULL,
  reason TEXT NOT NULL,
  notes TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
)`},
		{Name: "timeline_events", SQL: `CREATE TABLE IF NOT EXISTS timeline_events (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  week INTEGER NOT NULL,
  title TEXT NOT NULL,
  description TEXT,
  event_date DATETIME NOT NULL,
  created_at DATETIME
)`},
		{Name: "notifications.read", SQL: `ALTER TABLE notifications ADD COLUMN read INTEGER NOT NULL DEFAULT 0`},
		{Name: "idx_appointments_user", SQL: `CREATE INDEX IF NOT EXISTS idx_appointments_user ON appointments (user_id)`},
		{Name: "idx_appointments_doctor", SQL: `CREATE INDEX IF NOT EXISTS idx_appointments_doctor ON appointments (doctor_id)`},
		{Name: "idx_timeline_events_user", SQL: `CREATE INDEX IF NOT EXISTS idx_timeline_events_user ON timeline_events (user_id)`},
	},
}
