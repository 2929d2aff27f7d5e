package schema

// Table names. Raw SQL throughout the engine references these constants so a
// rename shows up at compile time, not at query time.
const (
	TableUsers                = "users"
	TableSessions             = "sessions"
	TablePasswordResetTokens  = "password_reset_tokens"
	TablePushTokens           = "push_tokens"
	TablePregnancyDetails     = "pregnancy_details"
	TableFavoriteHospitals    = "favorite_hospitals"
	TablePredictionHistory    = "prediction_history"
	TableCalendarNotes        = "calendar_notes"
	TableVideos               = "videos"
	TableUserVideoPreferences = "user_video_preferences"
	TableCategories           = "categories"
	TableNotifications        = "notifications"
	TablePreferences          = "preferences"
	TableSyncMeta             = "sync_meta"
	TableAppointments         = "appointments"
	TableArticles             = "articles"
	TableFoods                = "foods"
	TableTimelineEvents       = "timeline_events"
	TableVideoSearch          = "video_search"
)

// PrefKeySearchTier is the preferences row recording the active search tier.
const PrefKeySearchTier = "search.tier"
