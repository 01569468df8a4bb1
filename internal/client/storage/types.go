package storage

// Keys of the three logical records kept in the key/value backend.
const (
	historyKey = "agrivision_history"
	userKey    = "agrivision_user"
	usersDBKey = "agrivision_users_db"
)

// HistoryLimit is the number of scans kept; older ones are dropped silently.
const HistoryLimit = 50
