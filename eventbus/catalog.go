package eventbus

// Event names exchanged between hosted services.
const (
	RioLaunched = "rio:launched"
	RioExited   = "rio:exited"

	ConfigLoaded  = "config:loaded"
	ConfigChanged = "config:changed"
	ConfigError   = "config:error"

	CacheEvicted = "cache:evicted"
	CacheCleared = "cache:cleared"

	DependencyInstalled = "dependency:installed"
	DependencyMissing   = "dependency:missing"

	ProfileSwitched = "profile:switched"
	ThemeChanged    = "theme:changed"
	SessionRestored = "session:restored"

	NotificationShown = "notification:shown"
)
