// Package perm decides whether a user may run mutating rule commands,
// based on the user_control section of the shared config file.
package perm

// List types accepted in user_control.list_type.
const (
	Whitelist = "whitelist"
	Blacklist = "blacklist"
)

// Config is the user_control section, read fresh on every check so edits
// to the config file apply immediately.
type Config struct {
	ListType string   `koanf:"list_type"`
	List     []string `koanf:"list"`
}

// Allowed reports whether userID may run mutating commands. An empty user
// ID is always denied. A whitelist grants only listed users; a blacklist
// grants everyone but listed users. Any other list type denies — an
// unrecognized or corrupted value must not open the gate.
func Allowed(userID string, cfg Config) bool {
	if userID == "" {
		return false
	}

	members := make(map[string]struct{}, len(cfg.List))
	for _, u := range cfg.List {
		members[u] = struct{}{}
	}
	_, listed := members[userID]

	switch cfg.ListType {
	case Whitelist:
		return listed
	case Blacklist:
		return !listed
	default:
		return false
	}
}
