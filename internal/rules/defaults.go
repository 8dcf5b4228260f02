package rules

// DefaultConfig is the commented default config file, written on first
// load and by init-config. The same file is hand-editable and shared
// with the host UI; command-driven edits keep unrelated keys intact.
const DefaultConfig = `# phrasegate configuration
# Edited both by /ignore chat commands and by hand — keep it valid TOML.

[plugin]
config_version = "1.0.0"
# Master switch. When false every message passes through untouched.
enabled = true

[phrases]
# Literal phrase matching.
enabled = true
list = []
# How a phrase is compared against message text:
#   contains | exact | startswith | endswith
match_mode = "contains"
case_sensitive = false

[regex]
# Regular expression matching (RE2 syntax). Runs after phrase matching.
enabled = true
patterns = []
case_sensitive = false

[logging]
# Log every blocked message at info level.
log_ignored = true
# Per-message debug logging, including skipped malformed patterns.
debug = false

[user_control]
# whitelist: only listed users may change rules.
# blacklist: everyone except listed users may change rules.
# Anything else denies all mutating commands.
list_type = "whitelist"
list = []
`
