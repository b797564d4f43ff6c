package ledger

import "regexp"

// secretFlags matches command-line switches that are conventionally
// followed by a secret value (passwords, pre-shared keys) so the ledger
// never persists credentials verbatim (§3 "command (redacted)").
var secretFlags = regexp.MustCompile(`(?i)(-{1,2}(?:passwd|password|pass|pwd)[= ])(\S+)`)

func redact(command string) string {
	return secretFlags.ReplaceAllString(command, "${1}***")
}
