package config

import "strings"

// sensitiveKeys are the substrings that mark a configuration key or program
// argument as carrying a credential. Matching is case-insensitive.
var sensitiveKeys = []string{
	"password",
	"secret",
	"fs.azure.account.key",
	"apikey",
	"api-key",
	"auth-params",
	"service-key",
	"token",
	"basic-auth",
	"jaas.config",
	"http-headers",
}

// IsSensitive reports whether arg names or carries a sensitive value. extra
// extends the built-in list and is expected to be lower case.
func IsSensitive(arg string, extra ...string) bool {
	lower := strings.ToLower(arg)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	for _, k := range extra {
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
