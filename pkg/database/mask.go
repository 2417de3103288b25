package database

import "regexp"

var (
	reDSNPass = regexp.MustCompile(`(://)([^:/@]+):([^@]+)(@)`)
	rePassKV  = regexp.MustCompile(`(?i)(password=)('[^']*'|[^\s]+)`)
)

// MaskDSN hides credentials in URL and keyword/value connection strings so
// they can be logged.
func MaskDSN(dsn string) string {
	out := reDSNPass.ReplaceAllString(dsn, "$1*:*$4")
	return rePassKV.ReplaceAllString(out, "$1***")
}
