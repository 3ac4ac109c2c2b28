package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Red    = "\033[31m"
)

// Log prefixes
const (
	LogServer    = Green + "[Server]" + Reset
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogSearch    = Blue + "[Search]" + Reset
)

// providerColors rotate source names through distinct colors so interleaved
// provider logs stay readable.
var providerColors = []string{Green, Blue, Purple, Cyan, Red}

// Provider returns a colored source name for log messages. The same source
// always gets the same color.
func Provider(name string) string {
	hash := 0
	for _, c := range name {
		hash += int(c)
	}
	color := providerColors[hash%len(providerColors)]
	return color + name + Reset
}
