package log

// Global vars related to the logger package
var (
	subLoggers = map[string]*SubLogger{}

	Global     *SubLogger
	BackTester *SubLogger
	Setup      *SubLogger
	Strategy   *SubLogger
	Exchange   *SubLogger
	Portfolio  *SubLogger
	Data       *SubLogger
	Report     *SubLogger
	Journal    *SubLogger
)
