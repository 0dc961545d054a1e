package log

// SubLogger tags log output with the name of the subsystem that wrote it
type SubLogger struct {
	name string
}

// Subsystem loggers
var (
	Global       = NewSubLogger("GLOBAL")
	ConfigMgr    = NewSubLogger("CONFIG")
	BrokerSys    = NewSubLogger("BROKER")
	SchemeMgr    = NewSubLogger("SCHEME")
	DatabaseMgr  = NewSubLogger("DATABASE")
	APIServerMgr = NewSubLogger("API")
	MetricsMgr   = NewSubLogger("METRICS")
)

// NewSubLogger returns a subsystem logger with the supplied name
func NewSubLogger(name string) *SubLogger {
	return &SubLogger{name: name}
}

// Name returns the subsystem name
func (s *SubLogger) Name() string {
	return s.name
}
