package conf

type Level string

const (
	TraceLevel Level = "trace"
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

type Formatter string

const (
	JSONFormater    Formatter = "json"
	ConsoleFormater Formatter = "console"
)

type LogConfig struct {
	Level     Level     `json:"level" yaml:"level"`
	Formatter Formatter `json:"formatter" yaml:"formatter"`
}

func DefaultConfig() *LogConfig {
	return &LogConfig{
		Level:     InfoLevel,
		Formatter: ConsoleFormater,
	}
}
