package cmds

import (
	"io"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/logging"
)

func init() {
	setupZerolog()
}

// setupZerolog sets the short field names and UTC timestamps.
func setupZerolog() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.LevelFieldName = "l"
	zerolog.TimestampFieldName = "t"
	zerolog.MessageFieldName = "m"
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	zerolog.InterfaceMarshalFunc = util.JSONMarshal
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	zerolog.DisableSampling(true)
}

const (
	LogFormatJSON     LogFormat = "json"
	LogFormatTerminal LogFormat = "terminal"
)

var LogVars = kong.Vars{
	"log_level":  "error",
	"log_format": string(LogFormatTerminal),
	"log_color":  "false",
}

// LogFlags also can be set by environment variables, like
// "VOTEBOX_LOG_LEVEL=debug".
type LogFlags struct {
	LogColor  bool      `name:"log-color" env:"VOTEBOX_LOG_COLOR" help:"force color log" default:"${log_color}"`
	LogLevel  LogLevel  `name:"log-level" env:"VOTEBOX_LOG_LEVEL" help:"log level {trace debug info warn error disabled} (default: ${log_level})" default:"${log_level}"` // revive:disable-line:line-length-limit
	LogFormat LogFormat `name:"log-format" env:"VOTEBOX_LOG_FORMAT" help:"log format {json terminal} (default: ${log_format})" default:"${log_format}"` // revive:disable-line:line-length-limit
	LogFile   []string  `name:"log" env:"VOTEBOX_LOG" help:"log file; logs go to stderr without it"`
}

type LogLevel zerolog.Level

func (ll LogLevel) Zero() zerolog.Level {
	return zerolog.Level(ll)
}

func (ll LogLevel) MarshalText() ([]byte, error) {
	return []byte(zerolog.Level(ll).String()), nil
}

func (ll *LogLevel) UnmarshalText(b []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(b)))
	if len(s) < 1 {
		return errors.Errorf("empty log level")
	}

	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return errors.Wrapf(err, "invalid log level, %q", s)
	}

	*ll = LogLevel(lvl)

	return nil
}

type LogFormat string

func (lf LogFormat) String() string {
	return string(lf)
}

func (lf *LogFormat) UnmarshalText(b []byte) error {
	switch s := LogFormat(strings.ToLower(strings.TrimSpace(string(b)))); s {
	case LogFormatJSON, LogFormatTerminal:
		*lf = s

		return nil
	default:
		return errors.Errorf("invalid log format, %q", s)
	}
}

// SetupLoggingFromFlags writes logs to the log files if given, or to
// defaultout.
func SetupLoggingFromFlags(flags *LogFlags, defaultout io.Writer) (*logging.Logging, error) {
	output := defaultout

	if len(flags.LogFile) > 0 {
		i, err := logging.Outputs(flags.LogFile)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open log files")
		}

		output = i
	}

	return logging.Setup(
		output,
		flags.LogLevel.Zero(),
		flags.LogFormat.String(),
		flags.LogColor,
	), nil
}
