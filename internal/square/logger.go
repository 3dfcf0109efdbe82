package square

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// leveledLogger routes retryablehttp's internal logging into zerolog at debug level.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { emit(log.Debug(), msg, kv) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { emit(log.Debug(), msg, kv) }
func (leveledLogger) Info(msg string, kv ...interface{})  { emit(log.Debug(), msg, kv) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { emit(log.Debug(), msg, kv) }

func emit(ev *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg("retryablehttp: " + msg)
}
