package configuration

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		bareSecondsHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// bareSecondsHookFunc returns a mapstructure decode hook that interprets
// plain numeric values targeting a time.Duration as seconds. The original
// config format expressed pollInterval as a bare number ("pollInterval: 2"),
// duration strings ("2s") keep working through the string hook.
func bareSecondsHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != durationType {
			return data, nil
		}

		switch v := data.(type) {
		case int:
			return time.Duration(v) * time.Second, nil
		case int64:
			return time.Duration(v) * time.Second, nil
		case float64:
			return time.Duration(v * float64(time.Second)), nil
		}
		return data, nil
	}
}
