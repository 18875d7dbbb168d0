package config

import (
	"context"
	"reflect"
	"strings"

	"github.com/Temutjin2k/tracker-admin/pkg/logger"
)

const masked = "********"

// PrintConfig logs the effective configuration. Secrets are masked.
func PrintConfig(ctx context.Context, cfg *Config, log logger.Logger) {
	args := []any{"mode", string(cfg.Mode)}
	v := reflect.ValueOf(*cfg)
	for i := range v.NumField() {
		f := v.Type().Field(i)
		if f.Type.Kind() != reflect.Struct {
			continue
		}
		args = append(args, f.Name, section(v.Field(i)))
	}
	log.Info(ctx, "configuration loaded", args...)
}

func section(v reflect.Value) map[string]any {
	out := make(map[string]any, v.NumField())
	for i := range v.NumField() {
		f := v.Type().Field(i)
		key := f.Tag.Get("env")
		if key == "" {
			key = f.Name
		}
		out[key] = maskValue(key, v.Field(i).Interface())
	}
	return out
}

func maskValue(key string, value any) any {
	if !isSecret(key) {
		return value
	}
	if s, ok := value.(string); ok && s == "" {
		return ""
	}
	return masked
}

func isSecret(key string) bool {
	k := strings.ToUpper(key)
	for _, marker := range []string{"PASSWORD", "SECRET", "TOKEN", "API_KEY"} {
		if strings.Contains(k, marker) && !strings.HasSuffix(k, "_TTL") {
			return true
		}
	}
	return false
}
