package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when trying to parse an environment variable
	// into an unsupported Go type.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var (
	envConfigType = reflect.TypeOf(EnvConfig{})
	durationType  = reflect.TypeOf(time.Duration(0))
)

// EnvConfig is embedded in configuration structs to mark them as parseable.
// It remembers the namespace the struct was parsed with.
type EnvConfig struct {
	namespace string
}

// Namespace returns the prefix the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

// Parse fills cfg from environment variables.
//
// Fields are bound with `env:"NAME"` tags and may carry a `default:"..."`. Nested structs
// contribute their `envPrefix` tag to the names below them. A variable is looked up under
// the full namespace first and then under each shorter namespace, so with namespace
// "APP_SVC" the field HTTP_ADDR resolves APP_SVC_HTTP_ADDR, then APP_HTTP_ADDR. Supported kinds are string, bool, ints, time.Duration and []string (comma
// separated).
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := embeddedEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	return parseStruct(candidateNames(namespace), "", reflect.ValueOf(cfg).Elem())
}

func embeddedEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		if field.Anonymous && field.Type == envConfigType {
			//nolint:forcetypeassert
			return v.Field(i).Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// candidateNames returns the namespace prefixes to try, most specific first.
func candidateNames(namespace string) []string {
	if namespace == "" {
		return []string{""}
	}

	parts := strings.Split(namespace, "_")
	prefixes := make([]string, 0, len(parts)+1)

	for i := len(parts); i > 0; i-- {
		prefixes = append(prefixes, strings.Join(parts[:i], "_")+"_")
	}

	return prefixes
}

func parseStruct(namespaces []string, prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		value := v.Field(i)

		if field.Type == envConfigType || !value.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := parseStruct(namespaces, prefix+field.Tag.Get("envPrefix"), value); err != nil {
				return err
			}

			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}

		raw, err := lookup(namespaces, prefix+name, field)
		if err != nil {
			return fmt.Errorf("parse field: %w", err)
		}

		if err := setValue(value, raw); err != nil {
			return fmt.Errorf("parse field: %s: %w", prefix+name, err)
		}
	}

	return nil
}

func lookup(namespaces []string, name string, field reflect.StructField) (string, error) {
	for _, ns := range namespaces {
		if raw, ok := os.LookupEnv(ns + name); ok {
			return raw, nil
		}
	}

	if def, ok := field.Tag.Lookup("default"); ok {
		return def, nil
	}

	return "", fmt.Errorf("%w: %s", ErrVarNotSet, name)
}

//nolint:exhaustive
func setValue(v reflect.Value, raw string) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		v.SetInt(int64(d))

		return nil
	}

	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid int: %w", err)
		}

		v.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool: %w", err)
		}

		v.SetBool(b)
	case reflect.Slice:
		if v.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w: %v", ErrUnsupportedVarType, v.Type())
		}

		v.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedVarType, v.Type())
	}

	return nil
}

func splitList(raw string) []string {
	items := []string{}

	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}
