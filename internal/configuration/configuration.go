// Package configuration reads the settings of a queue endpoint from
// environment-style configuration files and the process environment.
package configuration

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strconv"

	"github.com/desertwitch/sysvmq/internal/ipckey"
	"github.com/desertwitch/sysvmq/internal/mq"
)

const (
	SettingPath       = "SYSVMQ_PATH"
	SettingProjectID  = "SYSVMQ_PROJECT_ID"
	SettingKey        = "SYSVMQ_KEY"
	SettingPermission = "SYSVMQ_PERMISSION"
	SettingMaxPayload = "SYSVMQ_MAX_PAYLOAD"
	SettingType       = "SYSVMQ_TYPE"
)

const (
	DefaultPath      = "."
	DefaultProjectID = 255
	DefaultType      = 21
)

// Settings lists all known configuration keys.
var Settings = []string{
	SettingPath,
	SettingProjectID,
	SettingKey,
	SettingPermission,
	SettingMaxPayload,
	SettingType,
}

// ErrInvalidSetting occurs when a configured value cannot be parsed.
var ErrInvalidSetting = errors.New("invalid setting")

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

type envProvider interface {
	LookupEnv(key string) (string, bool)
}

// Config is the configuration of a queue endpoint.
type Config struct {
	// Path and ProjectID derive the key, unless Key is set explicitly.
	Path      string
	ProjectID int
	Key       ipckey.Key

	Permission mq.Permission
	MaxPayload int
	Type       int64
}

// Default returns a pointer to a new [Config] holding the defaults.
func Default() *Config {
	return &Config{
		Path:       DefaultPath,
		ProjectID:  DefaultProjectID,
		Key:        ipckey.Invalid,
		Permission: mq.DefaultPermission,
		MaxPayload: mq.DefaultMaxPayload,
		Type:       DefaultType,
	}
}

// QueueKey returns the explicitly configured key, or otherwise the key
// derived from the path and project identifier.
func (c *Config) QueueKey() ipckey.Key {
	if c.Key.Valid() {
		return c.Key
	}

	return ipckey.Derive(c.Path, c.ProjectID)
}

// Handler is the principal implementation for the configuration services.
type Handler struct {
	GenericConfigReader genericConfigProvider
	EnvReader           envProvider
}

// NewHandler returns a pointer to a new configuration [Handler].
func NewHandler(genericConfigReader genericConfigProvider, envReader envProvider) *Handler {
	return &Handler{
		GenericConfigReader: genericConfigReader,
		EnvReader:           envReader,
	}
}

// ReadGeneric reads generic Unix-type configuration files into a map.
func (c *Handler) ReadGeneric(filenames ...string) (map[string]string, error) {
	return c.GenericConfigReader.Read(filenames...)
}

// Load builds a [Config] from the defaults, overridden by the given files,
// which are in turn overridden by the process environment.
func (c *Handler) Load(filenames ...string) (*Config, error) {
	envMap := make(map[string]string)

	if len(filenames) > 0 {
		fileMap, err := c.ReadGeneric(filenames...)
		if err != nil {
			return nil, fmt.Errorf("(config) failed to read config: %w", err)
		}
		maps.Copy(envMap, fileMap)
	}

	for _, key := range Settings {
		if value, ok := c.EnvReader.LookupEnv(key); ok {
			envMap[key] = value
		}
	}

	return c.Parse(envMap)
}

// Parse builds a [Config] from the defaults, overridden by the values of a
// configuration map. Numeric values that fail to parse map to -1 and are left
// for validation to reject.
func (c *Handler) Parse(envMap map[string]string) (*Config, error) {
	config := Default()

	if _, ok := envMap[SettingPath]; ok {
		config.Path = c.MapKeyToString(envMap, SettingPath)
	}

	if _, ok := envMap[SettingProjectID]; ok {
		config.ProjectID = c.MapKeyToInt(envMap, SettingProjectID)
	}

	if _, ok := envMap[SettingMaxPayload]; ok {
		config.MaxPayload = c.MapKeyToInt(envMap, SettingMaxPayload)
	}

	if _, ok := envMap[SettingType]; ok {
		config.Type = c.MapKeyToInt64(envMap, SettingType)
	}

	if value := c.MapKeyToString(envMap, SettingPermission); value != "" {
		perm, err := mq.ParsePermission(value)
		if err != nil {
			return nil, fmt.Errorf("(config) %w: %s: %w", ErrInvalidSetting, SettingPermission, err)
		}
		config.Permission = perm
	}

	if value := c.MapKeyToString(envMap, SettingKey); value != "" {
		key, err := ipckey.ParseKey(value)
		if err != nil {
			return nil, fmt.Errorf("(config) %w: %s: %w", ErrInvalidSetting, SettingKey, err)
		}
		config.Key = key
	}

	return config, nil
}

func (c *Handler) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return value
	}

	return ""
}

func (c *Handler) MapKeyToInt(envMap map[string]string, key string) int {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}

	return intValue
}

func (c *Handler) MapKeyToInt64(envMap map[string]string, key string) int64 {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return -1
	}

	return intValue
}

// OS is an implementation wrapping the process environment.
type OS struct{}

// LookupEnv wraps around [os.LookupEnv].
func (*OS) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}
