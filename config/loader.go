package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file operations the loader performs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem is the FileSystem backed by the real disk.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadEnv loads a .env file. Variables already set in the process win.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// ResolvedFiles are the files LoadConfig read. Empty means none was used.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

type loaderConfig struct {
	fs         FileSystem
	configFile string
	envFile    string
	aliases    map[string][]string
}

// LoaderOption configures LoadConfig.
type LoaderOption func(*loaderConfig)

// WithFileSystem replaces the disk, for tests.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *loaderConfig) { lc.fs = fs }
}

// WithConfigFile sets an explicit config file. It must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file. It must exist.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// WithEnvAlias makes key also readable from the given variables, checked
// after its UPPER_SNAKE name.
func WithEnvAlias(key string, envs ...string) LoaderOption {
	return func(lc *loaderConfig) {
		if lc.aliases == nil {
			lc.aliases = make(map[string][]string)
		}
		lc.aliases[key] = append(lc.aliases[key], envs...)
	}
}

// LoadConfig loads configuration for serviceName into cfg, a pointer to a
// struct with mapstructure tags. Precedence, lowest first: config file,
// .env file, process environment.
func LoadConfig(serviceName string, cfg interface{}, opts ...LoaderOption) (ResolvedFiles, error) {
	lc := loaderConfig{fs: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	files, err := resolveFiles(serviceName, lc)
	if err != nil {
		return files, err
	}

	v := viper.New()
	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return files, fmt.Errorf("read config file %s: %w", files.ConfigFile, err)
		}
	}
	if files.EnvFile != "" {
		if err := lc.fs.LoadEnv(files.EnvFile); err != nil {
			return files, fmt.Errorf("load env file %s: %w", files.EnvFile, err)
		}
	}

	for _, key := range Keys(cfg) {
		envs := append([]string{EnvName(key)}, lc.aliases[key]...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return files, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return files, fmt.Errorf("unmarshal config for service %s: %w", serviceName, err)
	}
	return files, nil
}

// resolveFiles honours explicit paths and otherwise searches the standard
// locations relative to the working directory.
func resolveFiles(serviceName string, lc loaderConfig) (ResolvedFiles, error) {
	var files ResolvedFiles

	if lc.configFile != "" {
		if !lc.fs.Exists(lc.configFile) {
			return files, fmt.Errorf("config file %s not found", lc.configFile)
		}
		files.ConfigFile = lc.configFile
	} else {
		files.ConfigFile = firstExisting(lc.fs, searchPaths(serviceName, "config.yml"))
	}

	if lc.envFile != "" {
		if !lc.fs.Exists(lc.envFile) {
			return files, fmt.Errorf("env file %s not found", lc.envFile)
		}
		files.EnvFile = lc.envFile
	} else {
		files.EnvFile = firstExisting(lc.fs, searchPaths(serviceName, ".env"))
	}
	return files, nil
}

// searchPaths lists candidate locations for name, most specific first.
func searchPaths(serviceName, name string) []string {
	var paths []string
	for _, up := range []string{".", "..", filepath.Join("..", "..")} {
		paths = append(paths, filepath.Join(up, "cmd", serviceName, name))
	}
	return append(paths, filepath.Join("config", name), name)
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// EnvName maps a dotted config key to its environment variable:
// auth.session_secret becomes AUTH_SESSION_SECRET.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Keys returns the dotted mapstructure keys of every leaf field in cfg.
// Fields tagged ",squash" contribute their keys at the parent level.
func Keys(cfg interface{}) []string {
	t := reflect.TypeOf(cfg)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return collectKeys(t, "")
}

func collectKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, squash := parseTag(f)
		if name == "-" {
			continue
		}

		ft := f.Type
		for ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}

		if ft.Kind() == reflect.Struct {
			next := prefix
			if !squash {
				next = join(prefix, name)
			}
			keys = append(keys, collectKeys(ft, next)...)
			continue
		}
		keys = append(keys, join(prefix, name))
	}
	return keys
}

func parseTag(f reflect.StructField) (name string, squash bool) {
	tag := f.Tag.Get("mapstructure")
	parts := strings.Split(tag, ",")
	name = parts[0]
	for _, p := range parts[1:] {
		if p == "squash" {
			squash = true
		}
	}
	if name == "" && !squash {
		name = strings.ToLower(f.Name)
	}
	return name, squash
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
