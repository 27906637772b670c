package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ssrkit/ssrkit/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "ssrkit.yaml"

	// DefaultHost is the host every mode binds to unless overridden.
	DefaultHost = "localhost"

	// DefaultDist is the directory holding the browser bundle and manifests.
	DefaultDist = "dist"

	// DefaultGraphQLEndpoint is the path of the in-process GraphQL server.
	DefaultGraphQLEndpoint = "/graphql"

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the runtime configuration of an ssrkit server.
type Config struct {
	// Mode selects environment variables, defaults and asset resolution.
	Mode Mode `yaml:"mode,omitempty"`

	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// SSLPort starts an HTTPS listener next to the plain one when set.
	SSLPort int `yaml:"ssl_port,omitempty"`

	TLS TLSConfig `yaml:"tls,omitempty"`

	// Dist is the directory holding manifest.json and chunk-manifest.json.
	Dist string `yaml:"dist,omitempty"`

	Static  StaticConfig  `yaml:"static,omitempty"`
	GraphQL GraphQLConfig `yaml:"graphql,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Dev     DevConfig     `yaml:"dev,omitempty"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// TLSConfig contains HTTPS settings.
type TLSConfig struct {
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`

	// ForceSSL redirects plain HTTP requests to the HTTPS listener.
	ForceSSL bool `yaml:"force_ssl,omitempty"`

	// DisableHTTP serves HTTPS only.
	DisableHTTP bool `yaml:"disable_http,omitempty"`
}

// StaticConfig contains static file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing static files. Production mode serves
	// the dist directory when Dir is empty.
	Dir string `yaml:"dir,omitempty"`

	// Prefix is the URL prefix for static files (default: "/").
	Prefix string `yaml:"prefix,omitempty"`

	// S3 serves static files from a bucket instead of Dir.
	S3 S3Config `yaml:"s3,omitempty"`
}

// S3Config locates static files in an S3-compatible bucket.
type S3Config struct {
	Bucket   string `yaml:"bucket,omitempty"`
	Region   string `yaml:"region,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`

	// PathStyle addresses the bucket as endpoint/bucket/key, as MinIO needs.
	PathStyle bool `yaml:"path_style,omitempty"`
}

// Enabled reports whether a bucket is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// GraphQLConfig contains GraphQL client and server settings.
type GraphQLConfig struct {
	// Endpoint is the path the in-process GraphQL server is mounted on.
	Endpoint string `yaml:"endpoint,omitempty"`

	// URL sends operations to a remote GraphQL server instead.
	URL string `yaml:"url,omitempty"`

	// GraphiQL serves the explorer page on GET requests (default: true in
	// development modes).
	GraphiQL *bool `yaml:"graphiql,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Reload enables the live-reload websocket and file watcher.
	Reload bool `yaml:"reload,omitempty"`

	// Watch contains paths to watch for changes.
	Watch []string `yaml:"watch,omitempty"`

	// Ignore contains patterns to ignore during watch.
	Ignore []string `yaml:"ignore,omitempty"`

	// Debounce coalesces bursts of file events.
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// New creates a Config with default values for mode. Host and port are
// resolved by ApplyEnv.
func New() *Config {
	return &Config{
		Mode: ModeServerDev,
		Dist: DefaultDist,
		Static: StaticConfig{
			Prefix: "/",
		},
		GraphQL: GraphQLConfig{
			Endpoint: DefaultGraphQLEndpoint,
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
		Dev: DevConfig{
			Reload:   true,
			Watch:    []string{"dist", "public"},
			Debounce: 100 * time.Millisecond,
		},
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Load reads ssrkit.yaml from dir. A missing file is not an error; the
// defaults are returned instead.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	cfg, err := LoadFile(path)
	if err != nil {
		var ke *errors.KitError
		if stderrors.As(err, &ke) && ke.Code == "E100" {
			return New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No " + filepath.Base(path) + " found in " + filepath.Dir(path)).
				WithSuggestion("Run 'ssrkit init' to write a default configuration")
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithLocationFromYAML(path, err).
			WithSuggestion("Check the indentation and the value types in " + filepath.Base(path)).
			Wrap(err)
	}

	cfg.configPath = path
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E101").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E101").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides host and ports from the environment variables of the
// current mode, then fills the mode defaults for anything still unset.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := c.Mode.Validate(); err != nil {
		return err
	}
	vars := c.Mode.env()

	if v, ok := lookup(vars.host); ok && v != "" {
		c.Host = v
	}
	if v, ok := lookup(vars.port); ok && v != "" {
		port, err := parsePort(vars.port, v)
		if err != nil {
			return err
		}
		c.Port = port
	}
	if v, ok := lookup("SSL_PORT"); ok && v != "" {
		port, err := parsePort("SSL_PORT", v)
		if err != nil {
			return err
		}
		c.SSLPort = port
	}

	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = vars.defaultPort
	}
	if c.GraphQL.GraphiQL == nil {
		on := c.Mode.IsDev()
		c.GraphQL.GraphiQL = &on
	}
	return nil
}

func parsePort(name, value string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("E103").
			WithDetail(fmt.Sprintf("%s=%q is not a number.", name, value)).
			WithSuggestion(fmt.Sprintf("Set %s to an integer such as 4000", name))
	}
	return port, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Mode.Validate(); err != nil {
		return err
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("E103").
			WithDetail(fmt.Sprintf("port %d is outside 1-65535.", c.Port))
	}
	if c.SSLPort < 0 || c.SSLPort > 65535 {
		return errors.New("E103").
			WithDetail(fmt.Sprintf("ssl_port %d is outside 1-65535.", c.SSLPort))
	}

	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return errors.New("E104").
			WithSuggestion("Set both tls.cert_file and tls.key_file").
			WithExample("tls:\n  cert_file: certs/server.crt\n  key_file: certs/server.key")
	}
	if c.SSLPort > 0 && c.TLS.CertFile == "" {
		return errors.New("E104").
			WithDetail("SSL_PORT is set but no certificate is configured.").
			WithSuggestion("Set tls.cert_file and tls.key_file, or unset SSL_PORT")
	}
	for _, file := range []string{c.TLS.CertFile, c.TLS.KeyFile} {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			return errors.New("E105").WithDetail(file + " does not exist.").Wrap(err)
		}
	}
	if (c.TLS.DisableHTTP || c.TLS.ForceSSL) && c.SSLPort == 0 {
		return errors.New("E106").
			WithSuggestion("Set SSL_PORT together with tls.disable_http or tls.force_ssl")
	}

	if c.Static.S3.Enabled() && c.Static.S3.Region == "" {
		return errors.New("E107").
			WithDetail("static.s3.bucket is " + strconv.Quote(c.Static.S3.Bucket) + " but static.s3.region is empty.").
			WithExample("static:\n  s3:\n    bucket: my-assets\n    region: eu-west-1")
	}
	return nil
}

// Addr returns the address of the plain HTTP listener.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// TLSAddr returns the address of the HTTPS listener, or "" when HTTPS is off.
func (c *Config) TLSAddr() string {
	if c.SSLPort == 0 {
		return ""
	}
	return c.Host + ":" + strconv.Itoa(c.SSLPort)
}

// URL returns the public URL of the server.
func (c *Config) URL(allowSSL bool) string {
	return ServerURL(c.Host, c.Port, c.SSLPort, allowSSL)
}

// GraphiQLEnabled reports whether the explorer page is served.
func (c *Config) GraphiQLEnabled() bool {
	return c.GraphQL.GraphiQL != nil && *c.GraphQL.GraphiQL
}

// DistPath returns the dist directory relative to the config file.
func (c *Config) DistPath() string {
	return c.resolve(c.Dist)
}

// StaticPath returns the directory static files are served from.
func (c *Config) StaticPath() string {
	if c.Static.Dir != "" {
		return c.resolve(c.Static.Dir)
	}
	if c.Mode == ModeServerProd {
		return c.DistPath()
	}
	return ""
}

// WatchPaths returns the live-reload watch paths relative to the config file.
func (c *Config) WatchPaths() []string {
	paths := make([]string, 0, len(c.Dev.Watch))
	for _, p := range c.Dev.Watch {
		paths = append(paths, c.resolve(p))
	}
	return paths
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
