// Package config loads and validates the settings of a bus factor run from
// flags, environment variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/naka-gawa/github-busfactor/internal/domain"
	"github.com/naka-gawa/github-busfactor/internal/gateway"
	"github.com/naka-gawa/github-busfactor/internal/output"
)

// EnvPrefix prefixes every environment variable read by the application.
const EnvPrefix = "BUSFACTOR"

// Keys shared by flags, environment variables and the config file.
const (
	KeyLanguage           = "language"
	KeyProjectCount       = "project-count"
	KeySort               = "sort"
	KeyAPIToken           = "api-token"
	KeyAPIURL             = "api-url"
	KeyThreshold          = "threshold"
	KeyMaxRepoRequests    = "max-repo-req"
	KeyMaxContribRequests = "max-contrib-req"
	KeyRequestsPerSecond  = "rps"
	KeyCache              = "cache"
	KeyOutput             = "output"
	KeyVerbose            = "verbose"
)

// Config holds the validated settings of one run.
type Config struct {
	Language           string
	ProjectCount       int
	Sort               domain.Sort
	APIToken           string
	APIURL             string
	Threshold          float64
	MaxRepoRequests    int
	MaxContribRequests int
	RequestsPerSecond  float64
	Cache              bool
	Output             output.Format
	Verbose            bool
}

// SetDefaults registers default values and environment bindings on v.
// The token is also read from GITHUB_TOKEN.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeySort, domain.SortStars.String())
	v.SetDefault(KeyAPIURL, gateway.DefaultAPIURL)
	v.SetDefault(KeyThreshold, 0.75)
	v.SetDefault(KeyMaxRepoRequests, 1)
	v.SetDefault(KeyMaxContribRequests, 10)
	v.SetDefault(KeyRequestsPerSecond, 0.0)
	v.SetDefault(KeyOutput, string(output.FormatTable))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyAPIToken, EnvPrefix+"_API_TOKEN", "GITHUB_TOKEN")
}

// BindFlags binds every flag of fs to the key of the same name.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	return v.BindPFlags(fs)
}

// ReadFile merges the YAML config file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return domain.ConfigError("read config file", err)
	}
	return nil
}

// Load reads a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := read(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConnection reads a Config from v and validates only the settings
// needed to talk to GitHub and print, ignoring the calculation fields.
func LoadConnection(v *viper.Viper) (*Config, error) {
	cfg, err := read(v)
	if err != nil {
		return nil, err
	}
	if err := validateAPIURL(cfg.APIURL); err != nil {
		return nil, domain.ConfigError("validate config", err)
	}
	return cfg, nil
}

func read(v *viper.Viper) (*Config, error) {
	sort, err := domain.ParseSort(v.GetString(KeySort))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Language:           strings.TrimSpace(v.GetString(KeyLanguage)),
		ProjectCount:       v.GetInt(KeyProjectCount),
		Sort:               sort,
		APIToken:           v.GetString(KeyAPIToken),
		APIURL:             v.GetString(KeyAPIURL),
		Threshold:          v.GetFloat64(KeyThreshold),
		MaxRepoRequests:    v.GetInt(KeyMaxRepoRequests),
		MaxContribRequests: v.GetInt(KeyMaxContribRequests),
		RequestsPerSecond:  v.GetFloat64(KeyRequestsPerSecond),
		Cache:              v.GetBool(KeyCache),
		Verbose:            v.GetBool(KeyVerbose),
	}
	format, err := output.ParseFormat(v.GetString(KeyOutput))
	if err != nil {
		return nil, domain.ConfigError("validate config", err)
	}
	cfg.Output = format
	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Language == "" {
		errs = append(errs, errors.New("language is required"))
	}
	if c.ProjectCount < 1 || c.ProjectCount > gateway.MaxSearchResults {
		errs = append(errs, fmt.Errorf("%s is not in range 1 .. %d, got %d", KeyProjectCount, gateway.MaxSearchResults, c.ProjectCount))
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("%s is not in range 0 .. 1, got %v", KeyThreshold, c.Threshold))
	}
	if c.MaxRepoRequests < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyMaxRepoRequests, c.MaxRepoRequests))
	}
	if c.MaxContribRequests < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyMaxContribRequests, c.MaxContribRequests))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %v", KeyRequestsPerSecond, c.RequestsPerSecond))
	}
	if _, err := output.ParseFormat(string(c.Output)); err != nil {
		errs = append(errs, err)
	}
	if err := validateAPIURL(c.APIURL); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return domain.ConfigError("validate config", errors.Join(errs...))
	}
	return nil
}

func validateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", KeyAPIURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute http(s) URL", KeyAPIURL, raw)
	}
	return nil
}

// GatewayOptions returns the HTTP settings of the GitHub gateway.
func (c *Config) GatewayOptions() gateway.Options {
	return gateway.Options{
		Token:  c.APIToken,
		APIURL: c.APIURL,
		Cache:  c.Cache,
	}
}
