// Package config loads the client configuration from file, environment and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/and161185/studyflow/internal/state"
)

// Keys understood in .studyflow.yaml and as STUDYFLOW_<KEY> variables.
const (
	KeyAddr      = "addr"
	KeyCACert    = "cacert"
	KeyInsecure  = "insecure"
	KeyPlaintext = "plaintext"
	KeyStateDir  = "state_dir"
	KeyTimeout   = "timeout"

	EnvPrefix = "STUDYFLOW"

	// ConfigPathEnv points at an extra directory searched for .studyflow.yaml.
	ConfigPathEnv = "STUDYFLOW_CONFIG_PATH"
)

// Client is the resolved client configuration.
type Client struct {
	Addr      string
	CACert    string
	Insecure  bool
	Plaintext bool
	StateDir  string
	Timeout   time.Duration
}

// New returns a viper instance with defaults, search paths and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyAddr, "localhost:8443")
	v.SetDefault(KeyStateDir, state.DefaultDir)
	v.SetDefault(KeyTimeout, 30*time.Second)

	v.SetConfigName(".studyflow")
	v.SetConfigType("yaml")
	if override := os.Getenv(ConfigPathEnv); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and resolves the values. A missing file is fine.
func Load(v *viper.Viper) (Client, error) {
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return Client{}, fmt.Errorf("read config: %w", err)
		}
	}
	c := Client{
		Addr:      v.GetString(KeyAddr),
		CACert:    v.GetString(KeyCACert),
		Insecure:  v.GetBool(KeyInsecure),
		Plaintext: v.GetBool(KeyPlaintext),
		StateDir:  v.GetString(KeyStateDir),
		Timeout:   v.GetDuration(KeyTimeout),
	}
	if c.Addr == "" {
		return Client{}, errors.New("addr is empty")
	}
	if c.Insecure && c.Plaintext {
		return Client{}, errors.New("insecure and plaintext are mutually exclusive")
	}
	if c.CACert != "" {
		p, err := homedir.Expand(c.CACert)
		if err != nil {
			return Client{}, fmt.Errorf("cacert: %w", err)
		}
		c.CACert = p
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c, nil
}
