package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// fileConfig is the on-disk schema. Every field is optional; unset fields
// keep the value from the previous layer.
type fileConfig struct {
	LogLevel  *string         `toml:"log_level" hcl:"log_level,optional"`
	Server    *serverBlock    `toml:"server" hcl:"server,block"`
	Model     *modelBlock     `toml:"model" hcl:"model,block"`
	Sampling  *samplingBlock  `toml:"sampling" hcl:"sampling,block"`
	Formatter *formatterBlock `toml:"formatter" hcl:"formatter,block"`
	Cache     *cacheBlock     `toml:"cache" hcl:"cache,block"`
	Jobs      *jobsBlock      `toml:"jobs" hcl:"jobs,block"`
	Store     *storeBlock     `toml:"store" hcl:"store,block"`
	Artifacts *artifactsBlock `toml:"artifacts" hcl:"artifacts,block"`
}

type serverBlock struct {
	Host           *string `toml:"host" hcl:"host,optional"`
	Port           *int    `toml:"port" hcl:"port,optional"`
	ReadTimeout    *string `toml:"read_timeout" hcl:"read_timeout,optional"`
	WriteTimeout   *string `toml:"write_timeout" hcl:"write_timeout,optional"`
	RequestTimeout *string `toml:"request_timeout" hcl:"request_timeout,optional"`
}

type modelBlock struct {
	Backend *string `toml:"backend" hcl:"backend,optional"`
	Name    *string `toml:"name" hcl:"name,optional"`
	BaseURL *string `toml:"base_url" hcl:"base_url,optional"`
	APIKey  *string `toml:"api_key" hcl:"api_key,optional"`
	Timeout *string `toml:"timeout" hcl:"timeout,optional"`
}

type samplingBlock struct {
	MaxTokens   *int     `toml:"max_tokens" hcl:"max_tokens,optional"`
	Temperature *float64 `toml:"temperature" hcl:"temperature,optional"`
	TopP        *float64 `toml:"top_p" hcl:"top_p,optional"`
}

type formatterBlock struct {
	Enabled  *bool               `toml:"enabled" hcl:"enabled,optional"`
	Timeout  *string             `toml:"timeout" hcl:"timeout,optional"`
	Commands map[string][]string `toml:"commands" hcl:"commands,optional"`
}

type cacheBlock struct {
	TTL      *string `toml:"ttl" hcl:"ttl,optional"`
	Capacity *int    `toml:"capacity" hcl:"capacity,optional"`
}

type jobsBlock struct {
	PollInterval *string `toml:"poll_interval" hcl:"poll_interval,optional"`
	Timeout      *string `toml:"timeout" hcl:"timeout,optional"`
}

type storeBlock struct {
	Driver        *string `toml:"driver" hcl:"driver,optional"`
	SQLitePath    *string `toml:"sqlite_path" hcl:"sqlite_path,optional"`
	MongoURI      *string `toml:"mongo_uri" hcl:"mongo_uri,optional"`
	MongoDatabase *string `toml:"mongo_database" hcl:"mongo_database,optional"`
}

type artifactsBlock struct {
	Dir *string `toml:"dir" hcl:"dir,optional"`
}

func decodeFile(path string) (*fileConfig, error) {
	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.DecodeFile(path, &fc)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode %s: unknown keys %v", path, undecoded)
		}
	case ".hcl", ".json":
		if err := hclsimple.DecodeFile(path, nil, &fc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.LogLevel, fc.LogLevel)

	if s := fc.Server; s != nil {
		setString(&cfg.Server.Host, s.Host)
		if s.Port != nil {
			cfg.Server.Port = *s.Port
		}
		if err := setDuration(&cfg.Server.ReadTimeout, s.ReadTimeout, "server.read_timeout"); err != nil {
			return err
		}
		if err := setDuration(&cfg.Server.WriteTimeout, s.WriteTimeout, "server.write_timeout"); err != nil {
			return err
		}
		if err := setDuration(&cfg.Server.RequestTimeout, s.RequestTimeout, "server.request_timeout"); err != nil {
			return err
		}
	}

	if m := fc.Model; m != nil {
		setString(&cfg.Model.Backend, m.Backend)
		setString(&cfg.Model.Name, m.Name)
		setString(&cfg.Model.BaseURL, m.BaseURL)
		setString(&cfg.Model.APIKey, m.APIKey)
		if err := setDuration(&cfg.Model.Timeout, m.Timeout, "model.timeout"); err != nil {
			return err
		}
	}

	if s := fc.Sampling; s != nil {
		if s.MaxTokens != nil {
			cfg.Sampling.MaxTokens = *s.MaxTokens
		}
		if s.Temperature != nil {
			cfg.Sampling.Temperature = *s.Temperature
		}
		if s.TopP != nil {
			cfg.Sampling.TopP = *s.TopP
		}
	}

	if f := fc.Formatter; f != nil {
		if f.Enabled != nil {
			cfg.Formatter.Enabled = *f.Enabled
		}
		if err := setDuration(&cfg.Formatter.Timeout, f.Timeout, "formatter.timeout"); err != nil {
			return err
		}
		if f.Commands != nil {
			cfg.Formatter.Commands = f.Commands
		}
	}

	if c := fc.Cache; c != nil {
		if err := setDuration(&cfg.Cache.TTL, c.TTL, "cache.ttl"); err != nil {
			return err
		}
		if c.Capacity != nil {
			if *c.Capacity < 0 {
				return fmt.Errorf("cache.capacity must not be negative")
			}
			cfg.Cache.Capacity = uint64(*c.Capacity)
		}
	}

	if j := fc.Jobs; j != nil {
		if err := setDuration(&cfg.Jobs.PollInterval, j.PollInterval, "jobs.poll_interval"); err != nil {
			return err
		}
		if err := setDuration(&cfg.Jobs.Timeout, j.Timeout, "jobs.timeout"); err != nil {
			return err
		}
	}

	if s := fc.Store; s != nil {
		setString(&cfg.Store.Driver, s.Driver)
		setString(&cfg.Store.SQLitePath, s.SQLitePath)
		setString(&cfg.Store.Mongo.URI, s.MongoURI)
		setString(&cfg.Store.Mongo.Database, s.MongoDatabase)
	}

	if a := fc.Artifacts; a != nil {
		setString(&cfg.FileRepo.ArtifactDir, a.Dir)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, key string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
