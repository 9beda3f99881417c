package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// config holds the serve command configuration. Flags override file values.
type config struct {
	Schema struct {
		// Root is the directory scanned recursively for .graphql SDL files.
		Root          string `yaml:"root"`
		Introspection bool   `yaml:"introspection"`
	} `yaml:"schema"`
	Server struct {
		Addr            string        `yaml:"addr"`
		Pretty          bool          `yaml:"pretty"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
		MetadataHeaders []string      `yaml:"metadataHeaders"`
		CORSOrigins     []string      `yaml:"corsOrigins"`
		GraphiQL        bool          `yaml:"graphiql"`
	} `yaml:"server"`
	Otel struct {
		Endpoint string `yaml:"endpoint"`
		Service  string `yaml:"service"`
	} `yaml:"otel"`
}

func defaultConfig() config {
	var c config
	c.Schema.Root = "."
	c.Schema.Introspection = true
	c.Server.Addr = ":8080"
	c.Server.Timeout = 10 * time.Second
	c.Server.GraphiQL = true
	c.Otel.Service = "gqlbridge"
	return c
}

// loadConfig reads a YAML config file into the defaults. An empty path keeps
// the defaults.
func loadConfig(path string) (config, error) {
	c := defaultConfig()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	return c, nil
}

// loadSDL reads every .graphql file under root, sorted by path for
// deterministic merging.
func loadSDL(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".graphql") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .graphql files under %s", root)
	}
	sort.Strings(paths)
	sources := make([]string, len(paths))
	for i, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		sources[i] = string(data)
	}
	return sources, nil
}
