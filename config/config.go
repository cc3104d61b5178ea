// Package config reads the list of repository endpoints the proxy resolves against.
//
// Two file formats are supported: a Java-style properties file (the format DSpace deployments already use for this setting), and a flat YAML mapping. In both, every key starting with [EndpointKeyPrefix] names one repository endpoint.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Keys starting with this string configure a repository endpoint, eg "dspace.handle.endpoint1".
const EndpointKeyPrefix = "dspace.handle.endpoint"

var ErrNoEndpoints = errors.New("no repository endpoints configured")

type Config struct {
	// Config file the endpoints were read from, if any.
	Path string
	// Repository endpoints, in registry-conflict order: file endpoints sorted by key, then extra endpoints in the order given. De-duplicated, trailing slashes trimmed.
	Endpoints []string
}

// Builds a Config from an optional config file and any number of extra endpoints (eg, from command-line flags).
//
// An empty path skips the file. A file which can not be read or parsed is an error. If no endpoints are found at all, returns ErrNoEndpoints.
func Load(path string, extra []string) (*Config, error) {
	cfg := &Config{Path: path}
	var all []string
	if path != "" {
		props, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, EndpointsFromProperties(props)...)
	}
	all = append(all, extra...)
	cfg.Endpoints = cleanEndpoints(all)
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	return cfg, nil
}

// Reads a config file into a flat key/value map. Files named "*.yaml" or "*.yml" are parsed as YAML; anything else as properties.
func ReadFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	var props map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		props, err = ParseYAML(f)
	default:
		props, err = ParseProperties(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return props, nil
}

// Parses a Java properties file: "key=value", "key: value" or "key value" lines, '#' and '!' comments, backslash escapes and line continuations.
func ParseProperties(r io.Reader) (map[string]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p, err := properties.Load(b, properties.UTF8)
	if err != nil {
		return nil, err
	}
	return p.Map(), nil
}

// Parses a flat YAML mapping of string keys to scalar values.
func ParseYAML(r io.Reader) (map[string]string, error) {
	props := map[string]string{}
	if err := yaml.NewDecoder(r).Decode(&props); err != nil {
		// empty document
		if errors.Is(err, io.EOF) {
			return props, nil
		}
		return nil, err
	}
	return props, nil
}

// Returns the values of all endpoint keys, ordered by key.
func EndpointsFromProperties(props map[string]string) []string {
	keys := []string{}
	for k := range props {
		if strings.HasPrefix(k, EndpointKeyPrefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, props[k])
	}
	return out
}

func cleanEndpoints(raw []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, e := range raw {
		e = strings.TrimRight(strings.TrimSpace(e), "/")
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
