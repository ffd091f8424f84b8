// Package config reads the optional peregrine configuration file, which
// supplies defaults for command-line flags.
//
// The file is YAML and uses the flag names as keys:
//
//	toolchain: /usr/bin/swift
//	plain: true
//	show-times: true
//	longest-test-count: 10
//	swift-flags: ["--parallel"]
//
// A flag given on the command line always wins over the file.
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the configuration file looked up in the package
// directory.
const FileName = ".peregrine.yml"

// File is the content of a configuration file. Unset fields leave the
// corresponding flag alone.
type File struct {
	Toolchain             *string  `yaml:"toolchain"`
	Plain                 *bool    `yaml:"plain"`
	Quiet                 *bool    `yaml:"quiet"`
	KeepLogs              *bool    `yaml:"keep-logs"`
	LogLevel              *string  `yaml:"log-level"`
	Grammar               *string  `yaml:"grammar"`
	ShowTimes             *bool    `yaml:"show-times"`
	LongestTestCount      *int     `yaml:"longest-test-count"`
	LongTestOutputFormat  *string  `yaml:"long-test-output-format"`
	LongestTestOutputPath *string  `yaml:"longest-test-output-path"`
	JUnit                 *string  `yaml:"junit"`
	GroupBySuite          *bool    `yaml:"group-by-suite"`
	SwiftFlags            []string `yaml:"swift-flags"`
}

// Find returns the configuration file to use: explicit if it is not
// empty, otherwise FileName in packagePath if it exists. The second
// return value is false when there is no file to read.
func Find(explicit, packagePath string) (string, bool) {
	if explicit != "" {
		return explicit, true
	}
	p := filepath.Join(packagePath, FileName)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Load reads the configuration file at path. Unknown keys are an error.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s does not exist", path)
		}
		return nil, err
	}
	return Parse(b)
}

// Parse decodes the content of a configuration file.
func Parse(b []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &f, nil
}

// Apply sets every flag in flags that has a value in the file and was not
// set on the command line. Values for flags it does not define are
// ignored.
func (f *File) Apply(flags *flag.FlagSet) error {
	explicit := map[string]bool{}
	flags.Visit(func(fl *flag.Flag) {
		explicit[fl.Name] = true
	})
	for name, value := range f.values() {
		if explicit[name] || flags.Lookup(name) == nil {
			continue
		}
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("config %s: %w", name, err)
		}
	}
	return nil
}

func (f *File) values() map[string]string {
	v := map[string]string{}
	str := func(name string, s *string) {
		if s != nil {
			v[name] = *s
		}
	}
	boolean := func(name string, b *bool) {
		if b != nil {
			v[name] = strconv.FormatBool(*b)
		}
	}
	str("toolchain", f.Toolchain)
	boolean("plain", f.Plain)
	boolean("quiet", f.Quiet)
	boolean("keep-logs", f.KeepLogs)
	str("log-level", f.LogLevel)
	str("grammar", f.Grammar)
	boolean("show-times", f.ShowTimes)
	if f.LongestTestCount != nil {
		v["longest-test-count"] = strconv.Itoa(*f.LongestTestCount)
	}
	str("long-test-output-format", f.LongTestOutputFormat)
	str("longest-test-output-path", f.LongestTestOutputPath)
	str("junit", f.JUnit)
	boolean("group-by-suite", f.GroupBySuite)
	return v
}
