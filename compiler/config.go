package compiler

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"io/ioutil"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Config is the compiler configuration, usually read from a clove.yaml
// project file.
type Config struct {
	CompilePath          string   `yaml:"compile_path"`
	CompileProtocolsPath string   `yaml:"compile_protocols_path"`
	Features             []string `yaml:"features"`
	AssemblerOptions     []string `yaml:"assembler_options"`
	Output               string   `yaml:"output"` // "", "core" or "asm": dump IR text alongside
	CompileFiles         bool     `yaml:"compile_files"`
	ReadEval             bool     `yaml:"read_eval"`

	// analyzer warning suppression
	NoWarnSymbolAsErlFun bool `yaml:"no-warn-symbol-as-erl-fun"`
	NoWarnDynamicVarName bool `yaml:"no-warn-dynamic-var-name"`
}

// envOptionsVar names the environment variable holding extra assembler
// options, parsed as a whitespace-separated list.
const envOptionsVar = "CLOVE_COMPILER_OPTIONS"

// DefaultConfig returns the configuration used when no project file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.appendEnvOptions()
	return cfg
}

// LoadConfig reads a yaml configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.appendEnvOptions()
	tracer().Infof("configuration loaded from %s", path)
	return cfg, nil
}

func (cfg *Config) appendEnvOptions() {
	if opts := os.Getenv(envOptionsVar); opts != "" {
		cfg.AssemblerOptions = append(cfg.AssemblerOptions, strings.Fields(opts)...)
	}
}
