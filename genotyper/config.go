// elgeno: a high-performance tool for finalizing joint-called VCF files.
// Copyright (c) 2017-2021 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

package genotyper

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix of environment variables that override
// configuration entries, as in ELGENO_MAX_ALT_ALLELES.
const EnvPrefix = "ELGENO"

// Config holds the tunable parameters of the genotyper.
type Config struct {
	MaxAltAlleles                int     `yaml:"max-alt-alleles" envconfig:"MAX_ALT_ALLELES"`
	SummarizeLikelihoods         bool    `yaml:"summarize-pls" envconfig:"SUMMARIZE_PLS"`
	StandardConfidenceForCalling float64 `yaml:"standard-min-confidence" envconfig:"STANDARD_MIN_CONFIDENCE"`
	SnpHeterozygosity            float64 `yaml:"heterozygosity" envconfig:"HETEROZYGOSITY"`
}

// DefaultConfig returns the configuration used when nothing is
// specified.
func DefaultConfig() Config {
	return Config{
		MaxAltAlleles:                6,
		SummarizeLikelihoods:         false,
		StandardConfidenceForCalling: 30,
		SnpHeterozygosity:            0.001,
	}
}

// Validate checks that the configuration entries are in range.
func (config *Config) Validate() error {
	if config.MaxAltAlleles < 1 {
		return errors.Errorf("max-alt-alleles must be at least 1, got %v", config.MaxAltAlleles)
	}
	if config.SnpHeterozygosity <= 0 || config.SnpHeterozygosity >= 1 {
		return errors.Errorf("heterozygosity must be between 0 and 1, got %v", config.SnpHeterozygosity)
	}
	return nil
}

func decodeConfigFile(filename string, config *Config) (err error) {
	f, err := os.Open(filename)
	if err != nil {
		return errors.Wrap(err, "opening configuration file")
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()
	if err = yaml.NewDecoder(f).Decode(config); err != nil {
		return errors.Wrapf(err, "decoding configuration file %v", filename)
	}
	return nil
}

// LoadConfig starts from DefaultConfig, then applies the YAML file
// filename if it is not empty, and finally the ELGENO_ environment
// variables.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()
	if filename != "" {
		if err := decodeConfigFile(filename, &config); err != nil {
			return config, err
		}
	}
	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return config, errors.Wrap(err, "processing environment variables")
	}
	return config, nil
}
