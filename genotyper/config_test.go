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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir, err := ioutil.TempDir("", "elgeno-config")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	filename := filepath.Join(dir, "elgeno.yaml")
	require.NoError(t, ioutil.WriteFile(filename, []byte("max-alt-alleles: 3\nsummarize-pls: true\n"), 0644))

	config, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, 3, config.MaxAltAlleles)
	assert.True(t, config.SummarizeLikelihoods)
	assert.Equal(t, 30.0, config.StandardConfidenceForCalling)
	assert.Equal(t, 0.001, config.SnpHeterozygosity)

	require.NoError(t, os.Setenv("ELGENO_MAX_ALT_ALLELES", "9"))
	defer os.Unsetenv("ELGENO_MAX_ALT_ALLELES")
	config, err = LoadConfig(filename)
	require.NoError(t, err)
	assert.Equal(t, 9, config.MaxAltAlleles)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	assert.NoError(t, config.Validate())
}

func TestValidateConfig(t *testing.T) {
	config := DefaultConfig()
	config.MaxAltAlleles = 0
	assert.Error(t, config.Validate())
	config = DefaultConfig()
	config.SnpHeterozygosity = 1
	assert.Error(t, config.Validate())
	_, err := New(config)
	assert.Error(t, err)
}
