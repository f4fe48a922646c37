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

package vcf

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/exascience/elgeno/utils"
)

// The possible file extensions for VCF or BCF files, or gz-compressed VCF files
const (
	VcfExt = ".vcf"
	BcfExt = ".bcf"
	GzExt  = ".gz"
)

// InputFile represents a VCF or BCF file for input.
type InputFile struct {
	rc io.ReadCloser
	*bufio.Reader
	*exec.Cmd
	closeGzip func() error
}

// OutputFile represents a VCF or BCF file for output.
type OutputFile struct {
	wc io.WriteCloser
	*bufio.Writer
	*exec.Cmd
	zw *gzip.Writer
}

func bcftoolsThreads() []string {
	return []string{"--threads", strconv.FormatInt(int64(runtime.GOMAXPROCS(0)), 10)}
}

// Open a VCF file for input.
//
// If the filename extension is .bcf, use bcftools view for input, and
// tell it to only return the header section when headerOnly is true.
// bcftools must be visible in the directories named by the PATH
// environment variable for .bcf input.
//
// Otherwise, the input is VCF, possibly gzip or bgzf compressed, which
// is detected from its contents.
//
// If the name is "/dev/stdin", then the input is read from os.Stdin
func Open(name string, headerOnly bool) (*InputFile, error) {
	if filepath.Ext(name) == BcfExt {
		if _, err := os.Stat(name); err != nil {
			return nil, err
		}
		args := []string{"view"}
		if headerOnly {
			args = append(args, "-h")
		}
		args = append(args, bcftoolsThreads()...)
		args = append(args, name)
		cmd := exec.Command("bcftools", args...)
		outPipe, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		if err = cmd.Start(); err != nil {
			return nil, err
		}
		return &InputFile{rc: outPipe, Reader: bufio.NewReader(outPipe), Cmd: cmd}, nil
	}
	var rc io.ReadCloser
	if name == "/dev/stdin" {
		rc = os.Stdin
	} else {
		file, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		rc = file
	}
	reader, closeGzip, err := utils.HandleGzip(bufio.NewReader(rc))
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	return &InputFile{rc: rc, Reader: reader, closeGzip: closeGzip}, nil
}

// Create a VCF file for output.
//
// If the filename extension is .bcf, use bcftools view for output.
// bcftools must be visible in the directories named by the PATH
// environment variable for .bcf output.
//
// If the filename extension is .gz, or compressed is true, the output
// is gzip compressed.
//
// If the name is "/dev/stdout", then the output is written to
// os.Stdout.
func Create(name string, compressed bool) (*OutputFile, error) {
	ext := filepath.Ext(name)
	if ext == BcfExt {
		args := []string{"view"}
		if compressed {
			args = append(args, "-Ob")
		} else {
			args = append(args, "-Ou")
		}
		args = append(args, bcftoolsThreads()...)
		args = append(args, "-o", name, "-")
		cmd := exec.Command("bcftools", args...)
		inPipe, err := cmd.StdinPipe()
		if err != nil {
			return nil, err
		}
		if err = cmd.Start(); err != nil {
			return nil, err
		}
		return &OutputFile{wc: inPipe, Writer: bufio.NewWriter(inPipe), Cmd: cmd}, nil
	}
	var wc io.WriteCloser
	if name == "/dev/stdout" {
		wc = os.Stdout
	} else {
		file, err := os.Create(name)
		if err != nil {
			return nil, err
		}
		wc = file
	}
	if ext == GzExt || compressed {
		zw := gzip.NewWriter(wc)
		return &OutputFile{wc: wc, Writer: bufio.NewWriter(zw), zw: zw}, nil
	}
	return &OutputFile{wc: wc, Writer: bufio.NewWriter(wc)}, nil
}

// Close the VCF input file. If bcftools view is used for input, wait
// for its process to finish.
func (input *InputFile) Close() error {
	if input.closeGzip != nil {
		if err := input.closeGzip(); err != nil {
			return err
		}
	}
	if input.rc != os.Stdin {
		if err := input.rc.Close(); err != nil {
			return err
		}
	}
	if input.Cmd != nil {
		return input.Wait()
	}
	return nil
}

// Close the VCF output file. If bcftools view is used for output, wait
// for its process to finish.
func (output *OutputFile) Close() error {
	if err := output.Flush(); err != nil {
		return err
	}
	if output.zw != nil {
		if err := output.zw.Close(); err != nil {
			return err
		}
	}
	if output.wc != os.Stdout {
		if err := output.wc.Close(); err != nil {
			return err
		}
	}
	if output.Cmd != nil {
		return output.Wait()
	}
	return nil
}
