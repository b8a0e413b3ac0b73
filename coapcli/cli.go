// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package coapcli implements a small command-line client exposing
// get/put/post/delete/ping subcommands over coapclient.
package coapcli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/coapium/coapclient/coapclient"
	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coaptransport"
)

const defaultTimeout = 30 * time.Second

// Run parses args and executes the named subcommand, writing
// human-readable output to stdout and returning a process exit code
// (0 success, 1 missing or unknown subcommand, 2 any other failure,
// including flag, URL and request errors).
func Run(args []string, stdin io.Reader, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, "usage: coapcli <get|post|put|delete|ping> --url coap://host[:port]/path [flags]")
		return 1
	}

	sub, rest := args[0], args[1:]
	var err error
	switch sub {
	case "get":
		err = runMethod(rest, stdin, stdout, coapclient.Get())
	case "put":
		err = runMethod(rest, stdin, stdout, coapclient.Put())
	case "post":
		err = runMethod(rest, stdin, stdout, coapclient.Post())
	case "delete":
		err = runMethod(rest, stdin, stdout, coapclient.Delete())
	case "ping":
		err = runPing(rest, stdout)
	default:
		fmt.Fprintf(stdout, "unknown subcommand %q\n", sub)
		return 1
	}

	if err != nil {
		fmt.Fprintf(stdout, "error: %v\n", err)
		return 2
	}
	return 0
}

type flags struct {
	url           string
	payload       string
	hasPayload    bool
	contentFormat string
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--url":
			i++
			if i >= len(args) {
				return nil, errors.New("--url requires a value")
			}
			f.url = args[i]
		case "--payload":
			f.hasPayload = true
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' {
				i++
				f.payload = args[i]
			}
		case "--content-format":
			i++
			if i >= len(args) {
				return nil, errors.New("--content-format requires a value")
			}
			f.contentFormat = args[i]
		default:
			return nil, fmt.Errorf("unrecognized flag %q", args[i])
		}
	}
	if f.url == "" {
		return nil, errors.New("--url is required")
	}
	return f, nil
}

func parseContentFormat(s string) (coapmsg.MediaType, error) {
	if mt, err := coapmsg.ParseMediaType(s); err == nil {
		return mt, nil
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid content format %q", s)
	}
	return coapmsg.MediaType(n), nil
}

func readPayload(f *flags, stdin io.Reader) ([]byte, error) {
	if !f.hasPayload {
		return nil, nil
	}
	if f.payload != "" {
		return []byte(f.payload), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

func runMethod(args []string, stdin io.Reader, stdout io.Writer, b *coapclient.RequestBuilder) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	u, err := coapclient.ParseURL(f.url)
	if err != nil {
		return err
	}
	b = b.FromURL(u)

	payload, err := readPayload(f, stdin)
	if err != nil {
		return err
	}
	if len(payload) > 0 {
		b = b.Payload(payload)
		mt := coapmsg.TextPlain
		if f.contentFormat != "" {
			mt, err = parseContentFormat(f.contentFormat)
			if err != nil {
				return err
			}
		}
		b = b.ContentFormat(mt)
	}

	addr := fmt.Sprintf("%s:%d", u.Host, u.Port)
	d, err := coapclient.Dial(addr, nil)
	if err != nil {
		return err
	}
	defer func() {
		var errs *multierror.Error
		if cerr := d.Close(); cerr != nil {
			errs = multierror.Append(errs, cerr)
		}
		if err := errs.ErrorOrNil(); err != nil {
			fmt.Fprintf(stdout, "warning: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	resp, err := b.Do(ctx, d)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "-- Response code --\n%s\n", resp.Code)
	if len(resp.Payload) > 0 {
		fmt.Fprintf(stdout, "-- Payload --\n%s\n", resp.Payload)
		fmt.Fprintf(stdout, "-- Payload CRC16 (diagnostic) --\n%04x\n", payloadChecksum(resp.Payload))
	}
	return nil
}

func runPing(args []string, stdout io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	u, err := coapclient.ParseURL(f.url)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", u.Host, u.Port)
	d, err := coapclient.Dial(addr, nil)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	resp, err := d.Do(ctx, coapclient.Ping())
	if pingErr := coaptransport.IntoPingResult(resp, err); pingErr != nil {
		return pingErr
	}
	fmt.Fprintln(stdout, "-- Ping response --")
	return nil
}
