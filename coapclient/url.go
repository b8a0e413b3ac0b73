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

package coapclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Scheme is the two CoAP URI schemes this library accepts.
type Scheme string

const (
	SchemeCoAP    Scheme = "coap"
	SchemeCoAPTLS Scheme = "coaps"
)

var (
	// ErrUnsupportedScheme is returned by ParseURL for any scheme other
	// than coap/coaps.
	ErrUnsupportedScheme = errors.New("coapclient: unsupported URI scheme")
)

// URL is a parsed CoAP endpoint: scheme, host, an optional port, a
// path split into segments, and query parameters split on "&".
type URL struct {
	Scheme Scheme
	Host   string
	Port   uint16
	Path   []string
	Query  []string
}

// ParseURL parses raw into a URL, validating the scheme and
// normalizing the host through IDNA (punycode) so non-ASCII hosts
// round-trip to a valid Uri-Host option value.
func ParseURL(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("coapclient: parse URL: %w", err)
	}

	scheme := Scheme(strings.ToLower(u.Scheme))
	if scheme != SchemeCoAP && scheme != SchemeCoAPTLS {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	host, err := validateHost(u.Hostname())
	if err != nil {
		return nil, err
	}

	var port uint16
	if p := u.Port(); p != "" {
		var n int
		if _, err := fmt.Sscanf(p, "%d", &n); err != nil || n < 0 || n > 65535 {
			return nil, fmt.Errorf("coapclient: invalid port %q", p)
		}
		port = uint16(n)
	} else if scheme == SchemeCoAPTLS {
		port = 5684
	} else {
		port = 5683
	}

	var path []string
	if trimmed := strings.Trim(u.Path, "/"); trimmed != "" {
		path = strings.Split(trimmed, "/")
	}

	var query []string
	if u.RawQuery != "" {
		query = strings.Split(u.RawQuery, "&")
	}

	return &URL{Scheme: scheme, Host: host, Port: port, Path: path, Query: query}, nil
}

// validateHost normalizes hostname for use as a Uri-Host option
// value. RFC 3986 host grammar permits an IP-literal (bracketed IPv6)
// or an IPv4address alongside reg-name; IDNA's label grammar forbids
// colons, so a bracketed IPv6 literal like "[::1]" would be rejected
// by idna even though it is a perfectly valid CoAP host. IP literals
// are therefore returned unchanged; every other hostname is
// normalized to ASCII via IDNA (punycode) so non-ASCII reg-names
// round-trip to a valid Uri-Host option value.
func validateHost(hostname string) (string, error) {
	if net.ParseIP(hostname) != nil {
		return hostname, nil
	}
	ascii, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return "", fmt.Errorf("coapclient: invalid host %q: %w", hostname, err)
	}
	return ascii, nil
}

func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(string(u.Scheme))
	b.WriteString("://")
	b.WriteString(u.Host)
	fmt.Fprintf(&b, ":%d", u.Port)
	for _, seg := range u.Path {
		b.WriteByte('/')
		b.WriteString(seg)
	}
	if len(u.Query) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(u.Query, "&"))
	}
	return b.String()
}
