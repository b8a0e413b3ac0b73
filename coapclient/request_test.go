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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coapium/coapclient/coapmsg"
	"github.com/coapium/coapclient/coapmsg/option"
	"github.com/coapium/coapclient/coaptransport"
)

func TestBuilderAssemblesOptionsInNumberOrder(t *testing.T) {
	req, err := Get().
		Host("example.com").
		Path("sensors").
		Path("temp").
		QueryParameter("u=c").
		ContentFormat(coapmsg.TextPlain).
		Build()
	require.NoError(t, err)

	require.Equal(t, coaptransport.MethodGet, req.Method)
	require.True(t, sort.IsSorted(numberSlice(req.Options)))

	var got []option.Number
	for _, o := range req.Options {
		got = append(got, o.Number)
	}
	require.Equal(t, []option.Number{
		option.URIHost,
		option.URIPath,
		option.URIPath,
		option.ContentFormat,
		option.URIQuery,
	}, got)
}

type numberSlice option.Options

func (s numberSlice) Len() int           { return len(s) }
func (s numberSlice) Less(i, j int) bool { return s[i].Number < s[j].Number }
func (s numberSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func TestBuilderFromURLPopulatesFields(t *testing.T) {
	u, err := ParseURL("coap://example.com/a/b?x=1")
	require.NoError(t, err)

	req, err := Post().FromURL(u).Payload([]byte("body")).Build()
	require.NoError(t, err)
	require.Equal(t, coaptransport.MethodPost, req.Method)
	require.Equal(t, []byte("body"), req.Payload)

	var paths []string
	for _, o := range req.Options {
		if o.Number == option.URIPath {
			paths = append(paths, string(o.Value.Bytes()))
		}
	}
	require.Equal(t, []string{"a", "b"}, paths)
}

func TestBuilderDefaultsToConfirmable(t *testing.T) {
	req, err := Get().Build()
	require.NoError(t, err)
	require.Equal(t, coaptransport.ReliabilityConfirmable, req.Reliability)
}

func TestBuilderRejectsIfMatchOnGet(t *testing.T) {
	_, err := Get().Host("example.com").IfMatch([]byte{0x01}).Build()
	require.ErrorIs(t, err, ErrOptionNotAllowed)
}

func TestBuilderAllowsIfMatchOnPut(t *testing.T) {
	req, err := Put().Host("example.com").IfMatch([]byte{0x01}).Payload([]byte("v")).Build()
	require.NoError(t, err)

	v, ok := req.Options.Get(option.IfMatch)
	require.True(t, ok)
	require.Equal(t, []byte{0x01}, v.Bytes())
}

func TestPingBuildsEmptyConfirmable(t *testing.T) {
	req := Ping()
	require.Equal(t, coaptransport.MethodPing, req.Method)
	require.Equal(t, coaptransport.ReliabilityConfirmable, req.Reliability)
}
