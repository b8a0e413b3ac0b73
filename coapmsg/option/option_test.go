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

package option

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptionsMarshalUnmarshalRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "empty"},
		{
			name: "single uri-path",
			opts: Options{{Number: URIPath, Value: NewString("sensors")}},
		},
		{
			name: "repeated uri-path segments out of order",
			opts: Options{
				{Number: URIPath, Value: NewString("b")},
				{Number: URIPath, Value: NewString("a")},
				{Number: ContentFormat, Value: NewUint32(0)},
			},
		},
		{
			name: "delta requiring one-byte extended header (option number 60)",
			opts: Options{{Number: Size1, Value: NewUint32(1024)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append(Options(nil), tt.opts...)
			opts.SortByNumber()

			size, err := opts.Marshal(nil)
			require.ErrorIs(t, err, ErrTooSmall)

			buf := make([]byte, size)
			n, err := opts.Marshal(buf)
			require.NoError(t, err)
			require.Equal(t, size, n)

			var decoded Options
			consumed, err := decoded.Unmarshal(buf)
			require.NoError(t, err)
			require.Equal(t, size, consumed)
			require.Equal(t, len(opts), len(decoded))
			for i := range opts {
				require.Equal(t, opts[i].Number, decoded[i].Number)
				require.Equal(t, opts[i].Value.Bytes(), decoded[i].Value.Bytes())
			}
		})
	}
}

func TestUnmarshalUnrecognizedCriticalOptionFails(t *testing.T) {
	// Option number 21 (odd => critical) is not in the catalogue.
	opts := Options{{Number: Number(21), Value: NewOpaque([]byte{1})}}
	buf := make([]byte, 4)
	n, err := opts.Marshal(buf)
	require.NoError(t, err)

	var decoded Options
	_, err = decoded.Unmarshal(buf[:n])
	require.ErrorIs(t, err, ErrUnrecognizedCritical)
}

func TestUnmarshalUnrecognizedElectiveOptionIsSkipped(t *testing.T) {
	// Option number 22 (even => elective) is not in the catalogue.
	opts := Options{
		{Number: Number(22), Value: NewOpaque([]byte{1, 2})},
		{Number: URIPath, Value: NewString("x")},
	}
	opts.SortByNumber()
	buf := make([]byte, 16)
	n, err := opts.Marshal(buf)
	require.NoError(t, err)

	var decoded Options
	_, err = decoded.Unmarshal(buf[:n])
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, URIPath, decoded[0].Number)
}

func TestNumberIsCritical(t *testing.T) {
	require.True(t, IfMatch.IsCritical())
	require.False(t, ContentFormat.IsCritical())
	require.True(t, URIPath.IsCritical())
	require.False(t, MaxAge.IsCritical())
}

func TestAllowedForMethod(t *testing.T) {
	require.True(t, AllowedForMethod("GET", IfNoneMatch))
	require.False(t, AllowedForMethod("GET", IfMatch))
	require.True(t, AllowedForMethod("PUT", IfMatch))
	require.True(t, AllowedForMethod("GET", ContentFormat)) // elective, always allowed
}
