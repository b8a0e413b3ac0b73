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

package coapmsg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMediaTypeStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "application/json", AppJSON.String())
	require.Equal(t, "MediaType(9999)", MediaType(9999).String())
}

func TestParseMediaTypeRoundTrip(t *testing.T) {
	mt, err := ParseMediaType("application/cbor")
	require.NoError(t, err)
	require.Equal(t, AppCBOR, mt)
}

func TestParseMediaTypeUnknownName(t *testing.T) {
	_, err := ParseMediaType("application/does-not-exist")
	require.ErrorIs(t, err, ErrMediaTypeNotFound)
}

func TestMediaTypeRegistrationBand(t *testing.T) {
	require.Equal(t, BandExpertReview, TextPlain.RegistrationBand())
	require.Equal(t, BandIETFReview, AppCoapGroup.RegistrationBand())
	require.Equal(t, BandFirstComeFirstServe, AppOcfCbor.RegistrationBand())
	require.Equal(t, BandExperimental, MediaType(65001).RegistrationBand())
}
