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

func TestTypeString(t *testing.T) {
	require.Equal(t, "CON", Confirmable.String())
	require.Equal(t, "NON", NonConfirmable.String())
	require.Equal(t, "ACK", Acknowledgement.String())
	require.Equal(t, "RST", Reset.String())
}

func TestValidateType(t *testing.T) {
	require.True(t, ValidateType(Reset))
	require.False(t, ValidateType(Type(4)))
}

func TestTokenEqual(t *testing.T) {
	require.True(t, Token{1, 2, 3}.Equal(Token{1, 2, 3}))
	require.False(t, Token{1, 2}.Equal(Token{1, 2, 3}))
	require.False(t, Token{1, 2, 3}.Equal(Token{1, 2, 4}))
}

func TestNewTokenProducesMaxLengthRandomToken(t *testing.T) {
	tok, err := NewToken()
	require.NoError(t, err)
	require.Len(t, tok, MaxTokenSize)

	other, err := NewToken()
	require.NoError(t, err)
	require.False(t, tok.Equal(other), "two draws collided, vanishingly unlikely for 8 random bytes")
}

func TestMessageIDNextWraps(t *testing.T) {
	var mid MessageID = 0xffff
	require.Equal(t, MessageID(0), mid.Next())
}
