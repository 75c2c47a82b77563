// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFamily(t *testing.T) {
	tests := []struct {
		id   string
		want Family
	}{
		{"mlx-community/plamo-2-translate", FamilyPlamoTranslate},
		{"pfnet/PLaMo-2-Translate", FamilyPlamoTranslate},
		{"pfnet/plamo-2-1b", FamilyPlamo},
		{"llama3.2", FamilyGeneric},
		{"mlx-community/Qwen2.5-7B-Instruct-4bit", FamilyGeneric},
		{"", FamilyGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFamily(tt.id))
		})
	}
}

func TestLoadOptionsFor(t *testing.T) {
	assert.True(t, LoadOptionsFor(FamilyPlamoTranslate).TrustRemoteCode)
	assert.True(t, LoadOptionsFor(FamilyPlamo).TrustRemoteCode)
	assert.False(t, LoadOptionsFor(FamilyGeneric).TrustRemoteCode)
}

func TestFamilyString(t *testing.T) {
	assert.Equal(t, "generic", FamilyGeneric.String())
	assert.Equal(t, "plamo", FamilyPlamo.String())
	assert.Equal(t, "plamo-translate", FamilyPlamoTranslate.String())
}
