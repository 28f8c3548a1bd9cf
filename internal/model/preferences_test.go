package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreferences_Normalize(t *testing.T) {
	t.Run("clears the any sentinel", func(t *testing.T) {
		p := Preferences{Language: "Any"}.Normalize()
		assert.Equal(t, "", p.Language)
	})

	t.Run("lowercases and trims", func(t *testing.T) {
		p := Preferences{
			Language:  "  KO ",
			Interests: []string{" Music ", "GAMING", ""},
		}.Normalize()

		assert.Equal(t, "ko", p.Language)
		assert.Equal(t, []string{"music", "gaming"}, p.Interests)
	})

	t.Run("swaps an inverted age range", func(t *testing.T) {
		p := Preferences{AgeRange: [2]int{35, 18}}.Normalize()
		assert.Equal(t, [2]int{18, 35}, p.AgeRange)
	})
}

func TestPreferences_Compatible(t *testing.T) {
	tests := []struct {
		name string
		a    Preferences
		b    Preferences
		want bool
	}{
		{
			name: "both empty",
			want: true,
		},
		{
			name: "same language",
			a:    Preferences{Language: "ko"},
			b:    Preferences{Language: "ko"},
			want: true,
		},
		{
			name: "different languages",
			a:    Preferences{Language: "ko"},
			b:    Preferences{Language: "en"},
			want: false,
		},
		{
			name: "one unset language matches any",
			a:    Preferences{Language: "ko"},
			b:    Preferences{},
			want: true,
		},
		{
			name: "overlapping age ranges",
			a:    Preferences{AgeRange: [2]int{18, 25}},
			b:    Preferences{AgeRange: [2]int{24, 30}},
			want: true,
		},
		{
			name: "disjoint age ranges",
			a:    Preferences{AgeRange: [2]int{18, 25}},
			b:    Preferences{AgeRange: [2]int{30, 40}},
			want: false,
		},
		{
			name: "unset age range matches all",
			a:    Preferences{AgeRange: [2]int{18, 25}},
			b:    Preferences{},
			want: true,
		},
		{
			name: "shared interest",
			a:    Preferences{Interests: []string{"music", "games"}},
			b:    Preferences{Interests: []string{"games"}},
			want: true,
		},
		{
			name: "no shared interest when both declare",
			a:    Preferences{Interests: []string{"music"}},
			b:    Preferences{Interests: []string{"games"}},
			want: false,
		},
		{
			name: "one empty interest list matches any",
			a:    Preferences{Interests: []string{"music"}},
			b:    Preferences{},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compatible(tt.b))
			assert.Equal(t, tt.want, tt.b.Compatible(tt.a))
		})
	}
}
