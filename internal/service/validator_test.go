package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m760622/snabbaLexinTSR/internal/domain/entities"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  Gud  ", want: "gud"},
		{in: "Den   Nåderike", want: "den nåderike"},
		{in: "ÅÄÖ", want: "åäö"},
		{in: "الرَّحْمَنُ", want: "الرحمن"},
		{in: "الرحـــمن", want: "الرحمن"},
		{in: "إله", want: "اله"},
		{in: "رحمة", want: "رحمه"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestAnswerValidator_Validate(t *testing.T) {
	v := NewAnswerValidator()

	for _, answer := range []string{"Gud", " gud ", "GUD", "gud\t"} {
		ok, err := v.Validate(answer, "Gud")
		require.NoError(t, err)
		assert.True(t, ok, answer)
	}

	t.Run("Wrong", func(t *testing.T) {
		ok, err := v.Validate("Guds", "Gud")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Alternates", func(t *testing.T) {
		ok, err := v.Validate("ar-rahman", "الرَّحْمَنُ", "Ar-Rahman")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ArabicWithoutDiacritics", func(t *testing.T) {
		ok, err := v.Validate("الرحمن", "الرَّحْمَنُ")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		for _, answer := range []string{"", "   ", "\xff\xfe"} {
			ok, err := v.Validate(answer, "Gud")
			assert.ErrorIs(t, err, entities.ErrInvalidAnswerFormat)
			assert.False(t, ok)
		}
	})
}
