package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cyrillic lower-case", "Где мой ЗАКАЗ №12345?", "где мой заказ №12345?"},
		{"trim and collapse", "  Когда   приедет\tдоставка \n", "когда приедет доставка"},
		{"keeps hash", "Заказ #777", "заказ #777"},
		{"yo", "ЁЛКА", "ёлка"},
		{"decomposed short i is composed", "\u0418\u0306", "\u0439"},
		{"latin", "Order N5", "order n5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrEmptyText, "input %q", in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Где мой заказ №12345?",
		"  КОГДА   приедет  доставка по заказу 777 ",
		"İstanbul ΣΊΣΥΦΟΣ Straße",
		"#1 #2  №3",
		"й ё ё",
	}

	for _, in := range inputs {
		once, err := Normalize(in)
		require.NoError(t, err)
		twice, err := Normalize(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "input %q", in)
	}
}
