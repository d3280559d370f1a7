package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Acme Sdn Bhd", want: "Acme Sdn Bhd"},
		{in: `A<B>C:D"E/F\G|H?I*J`, want: "A_B_C_D_E_F_G_H_I_J"},
		{in: "tab\there\nnewline", want: "tab_here_newline"},
		{in: "  padded  ", want: "padded"},
		{in: "trailing dots...", want: "trailing dots"},
		{in: "INV/2024/001", want: "INV_2024_001"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestAlphanumeric(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "F9D425P6DS7D8IU", alphanumeric("F9D4-25P6_DS7D.8IU"))
	assert.Equal(t, "abc123", alphanumeric("a/b\\c 1é2😀3"))
}
