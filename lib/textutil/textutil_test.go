package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{`RESOLUCION: traslado / autos`, 50, "RESOLUCION_traslado_autos"},
		{`a<b>c:d"e/f\g|h?i*j`, 50, "a_b_c_d_e_f_g_h_i_j"},
		{"  spaced   out\tname\n", 50, "spaced_out_name"},
		{strings.Repeat("x", 80), 50, strings.Repeat("x", 50)},
		{"___trailing___", 50, "trailing"},
	}

	for _, test := range testCases {
		got := SanitizeFilename(test.input, test.max)
		require.Equal(t, test.expected, got)
		require.NotContains(t, got, "/")
		require.LessOrEqual(t, len([]rune(got)), test.max)
	}
}

func TestSanitizeFilenameStripsJwt(t *testing.T) {
	got := SanitizeFilename("Cuaderno eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.abc Principal", 50)
	require.Equal(t, "Cuaderno_Principal", got)
}

func TestStripIdentifierLabel(t *testing.T) {
	require.Equal(t, "C-1234-2022", StripIdentifierLabel("ROL : C-1234-2022"))
	require.Equal(t, "Civil - 505/2022", StripIdentifierLabel("Libro : Civil - 505/2022"))
	require.Equal(t, "D-77-2022", StripIdentifierLabel("  RIT: D-77-2022  "))
	require.Equal(t, "no label", StripIdentifierLabel("no label"))
}

func TestFirstWords(t *testing.T) {
	require.Equal(t, "uno dos tres", FirstWords("uno  dos\ntres cuatro", 3))
	require.Equal(t, "uno", FirstWords("uno", 15))
	require.Equal(t, "", FirstWords("   ", 15))
}
