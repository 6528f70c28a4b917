package fixture

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herkos-dev/herkos/wasm/binary"
)

// TestRoundTrip encodes every fixture to the binary format and decodes it
// back. The encoding is canonical, so re-encoding the decoded module must
// reproduce the same bytes.
func TestRoundTrip(t *testing.T) {
	for _, f := range All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			bin := binary.EncodeModule(f.Module)
			decoded, err := binary.DecodeModule(bin)
			require.NoError(t, err)
			require.Equal(t, f.Module, decoded)
			require.Equal(t, bin, binary.EncodeModule(decoded))
		})
	}
}

// TestVectorsMatchSignatures checks the golden vectors against the module
// they describe: every case names a real export and carries the right number
// of arguments and results.
func TestVectorsMatchSignatures(t *testing.T) {
	for _, f := range All() {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			for _, c := range f.Cases {
				e, ok := f.Module.ExportSection[c.Export]
				require.True(t, ok, "case %q names unknown export %q", c.Name, c.Export)

				sig, err := f.Module.TypeOfFunction(e.Index)
				require.NoError(t, err)
				require.Len(t, c.Args, len(sig.Params), "case %q argument count", c.Name)
				if c.Trap == nil {
					require.Len(t, c.Want, len(sig.Results), "case %q result count", c.Name)
				}
			}
		})
	}
}
