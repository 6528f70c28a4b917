package runtime

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrapMessages(t *testing.T) {
	for _, c := range []struct {
		code TrapCode
		exp  string
	}{
		{code: TrapCodeUnreachable, exp: "wasm trap: unreachable"},
		{code: TrapCodeIntegerDivideByZero, exp: "wasm trap: integer divide by zero"},
		{code: TrapCodeIntegerOverflow, exp: "wasm trap: integer overflow"},
		{code: TrapCodeMemoryOutOfBounds, exp: "wasm trap: out of bounds memory access"},
	} {
		require.Equal(t, c.exp, (&Trap{Code: c.code}).Error())
	}
}

func TestDivS(t *testing.T) {
	for _, c := range []struct {
		name    string
		x, y    int32
		exp     int32
		expCode TrapCode
		trap    bool
	}{
		{name: "plain", x: 7, y: 2, exp: 3},
		{name: "truncates toward zero", x: -7, y: 2, exp: -3},
		{name: "zero divisor", x: 1, y: 0, trap: true, expCode: TrapCodeIntegerDivideByZero},
		{name: "min by minus one", x: -1 << 31, y: -1, trap: true, expCode: TrapCodeIntegerOverflow},
	} {
		t.Run(c.name, func(t *testing.T) {
			v, err := DivS(c.x, c.y)
			if c.trap {
				var trap *Trap
				require.True(t, errors.As(err, &trap))
				require.Equal(t, c.expCode, trap.Code)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.exp, v)
		})
	}
}

func TestRemS(t *testing.T) {
	v, err := RemS(-1<<31, -1)
	require.NoError(t, err)
	require.Zero(t, v)

	v, err = RemS(-7, 2)
	require.NoError(t, err)
	require.Equal(t, int32(-1), v)

	_, err = RemS(5, 0)
	var trap *Trap
	require.True(t, errors.As(err, &trap))
	require.Equal(t, TrapCodeIntegerDivideByZero, trap.Code)
}

func TestDivS64(t *testing.T) {
	_, err := DivS64(-1<<63, -1)
	var trap *Trap
	require.True(t, errors.As(err, &trap))
	require.Equal(t, TrapCodeIntegerOverflow, trap.Code)

	v, err := RemS64(-1<<63, -1)
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestDivU(t *testing.T) {
	v, err := DivU(0xfffffff9, 2) // -7 reinterpreted
	require.NoError(t, err)
	require.Equal(t, uint32(0x7ffffffc), v)

	_, err = DivU(1, 0)
	require.Error(t, err)

	r, err := RemU(0xfffffff9, 2)
	require.NoError(t, err)
	require.Equal(t, uint32(1), r)
}

func TestBool(t *testing.T) {
	require.Equal(t, int32(1), Bool(true))
	require.Equal(t, int32(0), Bool(false))
}
