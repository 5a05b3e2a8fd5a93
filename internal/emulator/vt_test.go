package emulator

import (
	"strings"
	"sync/atomic"
	"testing"

	apperrors "github.com/faiyaz032/gobox/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertEOL(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		prevCR bool
		want   string
		wantCR bool
	}{
		{"no newline", "abc", false, "abc", false},
		{"lone newline", "a\nb", false, "a\r\nb", false},
		{"already crlf", "a\r\nb", false, "a\r\nb", false},
		{"cr at chunk end", "a\r", false, "a\r", true},
		{"split crlf", "\nb", true, "\nb", false},
		{"several", "\n\n", false, "\r\n\r\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, cr := convertEOL([]byte(tt.in), tt.prevCR)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, tt.wantCR, cr)
		})
	}
}

func TestViewportNotifiesOnChangeOnly(t *testing.T) {
	v := NewViewport()
	_, err := v.Size()
	assert.ErrorIs(t, err, apperrors.ErrFitFailed)

	calls := 0
	v.OnResize(func() { calls++ })
	v.Set(80, 24)
	v.Set(80, 24)
	v.Set(120, 40)

	assert.Equal(t, 2, calls)
	g, err := v.Size()
	require.NoError(t, err)
	assert.Equal(t, Geometry{Cols: 120, Rows: 40}, g)
}

func TestVTFitBeforeLayoutFails(t *testing.T) {
	v := NewViewport()
	term := OpenVT(v, DefaultVTOptions())
	defer term.Dispose()

	err := term.Fit()
	assert.ErrorIs(t, err, apperrors.ErrFitFailed)
	assert.Equal(t, Geometry{Cols: 80, Rows: 24}, term.Geometry())

	v.Set(120, 40)
	require.NoError(t, term.Fit())
	assert.Equal(t, Geometry{Cols: 120, Rows: 40}, term.Geometry())
}

func TestVTWriteRenders(t *testing.T) {
	v := NewViewport()
	v.Set(80, 24)
	term := OpenVT(v, DefaultVTOptions())
	defer term.Dispose()

	var renders atomic.Int32
	term.OnRender(func() { renders.Add(1) })

	term.Write([]byte("hello"))
	term.WriteString("\nworld")

	assert.Equal(t, int32(2), renders.Load())
	screen := term.Render()
	assert.Contains(t, screen, "hello")
	assert.Contains(t, screen, "world")

	term.Reset()
	assert.NotContains(t, term.Render(), "hello")
}

func TestVTInputFansOut(t *testing.T) {
	term := OpenVT(NewViewport(), DefaultVTOptions())

	var got []string
	term.OnInput(func(s string) { got = append(got, s) })
	term.Input("l")
	term.Input("")
	term.Input("s\r")
	assert.Equal(t, []string{"l", "s\r"}, got)

	term.Dispose()
	term.Input("x")
	assert.Equal(t, []string{"l", "s\r"}, got)
}

func TestVTDisposeIsFinal(t *testing.T) {
	v := NewViewport()
	v.Set(80, 24)
	term := OpenVT(v, DefaultVTOptions())
	term.Focus()
	assert.True(t, term.Focused())

	term.Dispose()
	term.Dispose()

	assert.NotPanics(t, func() {
		term.Write([]byte("late"))
		term.Reset()
		term.Focus()
		_ = term.Fit()
	})
	assert.Equal(t, "", term.Render())
	assert.False(t, strings.Contains(term.Render(), "late"))
}
