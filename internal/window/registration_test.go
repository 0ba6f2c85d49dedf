package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/asyncwin/internal/native"
)

func TestSignalRoutesToMatchingHandler(t *testing.T) {
	reg := NewRegistration(native.NewWindowID())

	resized := reg.Resized.Subscribe()
	focused := reg.Focused.Subscribe()
	chars := reg.ReceivedCharacter.Subscribe()
	closed := reg.CloseRequested.Subscribe()

	require.NoError(t, reg.Signal(native.Resized{Size: native.PhysicalSize{Width: 640, Height: 480}}, nil))
	require.NoError(t, reg.Signal(native.Focused{Focused: true}, nil))
	require.NoError(t, reg.Signal(native.ReceivedCharacter{Char: 'q'}, nil))
	require.NoError(t, reg.Signal(native.CloseRequested{}, nil))

	size, ok := resized.TryNext()
	require.True(t, ok)
	assert.Equal(t, native.PhysicalSize{Width: 640, Height: 480}, size)

	f, ok := focused.TryNext()
	require.True(t, ok)
	assert.True(t, f)

	c, ok := chars.TryNext()
	require.True(t, ok)
	assert.Equal(t, 'q', c)

	assert.Equal(t, 1, closed.Len())
	assert.Equal(t, 0, resized.Len())
}

func TestSignalIgnoresUnmodelledPayloads(t *testing.T) {
	reg := NewRegistration(native.NewWindowID())
	redraw := reg.RedrawRequested.Subscribe()

	assert.NoError(t, reg.Signal(native.DroppedFile{Path: "/tmp/x"}, nil))
	assert.Equal(t, 0, redraw.Len())
}

func TestScaleFactorUniqueAndClonableViews(t *testing.T) {
	reg := NewRegistration(native.NewWindowID())

	_, err := reg.ScaleFactorChanged.Intercept(func(u *ScaleFactorChanging, _ any) {
		u.Writer.RequestInnerSize(native.PhysicalSize{Width: 2000, Height: 1000})
	})
	require.NoError(t, err)
	snapshots := reg.ScaleFactorChanged.Subscribe()

	writer := native.NewInnerSizeWriter(native.PhysicalSize{Width: 1000, Height: 500})
	require.NoError(t, reg.Signal(native.ScaleFactorChanged{ScaleFactor: 2, Writer: writer}, nil))

	size, set := writer.InnerSize()
	assert.True(t, set)
	assert.Equal(t, native.PhysicalSize{Width: 2000, Height: 1000}, size)

	snap, ok := snapshots.TryNext()
	require.True(t, ok)
	assert.Equal(t, 2.0, snap.ScaleFactor)
	assert.Equal(t, native.PhysicalSize{Width: 2000, Height: 1000}, snap.InnerSize)
}

func TestSignalPassesUserData(t *testing.T) {
	reg := NewRegistration(native.NewWindowID())

	var got any
	_, err := reg.Destroyed.Hook(func(_ struct{}, data any) { got = data })
	require.NoError(t, err)

	require.NoError(t, reg.Signal(native.Destroyed{}, "state"))
	assert.Equal(t, "state", got)
}
