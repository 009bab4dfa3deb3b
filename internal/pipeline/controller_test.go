package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dfreese/miilgo/internal/calibrate"
	"github.com/dfreese/miilgo/internal/decode"
)

func TestSetRawFilenameRotatesWithoutTouchingOtherOutputs(t *testing.T) {
	model := streamTestModel(t)
	dir := t.TempDir()

	cfg := StreamConfig{
		Socket:          &fakeSocket{},
		Model:           model,
		Decoder:         decode.New(model),
		Calibrator:      calibrate.New(model),
		RawFilename:     filepath.Join(dir, "a.raw"),
		DecodedFilename: filepath.Join(dir, "a.decoded"),
		WriteRaw:        true,
		WriteDecoded:    true,
		RecvBufferSize:  64,
	}
	ctrl, err := NewController([]StreamConfig{cfg})
	require.NoError(t, err)

	require.NoError(t, ctrl.SetRawFilename(0, filepath.Join(dir, "b.raw")))

	_, err = os.Stat(filepath.Join(dir, "b.raw"))
	require.NoError(t, err)

	s, err := ctrl.Stream(0)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "a.decoded"), s.decodedFilename)
}

func TestControllerStreamIndexOutOfRange(t *testing.T) {
	model := streamTestModel(t)
	cfg := StreamConfig{
		Socket:     &fakeSocket{},
		Model:      model,
		Decoder:    decode.New(model),
		Calibrator: calibrate.New(model),
	}
	ctrl, err := NewController([]StreamConfig{cfg})
	require.NoError(t, err)

	_, err = ctrl.Stream(1)
	require.Error(t, err)
}
