package midi

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/jsphweid/voicelead/model"
	"github.com/jsphweid/voicelead/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

func sample() *score.Score {
	s := score.New()
	s.Add(
		model.Note{Voice: 0, Onset: 0, Duration: 960, Pitch: 48},
		model.Note{Voice: 0, Onset: 960, Duration: 960, Pitch: 48},
		model.Note{Voice: 1, Onset: 0, Duration: 480, Pitch: 67},
		model.Note{Voice: 1, Onset: 480, Duration: 240, Pitch: 69},
		model.Note{Voice: 1, Onset: 720, Duration: 1200, Pitch: 71},
	)
	return s
}

func TestEncodeRoundTripsRhythm(t *testing.T) {
	mf, err := Encode(sample(), 12, 480)
	require.NoError(t, err)
	require.Len(t, mf.Tracks, 2)

	var buf bytes.Buffer
	_, err = mf.WriteTo(&buf)
	require.NoError(t, err)
	parsed, err := smf.ReadFrom(&buf)
	require.NoError(t, err)

	rhythms, err := Rhythms(parsed, 480)
	require.NoError(t, err)
	require.Len(t, rhythms, 2)

	assert := assert.New(t)
	// repeated pitches stay separate notes
	assert.Equal([]model.Event{{Onset: 0, Duration: 960}, {Onset: 960, Duration: 960}}, rhythms[0].Between(0, 1920))
	assert.Equal(3, rhythms[1].Len())
	assert.Equal(model.Event{Onset: 720, Duration: 1200}, rhythms[1].At(2))
}

func TestRhythmsRescaleTicks(t *testing.T) {
	mf, err := Encode(sample(), 12, 480)
	require.NoError(t, err)

	rhythms, err := Rhythms(mf, 960)
	require.NoError(t, err)
	assert.Equal(t, model.Event{Onset: 1440, Duration: 2400}, rhythms[1].At(2))
}

func TestWriteFileAndReadRhythms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mid")
	require.NoError(t, WriteFile(path, sample(), 12, 480))

	rhythms, err := ReadRhythms(path, 480)
	require.NoError(t, err)
	assert.Len(t, rhythms, 2)
}

func TestEncodeRejects(t *testing.T) {
	_, err := Encode(sample(), 19, 480)
	assert.Error(t, err)

	s := score.New()
	s.Add(model.Note{Voice: 0, Onset: 0, Duration: 10, Pitch: 130})
	_, err = Encode(s, 12, 480)
	assert.Error(t, err)
}

func TestReadMidiFileMissing(t *testing.T) {
	_, err := ReadMidiFile(filepath.Join(t.TempDir(), "nope.mid"))
	assert.Error(t, err)
}
