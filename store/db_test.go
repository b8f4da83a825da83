package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *ManifestStore {
	t.Helper()
	s, err := NewManifestStore(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openStore(t)

	latest, err := s.LatestRun("")
	require.NoError(t, err)
	assert.Nil(t, latest)

	run := &Run{ID: "run-1", Kind: KindTag, Params: "size=400 border=2", StartedAt: 100}
	require.NoError(t, s.StartRun(run))

	for id := 0; id < 3; id++ {
		require.NoError(t, s.SaveArtifact(&Artifact{
			RunID:    run.ID,
			Kind:     KindTag,
			MarkerID: id,
			Path:     "assets/markers/tag.png",
			Format:   "png",
			Width:    396,
			Height:   396,
			Bytes:    1024,
			SHA256:   "abc",
		}))
	}
	require.NoError(t, s.FinishRun(run.ID, nil))

	latest, err = s.LatestRun(KindTag)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-1", latest.ID)
	assert.Equal(t, 3, latest.Artifacts)
	assert.NotZero(t, latest.FinishedAt)
	assert.Empty(t, latest.Error)

	none, err := s.LatestRun(KindQR)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFinishRunRecordsError(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.StartRun(&Run{ID: "run-err", Kind: KindQR}))
	require.NoError(t, s.FinishRun("run-err", errors.New("disk full")))

	latest, err := s.LatestRun(KindQR)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "disk full", latest.Error)

	assert.Error(t, s.FinishRun("missing", nil))
}

func TestListArtifacts(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.StartRun(&Run{ID: "old", Kind: KindTag, StartedAt: 10}))
	require.NoError(t, s.StartRun(&Run{ID: "new", Kind: KindQR, StartedAt: 20}))

	require.NoError(t, s.SaveArtifact(&Artifact{RunID: "old", Kind: KindTag, MarkerID: 0, Path: "tag_0.png", Format: "png", CreatedAt: 10}))
	require.NoError(t, s.SaveArtifact(&Artifact{RunID: "new", Kind: KindQR, MarkerID: 0, Path: "qr_0.png", Format: "png", Payload: "MARKER-0", CreatedAt: 20}))
	require.NoError(t, s.SaveArtifact(&Artifact{RunID: "new", Kind: KindQR, MarkerID: 1, Path: "qr_1.png", Format: "png", Payload: "MARKER-1", CreatedAt: 20}))

	all, err := s.ListArtifacts("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "qr_0.png", all[0].Path)
	assert.Equal(t, "qr_1.png", all[1].Path)
	assert.Equal(t, "tag_0.png", all[2].Path)
	assert.Equal(t, "MARKER-1", all[1].Payload)

	tags, err := s.ListArtifacts(KindTag, 10)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "old", tags[0].RunID)

	limited, err := s.ListArtifacts("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveArtifactReplaces(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.StartRun(&Run{ID: "r", Kind: KindTag}))
	require.NoError(t, s.SaveArtifact(&Artifact{RunID: "r", Kind: KindTag, MarkerID: 5, Path: "a.png", Format: "png"}))
	require.NoError(t, s.SaveArtifact(&Artifact{RunID: "r", Kind: KindTag, MarkerID: 5, Path: "b.png", Format: "png"}))

	got, err := s.ListArtifacts(KindTag, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b.png", got[0].Path)
}
