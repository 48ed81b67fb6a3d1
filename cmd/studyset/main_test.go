package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/studyset"
	"github.com/hupe1980/studyset/blobstore"
	"github.com/hupe1980/studyset/blobstore/minio"
	"github.com/hupe1980/studyset/internal/config"
	"github.com/hupe1980/studyset/metadata"
)

const studiesJSON = `{
  "S1": {"metadata": {"sample_size": 20, "analysis_level": "group"},
         "images": {"z": "img/s1_z.nii"},
         "coordinates": [[1, 2, 3]]},
  "S2": {"metadata": {"sample_size": 12},
         "images": {"beta": "img/s2_beta.nii"},
         "coordinates": []},
  "S3": {"images": {"z": "img/s3_z.nii"}}
}`

type testApp struct {
	*app
	out   *bytes.Buffer
	dir   string
	store *blobstore.MemoryStore
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	out := &bytes.Buffer{}
	cfg := config.Config{
		Backend:           config.BackendLocal,
		LocalRoot:         dir,
		SnapshotExt:       ".snap.zst",
		Codec:             "go-json",
		LogFormat:         "text",
		VerifyConcurrency: 4,
	}
	a := newApp(cfg, out, &bytes.Buffer{})
	a.logger = studyset.NoopLogger()

	store := blobstore.NewMemoryStore()
	a.openStore = func(context.Context) (blobstore.BlobStore, error) { return store, nil }

	require.NoError(t, os.WriteFile(filepath.Join(dir, "studies.json"), []byte(studiesJSON), 0o644))
	return &testApp{app: a, out: out, dir: dir, store: store}
}

func (ta *testApp) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ta.out.Reset()
	err := ta.app.run(context.Background(), args)
	return ta.out.String(), err
}

func (ta *testApp) path(name string) string { return filepath.Join(ta.dir, name) }

func TestInfo(t *testing.T) {
	ta := newTestApp(t)
	out, err := ta.run(t, "info", ta.path("studies.json"))
	require.NoError(t, err)

	rows := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		rows[strings.Join(fields[:len(fields)-1], " ")] = fields[len(fields)-1]
	}
	assert.Equal(t, map[string]string{
		"studies":                 "3",
		"space":                   "MNI",
		"coordinates":             "1",
		"image beta":              "1",
		"image z":                 "2",
		"metadata analysis_level": "1",
		"metadata sample_size":    "2",
	}, rows)
}

func TestSelect(t *testing.T) {
	ta := newTestApp(t)
	path := ta.path("studies.json")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-req", "z"}, "S1\nS3\n"},
		{[]string{"-alg", "weighted-stouffers"}, "S1\n"},
		{[]string{"-req", "z OR beta", "-where", "sample_size:lt:15"}, "S2\n"},
		{[]string{"-where", "analysis_level:eq:group"}, "S1\n"},
		{[]string{"-req", "NOT coordinates"}, "S2\nS3\n"},
	}
	for _, tt := range tests {
		out, err := ta.run(t, append(append([]string{"select"}, tt.args...), path)...)
		require.NoError(t, err, tt.args)
		assert.Equal(t, tt.want, out, tt.args)
	}

	_, err := ta.run(t, "select", "-req", "Z", path)
	var ure *studyset.UnknownRequirementError
	assert.ErrorAs(t, err, &ure)

	_, err = ta.run(t, "select", "-search", "memory", path)
	assert.ErrorIs(t, err, studyset.ErrNotImplemented)

	_, err = ta.run(t, "select", "-alg", "nope", path)
	assert.Error(t, err)

	_, err = ta.run(t, "select", "-req", "z", "-alg", "mkda", path)
	assert.ErrorIs(t, err, errUsage)
}

func TestConvert(t *testing.T) {
	ta := newTestApp(t)
	_, err := ta.run(t, "convert", ta.path("studies.json"), ta.path("studies.snap.lz4"))
	require.NoError(t, err)
	_, err = ta.run(t, "convert", ta.path("studies.snap.lz4"), ta.path("back.json.gz"))
	require.NoError(t, err)

	orig, err := studyset.Load(ta.path("studies.json"))
	require.NoError(t, err)
	back, err := studyset.Load(ta.path("back.json.gz"))
	require.NoError(t, err)
	assert.True(t, orig.Equal(back))
}

func TestPushPullListPrune(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()

	_, err := ta.run(t, "pull", ta.path("latest.json"))
	require.Error(t, err)

	out, err := ta.run(t, "push", ta.path("studies.json"))
	require.NoError(t, err)
	first := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(first, "snapshots/"))
	assert.True(t, strings.HasSuffix(first, ".snap.zst"))

	out, err = ta.run(t, "push", "-ext", ".snap", ta.path("studies.json"))
	require.NoError(t, err)
	second := strings.TrimSpace(out)

	out, err = ta.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* "+second)
	assert.Contains(t, out, "  "+first)

	_, err = ta.run(t, "pull", ta.path("latest.snap"))
	require.NoError(t, err)
	_, err = ta.run(t, "pull", "-name", first, ta.path("first.json"))
	require.NoError(t, err)

	orig, err := studyset.Load(ta.path("studies.json"))
	require.NoError(t, err)
	for _, name := range []string{"latest.snap", "first.json"} {
		got, err := studyset.Load(ta.path(name))
		require.NoError(t, err)
		assert.True(t, orig.Equal(got), name)
	}

	out, err = ta.run(t, "prune")
	require.NoError(t, err)
	assert.Equal(t, "deleted "+first+"\n", out)

	names, err := ta.store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{second}, names)
}

func TestVerifyAndPushVerify(t *testing.T) {
	ta := newTestApp(t)
	ctx := context.Background()
	require.NoError(t, ta.store.Put(ctx, "img/s1_z.nii", []byte("z")))
	require.NoError(t, ta.store.Put(ctx, "img/s2_beta.nii", []byte("b")))

	out, err := ta.run(t, "verify", ta.path("studies.json"))
	require.Error(t, err)
	assert.Equal(t, "missing S3/z: img/s3_z.nii\n", out)

	_, err = ta.run(t, "push", "-verify", ta.path("studies.json"))
	require.Error(t, err)
	names, err := ta.store.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, ta.store.Put(ctx, "img/s3_z.nii", []byte("z")))
	out, err = ta.run(t, "verify", ta.path("studies.json"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIngest(t *testing.T) {
	ta := newTestApp(t)
	csv := "image_id,collection_id,file,map_type,analysis_level,is_thresholded,not_mni,cognitive_paradigm_cogatlas,number_of_subjects,DOI\n" +
		"5,1,/media/images/1/z.nii.gz,Z map,group,False,False,trm_1,16,10.1/x\n" +
		"6,1,/media/images/1/t.nii.gz,T map,group,False,False,trm_1,,10.1/x\n"
	require.NoError(t, os.WriteFile(ta.path("nv.csv"), []byte(csv), 0o644))

	out, err := ta.run(t, "ingest", "-prefix", "nv", ta.path("nv.csv"), ta.path("nv.snap"))
	require.NoError(t, err)
	assert.Equal(t, "kept 1 of 2 images\nskipped 1: T map without sample size\n", out)

	ds, err := studyset.LoadSnapshot(ta.path("nv.snap"))
	require.NoError(t, err)
	assert.Equal(t, []string{"000005"}, ds.IDs())
	v, ok := ds.GetMetadata("000005", "sample_size")
	require.True(t, ok)
	assert.Equal(t, metadata.Int(16), v)
}

func TestUsageErrors(t *testing.T) {
	ta := newTestApp(t)
	for _, args := range [][]string{
		nil,
		{"help"},
		{"bogus"},
		{"info"},
		{"convert", "a.json"},
		{"list", "extra"},
		{"info", "-nope", "a.json"},
	} {
		_, err := ta.run(t, args...)
		assert.ErrorIs(t, err, errUsage, args)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter("sample_size:>=:20")
	require.NoError(t, err)
	assert.Equal(t, metadata.Gte("sample_size", metadata.Int(20)), f)

	f, err = parseFilter("map_type:in:Z map, T map")
	require.NoError(t, err)
	assert.Equal(t, metadata.In("map_type", metadata.String("Z map"), metadata.String("T map")), f)

	f, err = parseFilter("doi:contains:10.1:abc")
	require.NoError(t, err)
	assert.Equal(t, metadata.Contains("doi", "10.1:abc"), f)

	for _, bad := range []string{"", "field", ":eq:1", "field:eq", "field:~:1"} {
		_, err := parseFilter(bad)
		assert.Error(t, err, bad)
	}
}

func TestDialStore(t *testing.T) {
	ctx := context.Background()

	local := newApp(config.Config{Backend: config.BackendLocal, LocalRoot: t.TempDir(), CacheBytes: 1 << 20}, io.Discard, io.Discard)
	store, err := local.dialStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.LocalStore{}, store)

	remote := newApp(config.Config{
		Backend:    config.BackendMinIO,
		Endpoint:   "localhost:9000",
		Bucket:     "studies",
		CacheBytes: 1 << 20,
	}, io.Discard, io.Discard)
	store, err = remote.dialStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.CachingStore{}, store)

	remote.cfg.CacheBytes = 0
	store, err = remote.dialStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &minio.Store{}, store)
}
