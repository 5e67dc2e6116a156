package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestEncodeDecodeFiles(t *testing.T) {
	dir := t.TempDir()
	inputs := map[string]string{
		"a.txt": "plain text\n",
		"b.txt": "trailing space \nand = sign\n",
		"c.bin": "\x00\x01\xfe\xff",
	}

	var paths []string
	for name, content := range inputs {
		paths = append(paths, writeFile(t, dir, name, content))
	}

	encoded := t.TempDir()
	r := New(WithWorkers(2), WithOutputDir(encoded))

	sum, err := r.EncodeFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Files)
	require.Equal(t, 0, sum.Failed)
	require.Equal(t, int64(len("plain text\n")+len("trailing space \nand = sign\n")+4), sum.BytesIn)

	got, err := os.ReadFile(filepath.Join(encoded, "b.txt.qp"))
	require.NoError(t, err)
	require.Equal(t, "trailing space =\r\n\r\nand =3D sign\r\n", string(got))

	var encodedPaths []string
	for name := range inputs {
		encodedPaths = append(encodedPaths, filepath.Join(encoded, name+".qp"))
	}

	decoded := t.TempDir()
	r = New(WithOutputDir(decoded))
	sum, err = r.DecodeFiles(context.Background(), encodedPaths)
	require.NoError(t, err)
	require.Equal(t, 3, sum.Files)

	for name, content := range inputs {
		got, err := os.ReadFile(filepath.Join(decoded, name))
		require.NoError(t, err)
		require.Equal(t, content, string(got), name)
	}
}

func TestDecodeFilesErrors(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.qp", "ok=21")
	bad := writeFile(t, dir, "bad.qp", "broken=ZZ")
	missing := filepath.Join(dir, "missing.qp")

	r := New(WithLineSeparator([]byte("\r\n")))
	sum, err := r.DecodeFiles(context.Background(), []string{good, bad, missing})
	require.Error(t, err)
	require.Equal(t, 3, sum.Files)
	require.Equal(t, 2, sum.Failed)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 2)

	got, err := os.ReadFile(filepath.Join(dir, "good"))
	require.NoError(t, err)
	require.Equal(t, "ok!", string(got))

	_, err = os.Stat(filepath.Join(dir, "bad"))
	require.ErrorIs(t, err, os.ErrNotExist, "partial output must be removed")
}

func TestDuplicateOutputs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "a"), 0o700))
	require.NoError(t, os.Mkdir(filepath.Join(root, "b"), 0o700))
	first := writeFile(t, filepath.Join(root, "a"), "x.txt", "first=\n")
	second := writeFile(t, filepath.Join(root, "b"), "x.txt", "second\n")

	for _, workers := range []int{1, 4} {
		out := t.TempDir()
		r := New(WithWorkers(workers), WithOutputDir(out))

		sum, err := r.EncodeFiles(context.Background(), []string{first, second})
		require.ErrorIs(t, err, ErrDuplicateOutput)
		require.Equal(t, 2, sum.Files)
		require.Equal(t, 1, sum.Failed)

		var merr *multierror.Error
		require.ErrorAs(t, err, &merr)
		require.Len(t, merr.Errors, 1)
		require.Contains(t, merr.Errors[0].Error(), second)

		got, err := os.ReadFile(filepath.Join(out, "x.txt.qp"))
		require.NoError(t, err)
		require.Equal(t, "first=3D\r\n", string(got), "workers=%d", workers)
	}
}

func TestCancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "data")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := New().EncodeFiles(ctx, []string{path})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, sum.Files)
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		path    string
		encoded string
		decoded string
	}{
		{
			name:    "next to input",
			path:    "/data/mail.txt",
			encoded: "/data/mail.txt.qp",
			decoded: "/data/mail.txt.out",
		},
		{
			name:    "suffix stripped",
			path:    "/data/mail.txt.qp",
			encoded: "/data/mail.txt.qp.qp",
			decoded: "/data/mail.txt",
		},
		{
			name:    "output dir and suffix",
			opts:    []Option{WithOutputDir("/out"), WithSuffix(".q")},
			path:    "/data/mail.q",
			encoded: "/out/mail.q.q",
			decoded: "/out/mail",
		},
		{
			name:    "bare suffix",
			path:    "/data/.qp",
			encoded: "/data/.qp.qp",
			decoded: "/data/.qp.out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.opts...)
			require.Equal(t, filepath.FromSlash(tt.encoded), r.EncodedPath(filepath.FromSlash(tt.path)))
			require.Equal(t, filepath.FromSlash(tt.decoded), r.DecodedPath(filepath.FromSlash(tt.path)))
		})
	}
}
