package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *Config
	}{
		{
			name:    "empty file uses defaults",
			content: "",
			want: &Config{
				Charset:       "UTF-8",
				LineSeparator: SeparatorLF,
				Workers:       4,
				Suffix:        ".qp",
			},
		},
		{
			name: "overrides",
			content: `
charset: ISO-8859-1
line_separator: crlf
workers: 8
output_dir: /tmp/out
suffix: .eml.qp
log_path: /var/log/qpcodec.log
debug: true
`,
			want: &Config{
				Charset:       "ISO-8859-1",
				LineSeparator: SeparatorCRLF,
				Workers:       8,
				OutputDir:     "/tmp/out",
				Suffix:        ".eml.qp",
				LogPath:       "/var/log/qpcodec.log",
				Debug:         true,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromFile(writeConfig(t, tt.content))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromFile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFromFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "negative workers", content: "workers: -1", wantErr: "workers must be greater than 0"},
		{name: "unknown separator", content: "line_separator: cr", wantErr: "line_separator"},
		{name: "malformed yaml", content: "workers: [1", wantErr: "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromFile(writeConfig(t, tt.content))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefault(t *testing.T) {
	got, err := FromFile("")
	require.NoError(t, err)
	require.NoError(t, got.Validate())
	require.Equal(t, []byte("\n"), got.LineSeparatorBytes())

	got.LineSeparator = SeparatorCRLF
	require.Equal(t, []byte("\r\n"), got.LineSeparatorBytes())
}
