package repoinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bzeller/zypp-media-go/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRepo = `
[factory-oss]
name=openSUSE Tumbleweed OSS
type=rpm-md
enabled=1
raw_gpg_check=1
baseurl="""http://download.opensuse.org/tumbleweed/repo/oss/
http://mirror.example/tumbleweed/repo/oss/"""

[legacy-yum]
name=Legacy Yum Mirror
type=yum
enabled=0
baseurl=http://legacy.example/repo/

[unknown-key-repo]
name=Has Stray Key
type=rpm-md
frobnicate=true
baseurl=http://example.org/repo/
`

func TestParseRepoDataBasic(t *testing.T) {
	t.Parallel()
	infos, err := ParseRepoData([]byte(sampleRepo))
	require.NoError(t, err)
	require.Len(t, infos, 3)

	oss := infos[0]
	assert.Equal(t, "factory-oss", oss.Alias)
	assert.Equal(t, TypeRpmMd, oss.Type)
	assert.True(t, oss.Enabled)
	assert.Equal(t, media.True, oss.RawGPGCheck)
	require.Len(t, oss.BaseURLs, 2)
	assert.Equal(t, "http://download.opensuse.org/tumbleweed/repo/oss/", oss.BaseURLs[0].String())
}

func TestParseRepoDataSynonymsAndDisabled(t *testing.T) {
	t.Parallel()
	infos, err := ParseRepoData([]byte(sampleRepo))
	require.NoError(t, err)

	legacy := infos[1]
	assert.Equal(t, TypeRpmMd, legacy.Type, "yum is a synonym for rpm-md")
	assert.False(t, legacy.Enabled)
	assert.Equal(t, media.Indeterminate, legacy.RawGPGCheck)
}

func TestParseRepoDataUnknownKeyIsIgnoredNotFatal(t *testing.T) {
	t.Parallel()
	infos, err := ParseRepoData([]byte(sampleRepo))
	require.NoError(t, err)

	stray := infos[2]
	assert.Equal(t, "unknown-key-repo", stray.Alias)
	require.Len(t, stray.BaseURLs, 1)
}

func TestParseRepoFileMissing(t *testing.T) {
	t.Parallel()
	_, err := ParseRepoFile("/nonexistent/path.repo")
	assert.Error(t, err)
}

func TestLoadRepoDirCombinesFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.repo"), []byte("[a]\nbaseurl=http://a.example/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.repo"), []byte("[b]\nbaseurl=http://b.example/\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	infos, err := LoadRepoDir(dir)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	aliases := map[string]bool{}
	for _, i := range infos {
		aliases[i.Alias] = true
	}
	assert.True(t, aliases["a"])
	assert.True(t, aliases["b"])
}

func TestLoadRepoDirPropagatesParseError(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	// An unterminated section header is invalid INI and should fail to load.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.repo"), []byte("[unterminated\nbaseurl=http://x/\n"), 0o644))

	_, err := LoadRepoDir(dir)
	assert.Error(t, err)
}

func TestParseRepoTypeSynonyms(t *testing.T) {
	t.Parallel()
	cases := map[string]RepoType{
		"rpm-md": TypeRpmMd, "rpm": TypeRpmMd, "rpmmd": TypeRpmMd, "repomd": TypeRpmMd,
		"yum": TypeRpmMd, "up2date": TypeRpmMd,
		"yast2": TypeYast2, "yast": TypeYast2, "susetags": TypeYast2,
		"plaindir": TypePlainDir, "": TypeNone,
	}
	for input, want := range cases {
		got, err := parseRepoType(input)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
	}

	_, err := parseRepoType("bogus")
	assert.Error(t, err)
}
