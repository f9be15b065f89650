package version

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedHeader = `
/* library version */
#define CMP_VERSION_MAJOR 1
#define CMP_VERSION_MINOR 2
#define CMP_VERSION_RELEASE 3

#define CMP_OTHER_DEFINE 42
`

func TestExtract_WellFormedSource(t *testing.T) {
	triple, err := Extract([]byte(wellFormedHeader))

	require.NoError(t, err)
	assert.Equal(t, Triple{Major: 1, Minor: 2, Release: 3}, triple)
	assert.Equal(t, "1.2.3", triple.String())
}

func TestExtract_MultiDigitFields(t *testing.T) {
	src := []byte(`
#define CMP_VERSION_MAJOR 10
#define CMP_VERSION_MINOR 0
#define CMP_VERSION_RELEASE 27
`)
	triple, err := Extract(src)

	require.NoError(t, err)
	assert.Equal(t, "10.0.27", triple.String())
}

func TestExtract_MissingReleaseNamesField(t *testing.T) {
	src := []byte(`
#define CMP_VERSION_MAJOR 1
#define CMP_VERSION_MINOR 2
`)
	_, err := Extract(src)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "RELEASE")
	assert.Equal(t, "unable to find RELEASE version string", err.Error())
}

func TestExtract_MissingMajorNamesField(t *testing.T) {
	_, err := Extract([]byte("nothing here"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAJOR")
}

func TestExtract_TabSeparatedDefines(t *testing.T) {
	src := []byte("#define\tCMP_VERSION_MAJOR\t4\n" +
		"#define CMP_VERSION_MINOR 5\n" +
		"#define CMP_VERSION_RELEASE 6\n")

	triple, err := Extract(src)

	require.NoError(t, err)
	assert.Equal(t, "4.5.6", triple.String())
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmp.h")
	require.NoError(t, os.WriteFile(path, []byte(wellFormedHeader), 0o644))

	triple, err := ExtractFile(path)

	require.NoError(t, err)
	assert.Equal(t, "1.2.3", triple.String())
}

func TestExtractFile_MissingFile(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "missing.h"))
	require.Error(t, err)
}
