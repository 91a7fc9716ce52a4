package dict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Minimal hunspell dictionary: word count line followed by one word per line.
const testDic = `3
accommodates
well
known
`

const testAff = `SET UTF-8
`

func writeDict(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	aff := filepath.Join(dir, "en_US.aff")
	dic := filepath.Join(dir, "en_US.dic")
	require.NoError(t, os.WriteFile(aff, []byte(testAff), 0o644))
	require.NoError(t, os.WriteFile(dic, []byte(testDic), 0o644))
	return dir, "en_US"
}

func TestHunspellLookup(t *testing.T) {
	dir, lang := writeDict(t)

	oracle, err := OpenLanguage(dir, lang)
	require.NoError(t, err)

	assert.True(t, oracle.IsValidWord("accommodates"))
	assert.False(t, oracle.IsValidWord("wellknown"))
	assert.False(t, oracle.IsValidWord(""))
	assert.Equal(t, "en_US", oracle.Language())
	assert.True(t, IsAvailable(oracle))
}

func TestOpenLanguageMissing(t *testing.T) {
	_, err := OpenLanguage(t.TempDir(), "xx_XX")
	require.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	var oracle Oracle = Unavailable{}
	assert.False(t, oracle.IsValidWord("accommodates"))
	assert.False(t, IsAvailable(oracle))
	assert.False(t, IsAvailable(nil))
}
