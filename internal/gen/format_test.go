package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFile_PrunesImports(t *testing.T) {
	src := `package app

import (
	"context"
	"iter"
	str "strings"
	_ "embed"
	. "math"
	"automap-generator/automap"
)

func (source *User) ToUserDto() UserDto {
	if source == nil { panic(automap.ErrNilSource) }
	var out UserDto
	out.Name = str.TrimSpace(source.Name)
	out.Score = Abs(source.Score)
	return out
}
`

	out, err := formatFile("User_To_UserDto.g.go", []byte(src))
	require.NoError(t, err)

	code := string(out)
	assert.Contains(t, code, `str "strings"`)
	assert.Contains(t, code, `. "math"`)
	assert.Contains(t, code, `"automap-generator/automap"`)
	assert.NotContains(t, code, `"context"`)
	assert.NotContains(t, code, `"iter"`)
	assert.NotContains(t, code, `"embed"`)
	assert.Contains(t, code, "\tif source == nil {\n\t\tpanic(automap.ErrNilSource)\n\t}")
}

func TestFormatFile_LocalSelectorsDoNotKeepImports(t *testing.T) {
	src := `package app

import "strings"

func f(strings struct{ X int }) int { return strings.X }
`

	out, err := formatFile("f.go", []byte(src))
	require.NoError(t, err)
	assert.NotContains(t, string(out), `import "strings"`)
}

func TestFormatFile_SyntaxError(t *testing.T) {
	_, err := formatFile("broken.go", []byte("package app\nfunc {"))
	require.Error(t, err)
}

func TestWriteDebugUnformatted(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, writeDebugUnformatted(dir, "User_To_UserDto.g.go", []byte("broken")))

	data, err := os.ReadFile(filepath.Join(dir, "User_To_UserDto.g.unformatted.go"))
	require.NoError(t, err)
	assert.Equal(t, "broken", string(data))

	assert.NoError(t, writeDebugUnformatted("", "x.go", nil))
}
