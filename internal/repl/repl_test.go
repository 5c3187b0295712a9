package repl

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/joeandaverde/tinytable/internal/backend"
)

func runScript(t *testing.T, dbPath string, commands ...string) []string {
	t.Helper()

	log, _ := test.NewNullLogger()
	engine, err := backend.Start(log, backend.Config{Path: dbPath})
	require.NoError(t, err)

	in := strings.NewReader(strings.Join(commands, "\n") + "\n")
	out := bytes.Buffer{}

	require.NoError(t, New(log, engine, in, &out).Run())

	return strings.Split(out.String(), "\n")
}

func testDB(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test.db")
}

func TestREPL_InsertAndSelect(t *testing.T) {
	result := runScript(t, testDB(t),
		"insert 1 firstuser first@example.com",
		"select",
		".exit",
	)

	require.Equal(t, []string{
		"Database > Executed.",
		"Database > (1, firstuser, first@example.com)",
		"Executed.",
		"Database > ",
	}, result)
}

func TestREPL_TableFull(t *testing.T) {
	var script []string
	for i := 1; i <= 1401; i++ {
		script = append(script, fmt.Sprintf("insert %d user%d user%d@example.com", i, i, i))
	}
	script = append(script, ".exit")

	result := runScript(t, testDB(t), script...)
	require.Equal(t, "Database > Error: Table full.", result[len(result)-2])
}

func TestREPL_MaxLength(t *testing.T) {
	username := strings.Repeat("a", 32)
	email := strings.Repeat("a", 255)

	result := runScript(t, testDB(t),
		fmt.Sprintf("insert 1 %s %s", username, email),
		"select",
		".exit",
	)

	require.Equal(t, []string{
		"Database > Executed.",
		fmt.Sprintf("Database > (1, %s, %s)", username, email),
		"Executed.",
		"Database > ",
	}, result)
}

func TestREPL_StringTooLong(t *testing.T) {
	result := runScript(t, testDB(t),
		fmt.Sprintf("insert 1 %s %s", strings.Repeat("a", 33), strings.Repeat("a", 256)),
		"select",
		".exit",
	)

	require.Equal(t, []string{
		"Database > String is too long.",
		"Database > Executed.",
		"Database > ",
	}, result)
}

func TestREPL_NegativeID(t *testing.T) {
	result := runScript(t, testDB(t),
		"insert -1 firstuser firstuser@example.com",
		"select",
		".exit",
	)

	require.Equal(t, []string{
		"Database > ID must be a positive number.",
		"Database > Executed.",
		"Database > ",
	}, result)
}

func TestREPL_Persistence(t *testing.T) {
	dbPath := testDB(t)

	result := runScript(t, dbPath,
		"insert 1 firstuser firstuser@example.com",
		".exit",
	)
	require.Equal(t, []string{
		"Database > Executed.",
		"Database > ",
	}, result)

	result = runScript(t, dbPath,
		"select",
		".exit",
	)
	require.Equal(t, []string{
		"Database > (1, firstuser, firstuser@example.com)",
		"Executed.",
		"Database > ",
	}, result)
}

func TestREPL_PersistenceOnEndOfInput(t *testing.T) {
	dbPath := testDB(t)

	runScript(t, dbPath, "insert 1 firstuser firstuser@example.com")

	result := runScript(t, dbPath, "select")
	require.Equal(t, "Database > (1, firstuser, firstuser@example.com)", result[0])
}

func TestREPL_Unrecognized(t *testing.T) {
	result := runScript(t, testDB(t),
		".tables",
		"delete 1",
		"insert 1 firstuser",
		".exit",
	)

	require.Equal(t, []string{
		"Database > Unrecognized command '.tables'",
		"Database > Unrecognized keyword at start of 'delete 1'.",
		"Database > Syntax error. Could not parse statement.",
		"Database > ",
	}, result)
}

func TestInterpreter_Execute(t *testing.T) {
	assert := require.New(t)

	log := logrus.New()
	engine, err := backend.Start(log, backend.Config{Path: testDB(t)})
	assert.NoError(err)
	defer engine.Close()

	interp := NewInterpreter(log, engine)
	out := bytes.Buffer{}

	exit, err := interp.Execute("  insert 7 joe joe@example.com  ", &out)
	assert.NoError(err)
	assert.False(exit)
	assert.Equal("Executed.\n", out.String())

	exit, err = interp.Execute(".exit", &out)
	assert.NoError(err)
	assert.True(exit)
}
