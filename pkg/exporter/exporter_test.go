package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhonben94/fide-Scraper/pkg/logger"
	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(logger.Config{Level: "error", Environment: "development", ServiceName: "test"})
	require.NoError(t, err)
	return l
}

func samplePlayers() []writer.PlayerRecord {
	rating := 2830
	title := "GM"
	return []writer.PlayerRecord{
		{FideID: 1503014, Name: "Carlsen, Magnus", Country: "NOR", Rating: &rating, Title: &title},
		{FideID: 2296149, Name: "Anonymous", Country: "ESP"},
	}
}

func TestWriteJSON(t *testing.T) {
	e := New(t.TempDir(), testLogger(t))

	path, err := e.WriteJSON(samplePlayers(), "players.json")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []writer.PlayerRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, samplePlayers(), got)
}

func TestWriteJSONTimestampedName(t *testing.T) {
	e := New(t.TempDir(), testLogger(t))

	path, err := e.WriteJSON(samplePlayers(), "")
	require.NoError(t, err)
	assert.Regexp(t, `players_\d{8}_\d{6}\.json$`, filepath.Base(path))
}

func TestWriteCSV(t *testing.T) {
	e := New(t.TempDir(), testLogger(t))

	path, err := e.WriteCSV(samplePlayers(), "players.csv")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "1503014", rows[1][0])
	assert.Equal(t, "2830", rows[1][5])
	// null fields are empty cells
	assert.Equal(t, "", rows[2][5])
	assert.Equal(t, "", rows[2][4])
}

func TestWriteCSVEmpty(t *testing.T) {
	e := New(t.TempDir(), testLogger(t))
	_, err := e.WriteCSV(nil, "players.csv")
	assert.Error(t, err)
}

func TestWriteByCountry(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, testLogger(t))

	paths, err := e.WriteByCountry(samplePlayers())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(paths["NOR"])
	require.NoError(t, err)
	var got []writer.PlayerRecord
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Carlsen, Magnus", got[0].Name)
}
