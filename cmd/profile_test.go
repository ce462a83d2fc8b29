package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sheet-doctor/internal/loader"
	"github.com/sells-group/sheet-doctor/internal/model"
)

func TestProfileFile(t *testing.T) {
	useTestConfig(t)
	path := writeFixture(t, "people.csv", "Name,Email,Joined\n"+
		"Alice Smith,alice@example.com,2023-01-05\n"+
		"Bob Jones,bob@example.com,2023-02-11\n"+
		"Cara Lee,cara@example.com,2023-03-20\n")

	report, err := profileFile(path, tableFlags{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Summary.TotalRows)
	assert.Equal(t, 3, report.Summary.TotalColumns)
	email, ok := report.Column("Email")
	require.True(t, ok)
	assert.Equal(t, model.TypeEmail, email.DetectedType)
	joined, ok := report.Column("Joined")
	require.True(t, ok)
	assert.Equal(t, model.TypeDate, joined.DetectedType)
}

func TestProfileFile_Missing(t *testing.T) {
	useTestConfig(t)
	_, err := profileFile("does-not-exist.csv", tableFlags{})
	require.Error(t, err)
	assert.Equal(t, loader.KindNotFound, loader.KindOf(err))
}
