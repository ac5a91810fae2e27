package history

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"researchkit/internal/reportdb"
)

func TestRunMissingDatabase(t *testing.T) {
	var out bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing.db")
	require.NoError(t, Run(t.Context(), &out, path, "", 0))
	assert.Contains(t, out.String(), "ResearchKit database not found at "+path)
	assert.Contains(t, out.String(), "Hint:")
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.db")
	db, err := reportdb.Open(path)
	require.NoError(t, err)
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, q := range []string{"older", "newer"} {
		_, err := reportdb.Insert(t.Context(), db, reportdb.Report{
			Kind:      reportdb.KindSummaries,
			Query:     q,
			Path:      "/r/" + q + ".txt",
			Items:     i + 1,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	var out bytes.Buffer
	require.NoError(t, Run(t.Context(), &out, path, "", 10))
	s := out.String()
	assert.True(t, strings.HasPrefix(s, "Showing 2 most recent reports:\n\n"))
	assert.Less(t, strings.Index(s, "Query: newer"), strings.Index(s, "Query: older"))
	assert.Contains(t, s, "Kind: yt-summaries\n")
	assert.Contains(t, s, "Path: /r/newer.txt\n")

	out.Reset()
	require.NoError(t, Run(t.Context(), &out, path, reportdb.KindExa, 10))
	assert.Equal(t, "No exa-search reports found.\n", out.String())
}
