package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/knachinen/darkmaptour-webscraping/app/models"
	"github.com/knachinen/darkmaptour-webscraping/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGazetteerCSV = "lv0,lv1,lv2,lv3,lv4\n서울특별시,강남구,,역삼동,\n서울특별시,종로구,,,\n부산광역시,해운대구,,우동,\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadItems(t *testing.T) {
	dir := t.TempDir()

	items, err := readItems(writeFile(t, dir, "mixed.json", `["서울특별시 강남구", {"content": "부산 기사", "title": "x"}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"서울특별시 강남구", "부산 기사"}, items)

	_, err = readItems(writeFile(t, dir, "object.json", `{"content": "x"}`))
	assert.Error(t, err)

	_, err = readItems(writeFile(t, dir, "bad.json", `[1]`))
	assert.Error(t, err)
}

func TestPendingItems(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	done := []*models.ProcessResult{{Index: 1}, {Index: 3}}

	pending, err := pendingItems(items, 0, -1, done)
	require.NoError(t, err)
	assert.Equal(t, []services.BatchItem{{Index: 0, Text: "a"}, {Index: 2, Text: "c"}}, pending)

	pending, err = pendingItems(items, 2, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []services.BatchItem{{Index: 2, Text: "c"}}, pending)

	_, err = pendingItems(items, 5, -1, nil)
	assert.Error(t, err)
}

func TestMergeResults(t *testing.T) {
	done := []*models.ProcessResult{{Index: 3}, {Index: 0}}
	fresh := []*models.ProcessResult{{Index: 2}, nil, {Index: 1}}

	merged := mergeResults(done, fresh)
	require.Len(t, merged, 4)
	for i, r := range merged {
		assert.Equal(t, i, r.Index)
	}
}

func TestMatchCommand(t *testing.T) {
	dir := t.TempDir()
	gaz := writeFile(t, dir, "gazetteer.csv", testGazetteerCSV)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"match", "-g", gaz, "-c", filepath.Join(dir, "none.yaml"), "서울특별시", "종로구"})
	require.NoError(t, cmd.Execute())

	var result models.MatchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "서울특별시 종로구", result.Query)
	assert.Equal(t, models.StatusMatched, result.Status)
	assert.Equal(t, "종로구", result.MatchedLv1)
}

func TestBatchCommand_QueriesWithResume(t *testing.T) {
	dir := t.TempDir()
	gaz := writeFile(t, dir, "gazetteer.csv", testGazetteerCSV)
	in := writeFile(t, dir, "queries.json", `["서울특별시 강남구", "부산광역시 해운대구", "서울특별시 종로구"]`)
	resume := filepath.Join(dir, "resume.json")
	require.NoError(t, services.NewCheckpointer(resume).Save([]*models.ProcessResult{
		{Index: 1, OriginalText: "from checkpoint", Status: models.StatusMatched},
	}))
	out := filepath.Join(dir, "results.json")

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"batch", "-g", gaz, "-c", filepath.Join(dir, "none.yaml"),
		"--queries", "--in", in, "--out", out, "--resume", resume,
		"--workers", "2", "--checkpoint-dir", filepath.Join(dir, "tmp")})
	require.NoError(t, cmd.Execute())

	results, err := services.LoadCheckpoint(out)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "강남구", results[0].MatchedLv1)
	assert.Equal(t, "from checkpoint", results[1].OriginalText)
	assert.Equal(t, "종로구", results[2].MatchedLv1)
	assert.Contains(t, stderr.String(), "Done: 3 results")

	checkpoints, err := filepath.Glob(filepath.Join(dir, "tmp", "temp_results_checkpoint__*.json"))
	require.NoError(t, err)
	assert.Len(t, checkpoints, 1)
}

func TestSeedCommand_DryRunAndSQLite(t *testing.T) {
	dir := t.TempDir()
	gaz := writeFile(t, dir, "gazetteer.csv", testGazetteerCSV)
	db := filepath.Join(dir, "gazetteer.db")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "-g", gaz, "--dry-run", "--postgres", ""})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Validation passed")

	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"seed", "-g", gaz, "--sqlite", db, "--postgres", "", "--mongo-url", "", "--meili-url", ""})
	require.NoError(t, cmd.Execute())

	// file .db được nạp lại bằng chính lệnh match
	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"match", "-g", db, "-c", filepath.Join(dir, "none.yaml"), "부산광역시 해운대구 우동"})
	require.NoError(t, cmd.Execute())

	var result models.MatchResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, "해운대구", result.MatchedLv1)
}
