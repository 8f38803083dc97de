//go:build integration

package router_test

// Integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flowmrp/internal/config"
	"flowmrp/internal/dto"
	"flowmrp/internal/infra"
	"flowmrp/internal/model"
	"flowmrp/internal/repository"
	"flowmrp/internal/router"
	"flowmrp/internal/session"
	"flowmrp/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/xuri/excelize/v2"
)

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

type testEnv struct {
	server *httptest.Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("flowmrp_test"),
		tcPostgres.WithUsername("flowmrp"),
		tcPostgres.WithPassword("flowmrp"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:                    8000,
		Env:                     "test",
		WorkerPoolSize:          1,
		DatabaseURL:             pgURL,
		RedisURL:                rdURL,
		UploadSessionTTLMinutes: 5,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed the item master; the BOM surface only reads it.
	items := []model.Item{
		{Code: "FG-100", Name: "Desk Frame", Unit: "EA", Active: true},
		{Code: "FG-200", Name: "Desk Frame Wide", Unit: "EA", Active: true},
		{Code: "SA-10", Name: "Leg Assembly", Unit: "EA", Active: true},
		{Code: "RM-01", Name: "Steel Tube", Unit: "m", Active: true},
		{Code: "RM-02", Name: "Bolt M8", Unit: "EA", Active: true},
	}
	for i := range items {
		require.NoError(t, db.Create(&items[i]).Error)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	worker.StartWorkerPool(workerCtx, rdb, worker.NewAuditWorker(repository.NewAuditRepository(db)), cfg.WorkerPoolSize)

	uploads := session.NewStore(time.Duration(cfg.UploadSessionTTLMinutes) * time.Minute)
	r := router.New(cfg, db, rdb, uploads)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv}
}

func TestIntegration_EdgeLifecycleAndTree(t *testing.T) {
	env := setupTestEnv(t)

	// Register structure: FG-100 → SA-10 → {RM-01, RM-02}
	for _, e := range []map[string]any{
		{"parent_code": "FG-100", "child_code": "SA-10", "quantity": "4", "unit": "EA"},
		{"parent_code": "SA-10", "child_code": "RM-01", "quantity": "1.2", "unit": "m"},
		{"parent_code": "SA-10", "child_code": "RM-02", "quantity": "8"},
	} {
		resp := do(t, env.server, "POST", "/v1/bom/edges", jsonBody(t, e))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// Duplicate pair is rejected.
	dupResp := do(t, env.server, "POST", "/v1/bom/edges", jsonBody(t, map[string]any{
		"parent_code": "FG-100", "child_code": "SA-10", "quantity": "1",
	}))
	assert.Equal(t, http.StatusBadRequest, dupResp.StatusCode)
	dupResp.Body.Close()

	// The tree comes back with names resolved and the omitted unit defaulted.
	treeResp := do(t, env.server, "GET", "/v1/bom/tree/FG-100", nil)
	require.Equal(t, http.StatusOK, treeResp.StatusCode)
	var tree dto.TreeNode
	decodeJSON(t, treeResp, &tree)
	assert.Equal(t, "FG-100", tree.ItemCode)
	assert.Equal(t, "Desk Frame", tree.ItemName)
	assert.Nil(t, tree.Quantity)
	require.Len(t, tree.Children, 1)
	sub := tree.Children[0]
	assert.Equal(t, "SA-10", sub.ItemCode)
	require.Len(t, sub.Children, 2)
	assert.Equal(t, "EA", sub.Children[1].Unit)
}

func TestIntegration_CopyAndBottomUpDelete(t *testing.T) {
	env := setupTestEnv(t)

	for _, e := range []map[string]any{
		{"parent_code": "FG-100", "child_code": "SA-10", "quantity": "4"},
		{"parent_code": "SA-10", "child_code": "RM-01", "quantity": "1.2", "unit": "m"},
	} {
		resp := do(t, env.server, "POST", "/v1/bom/edges", jsonBody(t, e))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// Copy FG-100's structure onto FG-200: the first level is re-parented,
	// the deeper (SA-10, RM-01) pair already exists and is skipped.
	copyResp := do(t, env.server, "POST", "/v1/bom/copy", jsonBody(t, map[string]any{
		"source_code": "FG-100", "target_code": "FG-200",
	}))
	require.Equal(t, http.StatusOK, copyResp.StatusCode)
	var summary dto.CopySummary
	decodeJSON(t, copyResp, &summary)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)

	// Deleting the top edge is rejected while SA-10 still has components.
	var edges []dto.EdgeResponse
	listResp := do(t, env.server, "GET", "/v1/bom/edges?parent=FG-100", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	decodeJSON(t, listResp, &edges)
	require.Len(t, edges, 1)

	delResp := do(t, env.server, "DELETE", "/v1/bom/edges/"+edges[0].ID, nil)
	assert.Equal(t, http.StatusBadRequest, delResp.StatusCode)
	delResp.Body.Close()

	// Clearing SA-10's own edges first makes the top edge removable.
	clearResp := do(t, env.server, "DELETE", "/v1/bom/parents/SA-10/edges", nil)
	require.Equal(t, http.StatusOK, clearResp.StatusCode)
	var cleared dto.BulkDeleteResponse
	decodeJSON(t, clearResp, &cleared)
	assert.Equal(t, 1, cleared.Deleted)

	delResp = do(t, env.server, "DELETE", "/v1/bom/edges/"+edges[0].ID, nil)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	delResp.Body.Close()
}

func TestIntegration_StagedUploadCommit(t *testing.T) {
	env := setupTestEnv(t)

	// Download the template, fill in two rows, and push it back through the
	// staged multipart flow: upload → preview → commit.
	tmplResp := do(t, env.server, "GET", "/v1/bom/template", nil)
	require.Equal(t, http.StatusOK, tmplResp.StatusCode)
	tmplData, err := io.ReadAll(tmplResp.Body)
	tmplResp.Body.Close()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(tmplData))
	require.NoError(t, err)
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A2", "Desk Frame"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "Leg Assembly"))
	require.NoError(t, f.SetCellValue(sheet, "C2", "4"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "Steel Tube"))
	require.NoError(t, f.SetCellValue(sheet, "C3", "2.5"))
	require.NoError(t, f.SetCellValue(sheet, "D3", "m"))
	filled, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	body, contentType := multipartUpload(t, filled.Bytes())
	req, err := http.NewRequest("POST", env.server.URL+"/v1/bom/upload", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	uploadResp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, uploadResp.StatusCode)

	var staged dto.UploadSessionResponse
	decodeJSON(t, uploadResp, &staged)
	require.NotEmpty(t, staged.Token)
	require.Len(t, staged.Rows, 2)
	assert.Equal(t, "Leg Assembly", staged.Rows[0].ChildName)

	commitResp := do(t, env.server, "POST", "/v1/bom/upload/"+staged.Token+"/commit", nil)
	require.Equal(t, http.StatusOK, commitResp.StatusCode)
	var committed dto.IngestSummary
	decodeJSON(t, commitResp, &committed)
	assert.Equal(t, 2, committed.Created)

	// The session is consumed by the commit.
	replayResp := do(t, env.server, "POST", "/v1/bom/upload/"+staged.Token+"/commit", nil)
	assert.Equal(t, http.StatusNotFound, replayResp.StatusCode)
	replayResp.Body.Close()

	// The committed edges show up in the tree with forward-filled parentage.
	treeResp := do(t, env.server, "GET", "/v1/bom/tree/FG-100", nil)
	require.Equal(t, http.StatusOK, treeResp.StatusCode)
	var tree dto.TreeNode
	decodeJSON(t, treeResp, &tree)
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "SA-10", tree.Children[0].ItemCode)
	assert.Equal(t, "RM-01", tree.Children[1].ItemCode)
}

func TestIntegration_DirectIngestUpsert(t *testing.T) {
	env := setupTestEnv(t)

	ingestResp := do(t, env.server, "POST", "/v1/bom/ingest", jsonBody(t, map[string]any{
		"rows": []map[string]any{
			{"parent_name": "Desk Frame", "child_name": "Leg Assembly", "quantity": "4", "unit": "EA"},
			{"parent_name": "", "child_name": "Steel Tube", "quantity": "2.5", "unit": "m"},
		},
	}))
	require.Equal(t, http.StatusOK, ingestResp.StatusCode)
	var ingest dto.IngestSummary
	decodeJSON(t, ingestResp, &ingest)
	assert.Equal(t, 2, ingest.Created)

	// Re-ingesting the same rows updates in place.
	againResp := do(t, env.server, "POST", "/v1/bom/ingest", jsonBody(t, map[string]any{
		"rows": []map[string]any{
			{"parent_name": "Desk Frame", "child_name": "Leg Assembly", "quantity": "6"},
		},
	}))
	require.Equal(t, http.StatusOK, againResp.StatusCode)
	var again dto.IngestSummary
	decodeJSON(t, againResp, &again)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 1, again.Updated)
}

func TestIntegration_UnknownUploadToken(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "POST", "/v1/bom/upload/00000000-0000-0000-0000-000000000000/commit", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestIntegration_Health(t *testing.T) {
	env := setupTestEnv(t)

	resp := do(t, env.server, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

// multipartUpload builds a multipart body with the given file bytes under the
// "file" field.
func multipartUpload(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	fw, err := w.CreateFormFile("file", "bom.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}
