package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/config"
	"github.com/ukaji3/xlsxflow-go/pkg/xlsxflow/session"
	"github.com/xuri/excelize/v2"
)

func testConfig(t *testing.T, mutate func(*config.Config)) *config.Config {
	t.Helper()
	cfg, err := config.Load(viper.New(), "")
	require.NoError(t, err)
	cfg.Convert.Command = ""
	if mutate != nil {
		mutate(cfg)
	}
	return cfg
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *httptest.Server, *http.Client) {
	t.Helper()
	cfg := testConfig(t, mutate)
	srv, err := New(cfg, session.NewStore(time.Hour, 5))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, ts, &http.Client{Jar: jar}
}

// scoreBook has a small table on Sheet1 and a merged title in D1:E1.
func scoreBook(t *testing.T) []byte {
	t.Helper()
	wb := xlsxflow.New("book.xlsx")
	f := wb.File
	for ref, v := range map[string]interface{}{
		"A1": "name", "B1": "score",
		"A2": "a", "B2": 1,
		"A3": "b", "B3": 3,
		"D1": "Title",
	} {
		require.NoError(t, f.SetCellValue("Sheet1", ref, v))
	}
	require.NoError(t, f.MergeCell("Sheet1", "D1", "E1"))
	data, err := wb.Bytes()
	require.NoError(t, err)
	return data
}

func uploadBody(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, ts *httptest.Server, client *http.Client, name string, data []byte) string {
	t.Helper()
	body, ctype := uploadBody(t, name, data)
	resp, err := client.Post(ts.URL+"/upload", ctype, body)
	require.NoError(t, err)
	return readBody(t, resp, http.StatusOK)
}

func readBody(t *testing.T, resp *http.Response, want int) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, want, resp.StatusCode, string(b))
	return string(b)
}

func postForm(t *testing.T, ts *httptest.Server, client *http.Client, path string, form url.Values) string {
	t.Helper()
	resp, err := client.PostForm(ts.URL+path, form)
	require.NoError(t, err)
	return readBody(t, resp, http.StatusOK)
}

func get(t *testing.T, ts *httptest.Server, client *http.Client, path string, want int) string {
	t.Helper()
	resp, err := client.Get(ts.URL + path)
	require.NoError(t, err)
	return readBody(t, resp, want)
}

func download(t *testing.T, ts *httptest.Server, client *http.Client) *excelize.File {
	t.Helper()
	resp, err := client.Get(ts.URL + "/download")
	require.NoError(t, err)
	assert.Equal(t, xlsxMIME, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
	body := readBody(t, resp, http.StatusOK)
	f, err := excelize.OpenReader(strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestHealth(t *testing.T) {
	_, ts, client := newTestServer(t, nil)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(get(t, ts, client, "/healthz", http.StatusOK)), &out))
	assert.Equal(t, "ok", out["status"])
}

func TestIndexStartsSession(t *testing.T) {
	srv, ts, client := newTestServer(t, nil)

	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp, http.StatusOK)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "session cookie set")
	assert.Contains(t, body, `action="/upload"`)
	assert.Contains(t, body, "op: unmerge", "example recipe shown")

	get(t, ts, client, "/", http.StatusOK)
	assert.Equal(t, 1, srv.sessions.Len(), "cookie reuses the session")
}

func TestUploadPreviewAndDownload(t *testing.T) {
	_, ts, client := newTestServer(t, nil)

	page := upload(t, ts, client, "book.xlsx", scoreBook(t))
	assert.Contains(t, page, "Loaded book.xlsx: 1 sheet(s)")
	assert.Contains(t, page, "Title")
	assert.Contains(t, page, `colspan="2"`)
	assert.Contains(t, page, "1 merged region(s)")

	f := download(t, ts, client)
	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "name", v)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(get(t, ts, client, "/api/workbook", http.StatusOK)), &data))
	assert.Equal(t, "book.xlsx", data["book_name"])
	assert.Contains(t, data["sheets"], "Sheet1")
}

func TestApplyAndUndo(t *testing.T) {
	_, ts, client := newTestServer(t, nil)
	upload(t, ts, client, "book.xlsx", scoreBook(t))

	page := postForm(t, ts, client, "/apply", url.Values{"recipe": {`
name: stamp
steps:
  - op: set_value
    sheet: Sheet1
    cell: A5
    value: 42
`}})
	assert.Contains(t, page, "Applied 1 step(s), 1 cell(s) touched.")
	assert.Contains(t, page, "Last run: stamp")

	f := download(t, ts, client)
	v, err := f.GetCellValue("Sheet1", "A5")
	require.NoError(t, err)
	assert.Equal(t, "42", v)

	page = postForm(t, ts, client, "/undo", nil)
	assert.Contains(t, page, "Restored the &#34;upload&#34; version.")
	assert.NotContains(t, page, "Last run")

	f = download(t, ts, client)
	v, err = f.GetCellValue("Sheet1", "A5")
	require.NoError(t, err)
	assert.Empty(t, v)

	page = postForm(t, ts, client, "/undo", nil)
	assert.Contains(t, page, "nothing to undo")
}

func TestApplyFailureKeepsWorkbook(t *testing.T) {
	_, ts, client := newTestServer(t, nil)
	upload(t, ts, client, "book.xlsx", scoreBook(t))

	page := postForm(t, ts, client, "/apply", url.Values{"recipe": {"steps:\n  - op: explode\n"}})
	assert.Contains(t, page, "invalid recipe")
	assert.Contains(t, page, "op: explode", "recipe text kept for editing")

	page = postForm(t, ts, client, "/apply", url.Values{"recipe": {`
steps:
  - op: set_value
    sheet: Sheet1
    cell: A9
    value: x
  - op: delete_sheet
    sheet: Missing
`}})
	assert.Contains(t, page, "delete_sheet")

	f := download(t, ts, client)
	v, err := f.GetCellValue("Sheet1", "A9")
	require.NoError(t, err)
	assert.Empty(t, v, "partial runs are not kept")
}

func TestApplyWithoutWorkbook(t *testing.T) {
	_, ts, client := newTestServer(t, nil)
	page := postForm(t, ts, client, "/apply", url.Values{"recipe": {exampleRecipe}})
	assert.Contains(t, page, ErrNoWorkbook.Error())
}

func TestReset(t *testing.T) {
	_, ts, client := newTestServer(t, nil)
	upload(t, ts, client, "book.xlsx", scoreBook(t))

	page := postForm(t, ts, client, "/reset", nil)
	assert.Contains(t, page, "Workbook cleared.")
	get(t, ts, client, "/api/workbook", http.StatusNotFound)
}

func TestDescribe(t *testing.T) {
	_, ts, client := newTestServer(t, nil)
	upload(t, ts, client, "book.xlsx", scoreBook(t))

	var out describeResponse
	body := get(t, ts, client, "/api/sheets/Sheet1/describe?range=A1:B3", http.StatusOK)
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "Sheet1", out.Sheet)
	assert.Equal(t, 2, out.Rows)
	require.Len(t, out.Columns, 2)
	assert.Equal(t, "score", out.Columns[1].Name)
	assert.InDelta(t, 2.0, out.Columns[1].Mean, 1e-9)

	get(t, ts, client, "/api/sheets/Nope/describe", http.StatusNotFound)
}

func TestDownloadURL(t *testing.T) {
	_, ts, client := newTestServer(t, nil)
	data := scoreBook(t)
	upload(t, ts, client, "book.xlsx", data)

	var out downloadURL
	require.NoError(t, json.Unmarshal([]byte(get(t, ts, client, "/api/download-url", http.StatusOK)), &out))
	assert.Equal(t, "book.xlsx", out.Name)
	assert.True(t, strings.HasPrefix(out.Href, "data:"+xlsxMIME+";base64,"))
	assert.Positive(t, out.Size)
}

func TestDownloadURLTooLarge(t *testing.T) {
	_, ts, client := newTestServer(t, func(c *config.Config) { c.InlineLimit = 10 })
	upload(t, ts, client, "book.xlsx", scoreBook(t))

	body := get(t, ts, client, "/api/download-url", http.StatusRequestEntityTooLarge)
	assert.Contains(t, body, "inline limit")
}

func TestAPIWithoutWorkbook(t *testing.T) {
	_, ts, client := newTestServer(t, nil)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(get(t, ts, client, "/api/workbook", http.StatusNotFound)), &out))
	assert.Equal(t, ErrNoWorkbook.Error(), out["error"])
	get(t, ts, client, "/api/download-url", http.StatusNotFound)
}

func TestFetch(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, "city,pop\nOslo,700000\nBergen,290000\n")
	}))
	defer remote.Close()

	_, ts, client := newTestServer(t, nil)
	page := postForm(t, ts, client, "/fetch", url.Values{"url": {remote.URL + "/cities.csv"}})
	assert.Contains(t, page, "private network", "loopback is refused by default")
	assert.NotContains(t, page, "Bergen")

	// httptest servers listen on loopback.
	_, ts, client = newTestServer(t, func(c *config.Config) { c.Fetch.AllowPrivate = true })
	page = postForm(t, ts, client, "/fetch", url.Values{"url": {remote.URL + "/cities.csv"}})
	assert.Contains(t, page, "Loaded cities.xlsx")
	assert.Contains(t, page, "Bergen")

	page = postForm(t, ts, client, "/fetch", url.Values{"url": {"ftp://example.com/x.csv"}})
	assert.Contains(t, page, "unsupported url scheme")
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig(t, func(c *config.Config) { c.MaxUpload = 100 })
	srv, err := New(cfg, session.NewStore(time.Hour, 5))
	require.NoError(t, err)
	h := srv.Handler()

	body, ctype := uploadBody(t, "book.xlsx", scoreBook(t))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "File too large: the limit is 100 B.")
}

func TestUploadGarbage(t *testing.T) {
	_, ts, client := newTestServer(t, nil)
	page := upload(t, ts, client, "notes.txt", []byte("\x00\x01\x02 not a spreadsheet"))
	assert.Contains(t, page, `class="banner error"`)
	get(t, ts, client, "/api/workbook", http.StatusNotFound)
}
