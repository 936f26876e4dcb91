package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/file-inspector/backend/internal/config"
	"github.com/file-inspector/backend/internal/session"
	"github.com/file-inspector/backend/internal/testutil"
	"github.com/file-inspector/backend/internal/upload"
	"github.com/file-inspector/backend/internal/web"
)

type testServer struct {
	e          *echo.Echo
	sessions   *session.Manager
	store      *testutil.MockStorage
	extractDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	store := testutil.NewMockStorage()
	extractDir := filepath.Join(dir, "extracted")
	sessions := session.NewManager(store, session.Options{
		TempDir:    dir,
		ExtractDir: extractDir,
	})
	t.Cleanup(sessions.Close)

	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	e.Renderer = renderer
	e.HTTPErrorHandler = ErrorHandler

	cfg := config.DefaultConfig()
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Sessions:  sessions,
		Intake:    upload.NewIntake(1 << 20),
		Dashboard: cfg.Dashboard,
		Version:   "test",
	}))

	return &testServer{e: e, sessions: sessions, store: store, extractDir: extractDir}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// multipartRequest builds a request uploading data as the "file" form field.
func multipartRequest(t *testing.T, target, name, contentType string, data []byte, fields map[string]string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := writer.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}
