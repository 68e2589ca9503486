package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantapp/config"
	"plantapp/labels"
	"plantapp/models"
	"plantapp/service"
)

type fakeLabeler struct {
	result []labels.Label
	err    error
	images [][]byte
}

func (f *fakeLabeler) RequestLabels(_ context.Context, image []byte) ([]labels.Label, error) {
	f.images = append(f.images, image)
	return f.result, f.err
}

func newTestRouter(labeler *fakeLabeler, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, NewHandlers(service.NewService(labeler), maxUpload))
}

func multipartUpload(t *testing.T, path, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, "plant.jpg")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAnalyze(t *testing.T) {
	labeler := &fakeLabeler{result: []labels.Label{{Description: "Plant", Score: 0.987}, {Description: "Leaf", Score: 0.732}}}
	router := newTestRouter(labeler, 1<<20)

	w := serve(router, multipartUpload(t, EndPointAnalyze, UploadField, []byte("jpeg")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Plant (99%)", "Leaf (73%)"]`, w.Body.String())
	assert.Equal(t, [][]byte{[]byte("jpeg")}, labeler.images)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAnalyzeNoLabelsIsEmptyArray(t *testing.T) {
	router := newTestRouter(&fakeLabeler{result: []labels.Label{}}, 1<<20)

	w := serve(router, multipartUpload(t, EndPointAnalyze, UploadField, []byte("jpeg")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAnalyzeErrors(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantDetail string
	}{
		{
			name:       "service error",
			err:        &labels.ServiceError{Message: "Bad image data."},
			wantStatus: http.StatusBadGateway,
			wantError:  "vision_service_error",
			wantDetail: "Bad image data.",
		},
		{
			name:       "transport error",
			err:        labels.Transport("connect", assert.AnError),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "vision_transport_error",
			wantDetail: assert.AnError.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&fakeLabeler{err: tc.err}, 1<<20)

			w := serve(router, multipartUpload(t, EndPointAnalyze, UploadField, []byte("jpeg")))

			assert.Equal(t, tc.wantStatus, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantError, resp.Error)
			assert.Equal(t, tc.wantDetail, resp.Details)
		})
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	labeler := &fakeLabeler{}
	router := newTestRouter(labeler, 1<<20)

	w := serve(router, multipartUpload(t, EndPointAnalyze, "wrongField", []byte("jpeg")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_upload")
	assert.Empty(t, labeler.images)
}

func TestAnalyzeTooLarge(t *testing.T) {
	labeler := &fakeLabeler{}
	router := newTestRouter(labeler, 1024)

	w := serve(router, multipartUpload(t, EndPointAnalyze, UploadField, bytes.Repeat([]byte("x"), 4096)))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, labeler.images)
}

func TestAnalyzeRawBody(t *testing.T) {
	labeler := &fakeLabeler{result: []labels.Label{{Description: "Flower", Score: 0.5}}}
	router := newTestRouter(labeler, 1<<20)

	req := httptest.NewRequest(http.MethodPost, EndPointAnalyze, bytes.NewReader([]byte("png bytes")))
	req.Header.Set("Content-Type", "image/png")
	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["Flower (50%)"]`, w.Body.String())
	assert.Equal(t, [][]byte{[]byte("png bytes")}, labeler.images)
}

func TestLabels(t *testing.T) {
	router := newTestRouter(&fakeLabeler{result: []labels.Label{{Description: "Plant", Score: 0.987}}}, 1<<20)

	w := serve(router, multipartUpload(t, EndPointLabels, UploadField, []byte("jpeg")))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp models.LabelsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, []labels.Label{{Description: "Plant", Score: 0.987}}, resp.Labels)
}

func TestHealthAndVersion(t *testing.T) {
	router := newTestRouter(&fakeLabeler{}, 0)

	w := serve(router, httptest.NewRequest(http.MethodGet, EndPointHealth, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = serve(router, httptest.NewRequest(http.MethodGet, EndPointVersion, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"plantapp"`)
}

func TestLabelsEmpty(t *testing.T) {
	router := newTestRouter(&fakeLabeler{}, 1<<20)

	w := serve(router, multipartUpload(t, EndPointLabels, UploadField, []byte("jpeg")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"labels":[],"count":0}`, w.Body.String())
}
