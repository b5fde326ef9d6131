package convertapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestConvertUploadsMultipart(t *testing.T) {
	var gotPath, gotSecret, gotFileName, gotStoreFile, gotAngle string
	var gotData []byte

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSecret = r.URL.Query().Get("Secret")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotStoreFile = r.FormValue("StoreFile")
		gotAngle = r.FormValue("RotateAngle")

		file, header, err := r.FormFile("File")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		gotData, err = io.ReadAll(file)
		require.NoError(t, err)

		fmt.Fprint(w, `{"Files": [{"Url": "http://example.test/out", "FileName": "out.pdf", "FileSize": 5}]}`)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger())
	files, err := client.Convert(context.Background(), Route{From: "pdf", To: "pdf"},
		"s3cret", "scan.pdf", []byte("input-bytes"), map[string]string{"RotateAngle": "90"})
	require.NoError(t, err)

	assert.Equal(t, "/convert/pdf/to/pdf", gotPath)
	assert.Equal(t, "s3cret", gotSecret)
	assert.Equal(t, "scan.pdf", gotFileName)
	assert.Equal(t, []byte("input-bytes"), gotData)
	assert.Equal(t, "true", gotStoreFile)
	assert.Equal(t, "90", gotAngle)

	require.Len(t, files, 1)
	assert.Equal(t, "http://example.test/out", files[0].URL)
	assert.Equal(t, "out.pdf", files[0].FileName)
	assert.Equal(t, int64(5), files[0].FileSize)
}

func TestConvertOmitsFilePartForURLJobs(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("File")
		assert.Error(t, err)
		assert.Equal(t, "https://example.com", r.FormValue("Url"))

		fmt.Fprint(w, `{"Files": []}`)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger())
	_, err := client.Convert(context.Background(), Route{From: "web", To: "pdf"},
		"s3cret", "", nil, map[string]string{"Url": "https://example.com"})
	require.NoError(t, err)
}

func TestConvertUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"Code": 401, "Message": "invalid secret"}`)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger())
	_, err := client.Convert(context.Background(), Route{From: "pdf", To: "docx"},
		"bad", "doc.pdf", []byte("x"), nil)
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "invalid secret")
}

func TestConvertMalformedResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger())
	_, err := client.Convert(context.Background(), Route{From: "pdf", To: "docx"},
		"s3cret", "doc.pdf", []byte("x"), nil)
	assert.Error(t, err)
}

func TestConvertWithFractionalRateLimit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Files": [{"Url": "http://example.test/out", "FileName": "out.pdf", "FileSize": 1}]}`)
	}))
	defer upstream.Close()

	// A sub-1 rate truncates to a zero burst; the limiter must still
	// admit single calls.
	client := NewClient(upstream.URL, testLogger(), WithRateLimit(0.5, 0))
	files, err := client.Convert(context.Background(), Route{From: "pdf", To: "pdf"},
		"s3cret", "doc.pdf", []byte("x"), nil)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestDownload(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("converted-bytes"))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger())
	data, err := client.Download(context.Background(), upstream.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, []byte("converted-bytes"), data)
}

func TestDownloadRejectsOversizedBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 17))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger(), WithMaxOutputSize(16))
	_, err := client.Download(context.Background(), upstream.URL+"/file")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestDownloadAtSizeCap(t *testing.T) {
	body := make([]byte, 16)
	for i := range body {
		body[i] = byte(i)
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger(), WithMaxOutputSize(16))
	data, err := client.Download(context.Background(), upstream.URL+"/file")
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestDownloadErrorStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, testLogger())
	_, err := client.Download(context.Background(), upstream.URL+"/file")
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusGone, httpErr.StatusCode)
}
