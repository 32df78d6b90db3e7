package proctoring_test

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaishnavucv/droid-proctoring/internal/analysis"
	"github.com/vaishnavucv/droid-proctoring/internal/api"
	"github.com/vaishnavucv/droid-proctoring/internal/test"
	"github.com/vaishnavucv/droid-proctoring/internal/types"
)

func imagePayload(raw string) *string {
	return swag.String("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(raw)))
}

func TestPostLogAndGetLogsRoundtrip(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		payload := types.PostProctoringLogPayload{
			Username:     swag.String("alice"),
			UserID:       swag.String("u1"),
			WarningCount: 1,
			Type:         swag.String("fullscreen: exited fullscreen"),
			Duration:     "00:00:05",
			Timestamp:    "10:00:05",
		}
		res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/log", payload, nil)
		require.Equal(t, http.StatusOK, res.Code)

		res = test.PerformRequest(t, s, "GET", "/api/v1/proctoring/logs/alice_u1", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var response types.ProctoringLogsResponse
		test.ParseResponseAndValidate(t, res, &response)
		assert.True(t, response.Success)
		require.Len(t, response.Logs, 1)
		assert.Equal(t, 1, response.Logs[0].WarningCount)
		assert.Equal(t, "fullscreen: exited fullscreen", response.Logs[0].Type)
		assert.Equal(t, "N/A", response.Logs[0].Justification)
	})
}

func TestPostLogRejectsMissingType(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		payload := types.PostProctoringLogPayload{
			Username: swag.String("alice"),
			UserID:   swag.String("u1"),
		}
		res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/log", payload, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func performMultipartRecord(t *testing.T, s *api.Server, folder, sessionKey, streamType string, chunk []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("folder", folder))
	require.NoError(t, writer.WriteField("sessionKey", sessionKey))
	require.NoError(t, writer.WriteField("type", streamType))
	part, err := writer.CreateFormFile("chunk", "chunk.webm")
	require.NoError(t, err)
	_, err = part.Write(chunk)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/proctoring/record", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)
	return res
}

func TestRecordListAndStream(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		folder := "alice_u1_2025-03-01_10-00-00"
		sessionKey := "u1_c1_2025-03-01T10-00-00-000Z"

		res := performMultipartRecord(t, s, folder, sessionKey, "screen", []byte("first"))
		require.Equal(t, http.StatusOK, res.Code)
		res = performMultipartRecord(t, s, folder, sessionKey, "screen", []byte("-second"))
		require.Equal(t, http.StatusOK, res.Code)

		res = test.PerformRequest(t, s, "GET", "/api/v1/proctoring/sessions", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var sessions types.SessionListResponse
		test.ParseResponseAndValidate(t, res, &sessions)
		require.Len(t, sessions.Sessions, 1)
		assert.Equal(t, folder, sessions.Sessions[0].ID)

		res = test.PerformRequest(t, s, "GET", "/api/v1/proctoring/sessions/"+folder+"/chunks", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var chunks types.ChunkListResponse
		test.ParseResponseAndValidate(t, res, &chunks)
		require.Len(t, chunks.Chunks, 1)
		assert.Equal(t, "screen", chunks.Chunks[0].Type)
		assert.Equal(t, int64(len("first-second")), chunks.Chunks[0].Size)

		req := httptest.NewRequest("GET", chunks.Chunks[0].URL, nil)
		rec := httptest.NewRecorder()
		s.Echo.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "first-second", rec.Body.String())

		// Reviewers scrub via Range requests.
		req = httptest.NewRequest("GET", chunks.Chunks[0].URL, nil)
		req.Header.Set("Range", "bytes=6-")
		rec = httptest.NewRecorder()
		s.Echo.ServeHTTP(rec, req)
		require.Equal(t, http.StatusPartialContent, rec.Code)
		assert.Equal(t, "second", rec.Body.String())
	})
}

func TestRecordRejectsUnknownStreamType(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := performMultipartRecord(t, s, "f", "k", "microphone", []byte("x"))
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestChunksOfUnknownSessionIs404(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/proctoring/sessions/nope/chunks", nil, nil)
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestSessionTimeline(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		events := []types.PostProctoringLogPayload{
			{Username: swag.String("alice"), UserID: swag.String("u1"), WarningCount: 1, Type: swag.String("fullscreen: exited fullscreen"), Duration: "00:00:05", Timestamp: "10:00:05"},
			{Username: swag.String("alice"), UserID: swag.String("u1"), WarningCount: 2, Type: swag.String("ai-alert: prohibited content on screen"), Duration: "00:01:30", Timestamp: "10:01:30"},
			{Username: swag.String("alice"), UserID: swag.String("u1"), WarningCount: 3, Type: swag.String("fullscreen"), Duration: "00:02:00", Timestamp: "10:02:00"},
		}
		for _, event := range events {
			res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/log", event, nil)
			require.Equal(t, http.StatusOK, res.Code)
		}

		res := test.PerformRequest(t, s, "GET", "/api/v1/proctoring/sessions/alice_u1/timeline?at=105", nil, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var response types.TimelineResponse
		test.ParseResponseAndValidate(t, res, &response)
		require.Len(t, response.Entries, 3)
		assert.Equal(t, 5, response.Entries[0].Offset)
		assert.Equal(t, map[string]int{"fullscreen": 2, "ai-alert": 1}, response.Summary)
		require.NotNil(t, response.ActiveIndex)
		assert.Equal(t, 1, *response.ActiveIndex)
	})
}

func TestAnalyzeScreenAlert(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		s.Classifier.(*test.StubClassifier).ScreenVerdict = &analysis.ScreenVerdict{
			Alert:  true,
			Reason: "external IDE visible",
		}

		payload := types.PostAnalyzePayload{
			Image:  imagePayload("screenframe"),
			Source: swag.String("screen"),
		}
		res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/analyze", payload, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var response types.AnalyzeResponse
		test.ParseResponseAndValidate(t, res, &response)
		assert.True(t, response.Alert)
		assert.Equal(t, "external IDE visible", response.Reason)
	})
}

func TestAnalyzeRejectsBadSource(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		payload := types.PostAnalyzePayload{
			Image:  imagePayload("frame"),
			Source: swag.String("microphone"),
		}
		res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/analyze", payload, nil)
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestFaceCheckWithoutReference(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		payload := types.PostFaceCheckPayload{
			Image:  imagePayload("frame"),
			Folder: swag.String("alice_u1_2025-03-01_10-00-00"),
			UserID: swag.String("u1"),
		}
		res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/face/check", payload, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var response types.FaceCheckResponse
		test.ParseResponseAndValidate(t, res, &response)
		assert.True(t, response.Success)
		assert.False(t, response.Alert)
		assert.Equal(t, "No reference face registered yet", response.Reason)
	})
}

func TestFaceRegisterThenCheckFlagsSecondPerson(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		folder := "alice_u1_2025-03-01_10-00-00"

		register := types.PostFaceRegisterPayload{
			Image:  imagePayload("reference"),
			Folder: swag.String(folder),
			UserID: swag.String("u1"),
		}
		res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/face/register", register, nil)
		require.Equal(t, http.StatusOK, res.Code)

		s.Classifier.(*test.StubClassifier).IdentityVerdict = &analysis.IdentitySignals{
			FaceDetected:  true,
			SamePerson:    true,
			MultipleFaces: true,
			Confidence:    91,
		}

		check := types.PostFaceCheckPayload{
			Image:  imagePayload("frame"),
			Folder: swag.String(folder),
			UserID: swag.String("u1"),
		}
		res = test.PerformRequest(t, s, "POST", "/api/v1/proctoring/face/check", check, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var response types.FaceCheckResponse
		test.ParseResponseAndValidate(t, res, &response)
		assert.True(t, response.Alert)
		assert.Equal(t, "face-malpractice", response.Category)
		assert.Contains(t, response.Reason, "MULTIPLE FACES DETECTED")
		require.NotNil(t, response.Behavior)
		assert.True(t, response.Behavior.MultipleFaces)
	})
}

func TestFaceCheckSamePersonIsClean(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server) {
		folder := "alice_u1_2025-03-01_10-00-00"

		register := types.PostFaceRegisterPayload{
			Image:  imagePayload("reference"),
			Folder: swag.String(folder),
			UserID: swag.String("u1"),
		}
		res := test.PerformRequest(t, s, "POST", "/api/v1/proctoring/face/register", register, nil)
		require.Equal(t, http.StatusOK, res.Code)

		check := types.PostFaceCheckPayload{
			Image:  imagePayload("frame"),
			Folder: swag.String(folder),
			UserID: swag.String("u1"),
		}
		res = test.PerformRequest(t, s, "POST", "/api/v1/proctoring/face/check", check, nil)
		require.Equal(t, http.StatusOK, res.Code)

		var response types.FaceCheckResponse
		test.ParseResponseAndValidate(t, res, &response)
		assert.False(t, response.Alert)
		assert.Empty(t, response.Category)
	})
}
