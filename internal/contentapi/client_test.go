package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hospitalcms/backend/internal/models"
	"github.com/hospitalcms/backend/libs/middlewares"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "secret", 5*time.Second, nil)
}

func TestGetSection(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		etag            string
		body            string
		expectedVersion string
		expectedError   bool
		errorIs         error
		errorContains   string
	}{
		{
			name:            "success with etag",
			status:          http.StatusOK,
			etag:            `"7"`,
			body:            `{"data":[{"id":1,"name":"hero","block_type":"image","title":"Welcome","display_order":1}]}`,
			expectedVersion: `"7"`,
		},
		{
			name:            "success with body version",
			status:          http.StatusOK,
			body:            `{"data":[],"version":"v3"}`,
			expectedVersion: "v3",
		},
		{
			name:          "not found",
			status:        http.StatusNotFound,
			body:          `{"message":"no such section"}`,
			expectedError: true,
			errorIs:       ErrNotFound,
		},
		{
			name:          "server error keeps message",
			status:        http.StatusInternalServerError,
			body:          `{"message":"database unavailable"}`,
			expectedError: true,
			errorContains: "database unavailable",
		},
		{
			name:          "invalid json",
			status:        http.StatusOK,
			body:          `{"data":`,
			expectedError: true,
			errorContains: "failed to decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/home/section/3", r.URL.Path)
				assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
				assert.Equal(t, "req-1", r.Header.Get(middlewares.RequestIDHeader))
				if tt.etag != "" {
					w.Header().Set("ETag", tt.etag)
				}
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			ctx := middlewares.WithRequestID(context.Background(), "req-1")
			section, err := client.GetSection(ctx, 3)

			if tt.expectedError {
				require.Error(t, err)
				if tt.errorIs != nil {
					assert.ErrorIs(t, err, tt.errorIs)
				}
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, 3, section.ID)
			assert.Equal(t, tt.expectedVersion, section.Version)
		})
	}
}

func TestGetSectionName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":[{"id":1,"name":"","block_type":"text"},{"id":2,"name":"our-story","block_type":"statistic"}]}`)
	})

	section, err := client.GetSection(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "our-story", section.Name)
	assert.Len(t, section.Blocks, 2)
	assert.Equal(t, models.BlockTypeStatistic, section.Blocks[1].BlockType)
}

func TestUpdateSection(t *testing.T) {
	tests := []struct {
		name            string
		version         string
		status          int
		body            string
		expectedIfMatch string
		expectedSuccess bool
		expectedError   error
		errorContains   string
	}{
		{
			name:            "success",
			version:         `"7"`,
			status:          http.StatusOK,
			body:            `{"success":true,"message":"Section updated"}`,
			expectedIfMatch: `"7"`,
			expectedSuccess: true,
		},
		{
			name:            "no version sends no precondition",
			status:          http.StatusOK,
			body:            `{"success":false,"message":"nothing to do"}`,
			expectedSuccess: false,
		},
		{
			name:            "precondition failed is a conflict",
			version:         `"6"`,
			status:          http.StatusPreconditionFailed,
			expectedIfMatch: `"6"`,
			expectedError:   ErrConflict,
		},
		{
			name:            "conflict",
			version:         `"6"`,
			status:          http.StatusConflict,
			expectedIfMatch: `"6"`,
			expectedError:   ErrConflict,
		},
		{
			name:          "validation error",
			status:        http.StatusBadRequest,
			body:          `{"error":"title too long"}`,
			errorContains: "title too long",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/home/section/3", r.URL.Path)
				assert.Equal(t, tt.expectedIfMatch, r.Header.Get("If-Match"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req models.SectionUpdateRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, 3, req.UpdateData.ID)
				if assert.Len(t, req.UpdateData.ContentBlocks, 1) {
					assert.Equal(t, "NABH", *req.UpdateData.ContentBlocks[0].Title)
				}

				w.Header().Set("ETag", `"8"`)
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			title := "NABH"
			id := 12
			update := models.SectionUpdate{ID: 3, Name: "accreditations", ContentBlocks: []models.BlockUpdate{{ID: &id, Title: &title}}}
			result, err := client.UpdateSection(context.Background(), 3, tt.version, update)

			if tt.expectedError != nil || tt.errorContains != "" {
				require.Error(t, err)
				if tt.expectedError != nil {
					assert.True(t, errors.Is(err, tt.expectedError))
				}
				assert.Contains(t, err.Error(), tt.errorContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedSuccess, result.Success)
			assert.Equal(t, `"8"`, result.Version)
		})
	}
}

func TestUploadFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/media/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "banner.jpg", header.Filename)
		assert.Equal(t, "jpeg-bytes", string(data))

		io.WriteString(w, `{"status":1,"message":"ok","data":{"savedMedia":{"id":77,"original_filename":"banner-1.jpg","alt_text":""},"filePath":"/uploads/banner-1.jpg"}}`)
	})

	result, err := client.UploadFile(context.Background(), "banner.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, 77, result.Data.SavedMedia.ID)
	assert.Equal(t, "banner-1.jpg", result.Data.SavedMedia.OriginalFilename)
	assert.Equal(t, "/uploads/banner-1.jpg", result.Data.FilePath)
}

func TestUploadFileRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":0,"message":"unsupported file type"}`)
	})

	result, err := client.UploadFile(context.Background(), "virus.exe", strings.NewReader("x"))
	require.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, "unsupported file type", result.Message)
}

func TestHeaderSettings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/header/settings", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"data":[{"id":1,"setting_key":"phone","setting_value":"108"}]}`)
		case http.MethodPut:
			var update models.SettingsUpdate
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&update))
			assert.Equal(t, []models.SettingValue{{ID: 1, SettingValue: "1066"}}, update.Settings)
			io.WriteString(w, `{"success":true,"message":"Settings updated"}`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	current, err := client.GetHeaderSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.HeaderSetting{{ID: 1, SettingKey: "phone", SettingValue: "108"}}, current)

	result, err := client.UpdateHeaderSettings(context.Background(), models.SettingsUpdate{
		Settings: []models.SettingValue{{ID: 1, SettingValue: "1066"}},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 502}
	assert.Equal(t, "content API returned status 502", err.Error())

	var apiErr *APIError
	wrapped := error(&APIError{StatusCode: 400, Message: "bad"})
	require.True(t, errors.As(wrapped, &apiErr))
	assert.Equal(t, "bad", apiErr.Message)
}
