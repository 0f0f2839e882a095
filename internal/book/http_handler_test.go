package book

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBook = Book{
	ISBN:      "1111111",
	AmazonURL: "amazon.com/book",
	Author:    "Maria Aldapa",
	Language:  "english",
	Pages:     100,
	Publisher: "Penguin",
	Title:     "My Book",
	Year:      1989,
}

const bigBookJSON = `{
	"amazon_url": "https://amazon.com/bigbook",
	"author": "James Reid",
	"language": "english",
	"pages": 200,
	"publisher": "Penguin",
	"title": "Big Book",
	"year": 2000
}`

func newTestHandler(t *testing.T) (*HTTPHandler, *MockRepository, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockRepository(ctrl)
	handler := NewHTTPHandler(NewService(mockRepo), slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	handler.Register(mux)
	return handler, mockRepo, mux
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHTTPHandler_List(t *testing.T) {
	_, mockRepo, mux := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any()).Return([]Book{testBook}, nil)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		books := decodeBody(t, w)["books"].([]any)
		require.Len(t, books, 1)
		assert.Contains(t, books[0], "amazon_url")
	})

	t.Run("empty store renders an empty array", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any()).Return(nil, nil)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"books":[]}`, w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		mockRepo.EXPECT().List(gomock.Any()).Return(nil, context.DeadlineExceeded)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHTTPHandler_GetByISBN(t *testing.T) {
	handler, mockRepo, _ := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().GetByISBN(gomock.Any(), "1111111").Return(testBook, nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/1111111", nil)
		r.SetPathValue("isbn", "1111111")

		handler.GetByISBN(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		book := decodeBody(t, w)["book"].(map[string]any)
		assert.Equal(t, "1111111", book["isbn"])
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().GetByISBN(gomock.Any(), "1").Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/1", nil)
		r.SetPathValue("isbn", "1")

		handler.GetByISBN(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "'1'")
	})
}

func TestHTTPHandler_Create(t *testing.T) {
	_, mockRepo, mux := newTestHandler(t)

	validBody := `{"isbn":"2222222","amazon_url":"https://amazon.com/bigbook","author":"James Reid",` +
		`"language":"english","pages":200,"publisher":"Penguin","title":"Big Book","year":2000}`
	created := Book{
		ISBN:      "2222222",
		AmazonURL: "https://amazon.com/bigbook",
		Author:    "James Reid",
		Language:  "english",
		Pages:     200,
		Publisher: "Penguin",
		Title:     "Big Book",
		Year:      2000,
	}

	tests := []struct {
		name           string
		body           string
		setupMock      func()
		expectedStatus int
	}{
		{
			name: "success",
			body: validBody,
			setupMock: func() {
				mockRepo.EXPECT().Insert(gomock.Any(), created).Return(created, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "isbn only",
			body:           `{"isbn":2}`,
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "not json",
			body:           `hello`,
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate isbn",
			body: validBody,
			setupMock: func() {
				mockRepo.EXPECT().Insert(gomock.Any(), created).Return(Book{}, ErrDuplicateISBN)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "store failure",
			body: validBody,
			setupMock: func() {
				mockRepo.EXPECT().Insert(gomock.Any(), created).Return(Book{}, context.DeadlineExceeded)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", "application/json")

			mux.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHTTPHandler_Create_ReportsViolations(t *testing.T) {
	_, _, mux := newTestHandler(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"isbn":2}`)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", errBody["code"])
	// isbn has the wrong type and the seven other fields are missing
	assert.Len(t, errBody["details"], 8)
}

func TestHTTPHandler_Create_BodyTooLarge(t *testing.T) {
	_, _, mux := newTestHandler(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(bigBookJSON))
	r.Body = http.MaxBytesReader(w, r.Body, 16)

	mux.ServeHTTP(w, r)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	errBody := decodeBody(t, w)["error"].(map[string]any)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", errBody["code"])
}

func TestHTTPHandler_Update(t *testing.T) {
	_, mockRepo, mux := newTestHandler(t)

	fields := Fields{
		AmazonURL: "https://amazon.com/bigbook",
		Author:    "James Reid",
		Language:  "english",
		Pages:     200,
		Publisher: "Penguin",
		Title:     "Big Book",
		Year:      2000,
	}

	tests := []struct {
		name           string
		path           string
		body           string
		setupMock      func()
		expectedStatus int
	}{
		{
			name: "success",
			path: "/books/1111111",
			body: bigBookJSON,
			setupMock: func() {
				mockRepo.EXPECT().UpdateByISBN(gomock.Any(), "1111111", fields).Return(fields.WithISBN("1111111"), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown property",
			path:           "/books/1111111",
			body:           `{"not_a_book_property":"Hello"}`,
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid payload on missing isbn",
			path:           "/books/1",
			body:           `{"not_a_book_property":"Hello"}`,
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not found",
			path: "/books/1",
			body: bigBookJSON,
			setupMock: func() {
				mockRepo.EXPECT().UpdateByISBN(gomock.Any(), "1", fields).Return(Book{}, ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body)))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestHTTPHandler_Update_ReturnsUpdatedBook(t *testing.T) {
	_, mockRepo, mux := newTestHandler(t)

	mockRepo.EXPECT().UpdateByISBN(gomock.Any(), "1111111", gomock.Any()).
		DoAndReturn(func(_ context.Context, isbn string, f Fields) (Book, error) {
			return f.WithISBN(isbn), nil
		})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/books/1111111", strings.NewReader(bigBookJSON)))

	require.Equal(t, http.StatusOK, w.Code)
	book := decodeBody(t, w)["book"].(map[string]any)
	assert.Equal(t, "1111111", book["isbn"])
	assert.Equal(t, "Big Book", book["title"])
}

func TestHTTPHandler_Delete(t *testing.T) {
	_, mockRepo, mux := newTestHandler(t)

	t.Run("success", func(t *testing.T) {
		mockRepo.EXPECT().DeleteByISBN(gomock.Any(), "1111111").Return(nil)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/books/1111111", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Book deleted"}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().DeleteByISBN(gomock.Any(), "1").Return(ErrNotFound)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/books/1", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHTTPHandler_MethodNotAllowed(t *testing.T) {
	_, _, mux := newTestHandler(t)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/books/1111111", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
