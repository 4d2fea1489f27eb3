package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"libraryapi/internal/book"
	"libraryapi/internal/health"
	"libraryapi/internal/testutil"
)

func TestRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := book.NewMockRepository(ctrl)
	service := book.NewService(mockRepo)
	router := newRouter(book.NewHTTPHandler(service), health.NewHTTPHandler(service, time.Second))

	const id = "0b7c2a52-8f0e-4c1e-9a43-5d1f2b1c9e10"

	tests := []struct {
		name           string
		method         string
		path           string
		body           interface{}
		setupMock      func()
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "root",
			method:         http.MethodGet,
			path:           "/",
			setupMock:      func() {},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "health",
			method: http.MethodGet,
			path:   "/health",
			setupMock: func() {
				mockRepo.EXPECT().Probe(gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "list with trailing slash",
			method: http.MethodGet,
			path:   "/books/?skip=0&limit=10",
			setupMock: func() {
				mockRepo.EXPECT().List(gomock.Any(), book.Page{Skip: 0, Limit: 10}).Return([]book.Book{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "list without trailing slash",
			method: http.MethodGet,
			path:   "/books",
			setupMock: func() {
				mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return([]book.Book{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "search",
			method: http.MethodGet,
			path:   "/books/search/?query=tolkien",
			setupMock: func() {
				mockRepo.EXPECT().Search(gomock.Any(), "tolkien", gomock.Any()).Return([]book.Book{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "filter",
			method: http.MethodGet,
			path:   "/books/filter/?genre=fantasy",
			setupMock: func() {
				mockRepo.EXPECT().Filter(gomock.Any(), book.Filter{Genre: "fantasy"}, gomock.Any()).Return([]book.Book{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "count total",
			method: http.MethodGet,
			path:   "/books/count/total",
			setupMock: func() {
				mockRepo.EXPECT().CountAll(gomock.Any()).Return(int64(3), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "count by genre",
			method: http.MethodGet,
			path:   "/books/count/by-genre",
			setupMock: func() {
				mockRepo.EXPECT().CountByGenre(gomock.Any()).Return(book.GenreCounts{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "get by id",
			method: http.MethodGet,
			path:   "/books/" + id,
			setupMock: func() {
				mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(book.Book{ID: id}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "delete by id",
			method: http.MethodDelete,
			path:   "/books/" + id,
			setupMock: func() {
				mockRepo.EXPECT().DeleteByID(gomock.Any(), id).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/books/",
			body: map[string]interface{}{
				"title": "Emma", "author": "Jane Austen", "ISBN": "9780306406157",
				"genre": "Fiction", "publication_year": 1815,
			},
			setupMock: func() {
				mockRepo.EXPECT().ExistsByISBN(gomock.Any(), "9780306406157", "").Return(false, nil)
				mockRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(id, nil)
				mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(book.Book{ID: id}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "create invalid",
			method:         http.MethodPost,
			path:           "/books",
			body:           map[string]interface{}{"title": ""},
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "VALIDATION_ERROR",
		},
		{
			name:   "update",
			method: http.MethodPut,
			path:   "/books/" + id,
			body:   map[string]interface{}{"genre": "Classic"},
			setupMock: func() {
				mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(book.Book{ID: id}, nil)
				mockRepo.EXPECT().UpdateByID(gomock.Any(), id, book.Patch{Genre: book.Some("Classic")}).Return(book.Book{ID: id, Genre: "Classic"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "search without query",
			method:         http.MethodGet,
			path:           "/books/search/",
			setupMock:      func() {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "BAD_REQUEST",
		},
		{
			name:   "invalid id",
			method: http.MethodGet,
			path:   "/books/xyz",
			setupMock: func() {
				mockRepo.EXPECT().GetByID(gomock.Any(), "xyz").Return(book.Book{}, book.ErrInvalidID)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_ID",
		},
		{
			name:           "method not allowed",
			method:         http.MethodPatch,
			path:           "/books/" + id,
			setupMock:      func() {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupMock()

			w := httptest.NewRecorder()
			r := testutil.NewRequest(tt.method, tt.path, tt.body)

			router.ServeHTTP(w, r)

			resp := testutil.RecordHTTPResponse(w)
			assert.Equal(t, tt.expectedStatus, resp.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, resp.ErrorCode())
			}
		})
	}
}
