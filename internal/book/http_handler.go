package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"

	"libraryapi/internal/httpx"
)

const (
	actionCreate = "creating book"
	actionGet    = "retrieving book"
	actionUpdate = "updating book"
	actionDelete = "deleting book"
	actionList   = "retrieving books"
	actionSearch = "searching books"
	actionFilter = "filtering books"
	actionCount  = "counting books"
	actionGenre  = "counting books by genre"
)

var errBodyTooLarge = errors.New("request body too large")

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /books", h.Create)
	mux.HandleFunc("POST /books/{$}", h.Create)
	mux.HandleFunc("GET /books", h.List)
	mux.HandleFunc("GET /books/{$}", h.List)
	mux.HandleFunc("GET /books/search/{$}", h.Search)
	mux.HandleFunc("GET /books/filter/{$}", h.Filter)
	mux.HandleFunc("GET /books/count/total", h.CountTotal)
	mux.HandleFunc("GET /books/count/by-genre", h.CountByGenre)
	mux.HandleFunc("GET /books/{id}", h.Get)
	mux.HandleFunc("PUT /books/{id}", h.Update)
	mux.HandleFunc("DELETE /books/{id}", h.Delete)
}

// Create handles POST /books/
// @Summary Create a book
// @Tags books
// @Accept json
// @Produce json
// @Param book body Input true "Book to create"
// @Success 201 {object} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/ [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, r, err, actionCreate)
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err, actionCreate)
		return
	}
	httpx.JSON(w, r, http.StatusCreated, b)
}

// Get handles GET /books/{id}
// @Summary Get book by ID
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err, actionGet)
		return
	}
	httpx.JSON(w, r, http.StatusOK, b)
}

// Update handles PUT /books/{id}
// @Summary Partially update a book
// @Description Only the fields present in the body are changed.
// @Tags books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p Patch
	if err := decodeBody(r, &p); err != nil {
		h.writeError(w, r, err, actionUpdate)
		return
	}

	b, err := h.service.Update(r.Context(), r.PathValue("id"), p)
	if err != nil {
		h.writeError(w, r, err, actionUpdate)
		return
	}
	httpx.JSON(w, r, http.StatusOK, b)
}

// Delete handles DELETE /books/{id}
// @Summary Delete a book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err, actionDelete)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}

// List handles GET /books/
// @Summary List books
// @Tags books
// @Produce json
// @Param skip query int false "Number of books to skip" default(0)
// @Param limit query int false "Number of books to return" default(10)
// @Success 200 {array} Book
// @Router /books/ [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err, actionList)
		return
	}

	books, err := h.service.List(r.Context(), page)
	if err != nil {
		h.writeError(w, r, err, actionList)
		return
	}
	httpx.JSON(w, r, http.StatusOK, books)
}

// Search handles GET /books/search/
// @Summary Search books by title or author
// @Tags books
// @Produce json
// @Param query query string true "Substring of title or author"
// @Param skip query int false "Number of books to skip" default(0)
// @Param limit query int false "Number of books to return" default(10)
// @Success 200 {array} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/search/ [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := query.Get("query")
	if q == "" {
		h.writeError(w, r, &ParamError{Param: "query", Reason: "is required"}, actionSearch)
		return
	}
	page, err := parsePage(query)
	if err != nil {
		h.writeError(w, r, err, actionSearch)
		return
	}

	books, err := h.service.Search(r.Context(), q, page)
	if err != nil {
		h.writeError(w, r, err, actionSearch)
		return
	}
	httpx.JSON(w, r, http.StatusOK, books)
}

// Filter handles GET /books/filter/
// @Summary Filter books by genre and/or publication year
// @Tags books
// @Produce json
// @Param genre query string false "Genre substring"
// @Param publication_year query int false "Exact publication year"
// @Param skip query int false "Number of books to skip" default(0)
// @Param limit query int false "Number of books to return" default(10)
// @Success 200 {array} Book
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books/filter/ [get]
func (h *HTTPHandler) Filter(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f, err := parseFilter(query)
	if err != nil {
		h.writeError(w, r, err, actionFilter)
		return
	}
	page, err := parsePage(query)
	if err != nil {
		h.writeError(w, r, err, actionFilter)
		return
	}

	books, err := h.service.Filter(r.Context(), f, page)
	if err != nil {
		h.writeError(w, r, err, actionFilter)
		return
	}
	httpx.JSON(w, r, http.StatusOK, books)
}

// CountTotal handles GET /books/count/total
// @Summary Count all books
// @Tags books
// @Produce json
// @Success 200 {object} map[string]int64
// @Router /books/count/total [get]
func (h *HTTPHandler) CountTotal(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CountAll(r.Context())
	if err != nil {
		h.writeError(w, r, err, actionCount)
		return
	}
	httpx.JSON(w, r, http.StatusOK, map[string]int64{"total_books": n})
}

// CountByGenre handles GET /books/count/by-genre
// @Summary Count books per genre
// @Tags books
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /books/count/by-genre [get]
func (h *HTTPHandler) CountByGenre(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CountByGenre(r.Context())
	if err != nil {
		h.writeError(w, r, err, actionGenre)
		return
	}
	if counts == nil {
		counts = GenreCounts{}
	}
	httpx.JSON(w, r, http.StatusOK, map[string]GenreCounts{"books_per_genre": counts})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return &ParamError{Param: "body", Reason: err.Error()}
	}
	if dec.More() {
		return &ParamError{Param: "body", Reason: "unexpected data after JSON value"}
	}
	return nil
}

func parsePage(q url.Values) (Page, error) {
	page := Page{Skip: 0, Limit: DefaultLimit}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Page{}, &ParamError{Param: "skip", Reason: "must be an integer >= 0"}
		}
		page.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > MaxLimit {
			return Page{}, &ParamError{Param: "limit", Reason: fmt.Sprintf("must be an integer between 1 and %d", MaxLimit)}
		}
		page.Limit = n
	}
	return page, nil
}

func parseFilter(q url.Values) (Filter, error) {
	f := Filter{Genre: q.Get("genre")}
	if v := q.Get("publication_year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < MinPublicationYear || year > MaxPublicationYear {
			return Filter{}, &ParamError{
				Param:  "publication_year",
				Reason: fmt.Sprintf("must be an integer between %d and %d", MinPublicationYear, MaxPublicationYear),
			}
		}
		f.PublicationYear = &year
	}
	return f, nil
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var (
		verr *ValidationError
		perr *ParamError
	)
	switch {
	case errors.As(err, &verr):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Error(),
			[]httpx.ErrorDetail{{Field: verr.Field, Message: verr.Reason}})
	case errors.As(err, &perr):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", perr.Error(), nil)
	case errors.Is(err, errBodyTooLarge):
		httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
	case errors.Is(err, ErrMissingFilter):
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "At least one filter parameter is required", nil)
	case errors.Is(err, ErrInvalidID):
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ID", "Invalid book ID format", nil)
	case errors.Is(err, ErrDuplicateISBN):
		msg := "Book with this ISBN already exists"
		if action == actionUpdate {
			msg = "Another book with this ISBN already exists"
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "DUPLICATE_ISBN", msg, nil)
	case errors.Is(err, ErrNoFields):
		httpx.JSONError(w, r, http.StatusBadRequest, "NO_CHANGES", "No fields to update", nil)
	case errors.Is(err, ErrNoChanges):
		httpx.JSONError(w, r, http.StatusBadRequest, "NO_CHANGES", "No changes made to the book", nil)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
	case errors.Is(err, ErrUnavailable):
		log.Warn().Err(err).Str("request_id", httpx.RequestIDFrom(r)).Msg(action)
		httpx.JSONError(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database unavailable", nil)
	default:
		log.Error().Err(err).Str("request_id", httpx.RequestIDFrom(r)).Msg(action)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Error "+action, nil)
	}
}
