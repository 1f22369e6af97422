package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
	"github.com/patric-chuzhbe/inoutbooks/internal/compress"
	"github.com/patric-chuzhbe/inoutbooks/internal/logger"
	"github.com/patric-chuzhbe/inoutbooks/internal/models"
	"github.com/patric-chuzhbe/inoutbooks/internal/service"
)

const (
	msgUnauthorized      = "Unauthorized"
	msgErrorDeletingBook = "Error deleting book"
	msgNotFound          = "Sorry, can't find that!"
	msgInvalidJSONBody   = "Bad Request: invalid JSON body"
	indexFile            = "index.html"
)

type bookService interface {
	List(ctx context.Context) ([]collection.Record, error)
	Get(ctx context.Context, rawID string) (collection.Record, error)
	Create(ctx context.Context, request models.CreateBookRequest) (collection.Record, error)
	Update(ctx context.Context, rawID string, request models.UpdateBookRequest) error
	Delete(ctx context.Context, rawID string) error
}

type userService interface {
	Login(ctx context.Context, request models.LoginRequest) error
	VerifySecurityQuestions(ctx context.Context, email string, payload any) error
}

// Router translates HTTP requests into book and user service calls.
type Router struct {
	books       bookService
	users       userService
	staticDir   string
	exposeStack bool
}

// New builds the chi mux with every route and middleware of the service.
// exposeStack makes panic responses carry the real stack trace.
func New(
	books bookService,
	users userService,
	staticDir string,
	exposeStack bool,
) *chi.Mux {
	r := &Router{
		books:       books,
		users:       users,
		staticDir:   staticDir,
		exposeStack: exposeStack,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		r.recoverer,
		compress.UngzipRequest,
		compress.GzipResponse,
	)

	router.Get(`/`, r.GetIndex)
	router.Get(`/*`, r.GetStatic)

	router.Route(`/api`, func(api chi.Router) {
		api.Get(`/books`, r.GetApibooks)
		api.Get(`/books/{id}`, r.GetApibooksID)
		api.Post(`/books`, r.PostApibooks)
		api.Put(`/books/{id}`, r.PutApibooksID)
		api.Delete(`/books/{id}`, r.DeleteApibooksID)
		api.Post(`/login`, r.PostApilogin)
		api.Post(`/users/{email}/verify-security-question`, r.PostApiusersVerifysecurityquestion)
	})

	router.NotFound(NotFound)
	router.MethodNotAllowed(NotFound)

	return router
}

func (r *Router) GetApibooks(response http.ResponseWriter, request *http.Request) {
	books, err := r.books.List(request.Context())
	if err != nil {
		writeError(response, err, http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, books)
}

func (r *Router) GetApibooksID(response http.ResponseWriter, request *http.Request) {
	book, err := r.books.Get(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		writeError(response, err, http.StatusInternalServerError)
		return
	}

	if book == nil {
		response.Header().Set("Content-Type", "application/json")
		response.WriteHeader(http.StatusOK)
		return
	}

	writeJSON(response, http.StatusOK, book)
}

func (r *Router) PostApibooks(response http.ResponseWriter, request *http.Request) {
	var payload models.CreateBookRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		logger.Log.Debugln("Error decoding the POST /api/books body:", err)
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{Error: msgInvalidJSONBody})
		return
	}

	book, err := r.books.Create(request.Context(), payload)
	if err != nil {
		writeError(response, err, http.StatusBadRequest)
		return
	}

	writeJSON(response, http.StatusCreated, book)
}

func (r *Router) PutApibooksID(response http.ResponseWriter, request *http.Request) {
	var payload models.UpdateBookRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		logger.Log.Debugln("Error decoding the PUT /api/books/{id} body:", err)
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{Error: msgInvalidJSONBody})
		return
	}

	err := r.books.Update(request.Context(), chi.URLParam(request, "id"), payload)
	if err != nil {
		writeError(response, err, http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

func (r *Router) DeleteApibooksID(response http.ResponseWriter, request *http.Request) {
	err := r.books.Delete(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		logger.Log.Errorw("Error deleting book", "error", err)
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{Error: msgErrorDeletingBook})
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

func (r *Router) PostApilogin(response http.ResponseWriter, request *http.Request) {
	var payload models.LoginRequest
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		logger.Log.Debugln("Error decoding the POST /api/login body:", err)
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{Error: service.MsgCredentialsRequired})
		return
	}

	if err := r.users.Login(request.Context(), payload); err != nil {
		writeError(response, err, http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: service.MsgAuthenticated})
}

func (r *Router) PostApiusersVerifysecurityquestion(response http.ResponseWriter, request *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(request, "email"))
	if err != nil {
		logger.Log.Debugln("Error unescaping the email path parameter:", err)
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{
			Error:   service.MsgBadRequest,
			Details: []any{err.Error()},
		})
		return
	}

	var payload any
	if err := json.NewDecoder(request.Body).Decode(&payload); err != nil {
		logger.Log.Debugln("Error decoding the security answers body:", err)
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{
			Error:   service.MsgBadRequest,
			Details: []any{err.Error()},
		})
		return
	}

	if err := r.users.VerifySecurityQuestions(request.Context(), email, payload); err != nil {
		writeError(response, err, http.StatusInternalServerError)
		return
	}

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: service.MsgSecurityQuestionsCorrect})
}

// GetIndex serves the landing page.
func (r *Router) GetIndex(response http.ResponseWriter, request *http.Request) {
	r.serveStaticFile(response, request, indexFile)
}

// GetStatic serves files from the static directory; anything else is a 404.
func (r *Router) GetStatic(response http.ResponseWriter, request *http.Request) {
	r.serveStaticFile(response, request, chi.URLParam(request, "*"))
}

func (r *Router) serveStaticFile(response http.ResponseWriter, request *http.Request, name string) {
	fileName := filepath.Join(r.staticDir, filepath.FromSlash(path.Clean("/"+name)))

	info, err := os.Stat(fileName)
	if err != nil || info.IsDir() {
		NotFound(response, request)
		return
	}

	http.ServeFile(response, request, fileName)
}

// NotFound answers every unknown route.
func NotFound(response http.ResponseWriter, _ *http.Request) {
	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	response.WriteHeader(http.StatusNotFound)
	_, _ = response.Write([]byte(msgNotFound))
}

// writeError maps the service error kinds to their statuses;
// anything unclassified is answered with fallbackStatus and its message.
func writeError(response http.ResponseWriter, err error, fallbackStatus int) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(response, http.StatusBadRequest, models.ErrorResponse{
			Error:   validationErr.Message,
			Details: validationErr.Details,
		})

	case errors.Is(err, service.ErrAuth):
		writeJSON(response, http.StatusUnauthorized, models.ErrorResponse{Error: msgUnauthorized})

	default:
		logger.Log.Errorw("request failed", "error", err)
		writeJSON(response, fallbackStatus, models.ErrorResponse{Error: err.Error()})
	}
}

func writeJSON(response http.ResponseWriter, status int, body any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)

	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("Error encoding the response body:", err)
	}
}
