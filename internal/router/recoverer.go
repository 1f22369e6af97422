package router

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/patric-chuzhbe/inoutbooks/internal/logger"
)

// hiddenStack replaces the stack trace outside development.
const hiddenStack = "🥞"

type panicBody struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

type panicResponse struct {
	Error panicBody `json:"error"`
}

// recoverer turns a panic into a 500 JSON response.
func (r *Router) recoverer(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}

			stack := string(debug.Stack())
			logger.Log.Errorw("panic while serving request",
				"uri", request.RequestURI,
				"panic", rvr,
				"stack", stack,
			)

			if !r.exposeStack {
				stack = hiddenStack
			}
			writeJSON(response, http.StatusInternalServerError, panicResponse{
				Error: panicBody{
					Message: fmt.Sprint(rvr),
					Stack:   stack,
				},
			})
		}()

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
