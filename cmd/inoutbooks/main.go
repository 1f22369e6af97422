// Command inoutbooks runs the book catalog HTTP service.
//
// Configuration comes from flags, the environment, a .env file and an
// optional JSON file; see internal/config for the full list.
package main

import (
	"github.com/patric-chuzhbe/inoutbooks/internal/app"
	"github.com/patric-chuzhbe/inoutbooks/internal/logger"
)

func main() {
	a, err := app.New()
	if err != nil {
		panic(err)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Log.Errorw("server stopped", "error", err)
		panic(err)
	}
}
