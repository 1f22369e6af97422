package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
	"github.com/patric-chuzhbe/inoutbooks/internal/models"
	"github.com/patric-chuzhbe/inoutbooks/internal/seed"
	"github.com/patric-chuzhbe/inoutbooks/internal/service"
)

func newExampleServer() *httptest.Server {
	books, err := collection.New("books", seed.Books())
	if err != nil {
		panic(err)
	}

	userRecords, err := seed.Users(bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	users, err := collection.New("users", userRecords)
	if err != nil {
		panic(err)
	}

	return httptest.NewServer(New(service.NewBooks(books), service.NewUsers(users), os.TempDir(), false))
}

func ExampleRouter_GetApibooksID() {
	server := newExampleServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/books/2")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var book models.Book
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Title:", book.Title)
	fmt.Println("Author:", book.Author)

	// Output:
	// Status Code: 200
	// Title: Vampire Academy
	// Author: Richelle Mead
}

func ExampleRouter_PostApibooks() {
	server := newExampleServer()
	defer server.Close()

	body := []byte(`{"title":"Dune","author":"Frank Herbert"}`)
	resp, err := http.Post(server.URL+"/api/books", "application/json", bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Print("Body: ", string(b))

	// Output:
	// Status Code: 201
	// Body: {"author":"Frank Herbert","id":11,"title":"Dune"}
}

func ExampleRouter_PostApilogin() {
	server := newExampleServer()
	defer server.Close()

	body := []byte(`{"email":"hermione@hogwarts.edu","password":"granger"}`)
	resp, err := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var message models.MessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Message:", message.Message)

	// Output:
	// Status Code: 200
	// Message: Authentication successful
}
