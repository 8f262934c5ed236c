package main

import (
	"github.com/labstack/echo/v4"

	"github.com/gouthamve/bookfetch/pkg/handlers"
)

// SetupRoutes registers HTTP endpoints using the Echo instance.
func SetupRoutes(e *echo.Echo, ct *handlers.Catalog) {
	e.POST("/getbook", ct.GetBook)

	e.GET("/debug/lookup/:isbn", ct.LookupBookHandler)

	e.GET("/books", ct.GetAllBooks)
	e.GET("/books/:isbn", ct.GetBookByISBN)
	e.DELETE("/books/:isbn", ct.DeleteBookByISBN)
	e.GET("/books/:isbn/barcode.png", ct.Barcode)
	e.GET("/books/:isbn/themes", ct.Themes)

	e.GET("/search", ct.Search)
	e.GET("/suggestions", ct.Suggestions)
	e.GET("/titles", ct.Titles)
}
