package main

// General API documentation for swaggo. Run `swag init -g cmd/locallm/docs.go`
// to regenerate ./docs.
//
// @title           locallm API
// @version         1.0
// @description     HTTP API for managing a local inference engine and answering questions with it.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
