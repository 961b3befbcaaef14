package main

// General API documentation for swaggo. Run `swag init -g cmd/chatd/docs.go -d ./,./internal/httpapi -o docs` to regenerate docs/.
//
// @title           chatd API
// @version         1.1.0
// @description     HTTP relay between chat clients and a local Ollama backend.
//
// @contact.name   chatd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
