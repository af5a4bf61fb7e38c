package main

// General API documentation for swaggo. Run `swag init -g cmd/boosterd/main.go -o docs` to regenerate.
//
// @title           boosterd API
// @version         0.1.0
// @description     HTTP API for routing LLM generation requests to pods and sampling tokens.
//
// @contact.name   boosterd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
