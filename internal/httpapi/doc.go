// Package httpapi exposes the engine over HTTP with gin.
//
// Routes keep their trailing slashes. Handlers decode JSON, attach the
// client IP and link base URL to the request context, call one Engine
// method and translate its error into a status code and JSON body.
package httpapi
