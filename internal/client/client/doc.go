// Package client is a thin wrapper over the index HTTP API.
//
// Every call sends a form-encoded body and decodes the JSON envelope
// {success, message, ...}. Transport failures wrap ErrUnavailable; answers
// with success=false come back as *ServerError carrying the HTTP status and
// the server's message.
package client
