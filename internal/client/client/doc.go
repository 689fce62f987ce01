// Package client is the root container of the cribfeed client. It owns the
// single Session Manager and builds every collaborator the terminal
// front-end needs from a config.Config.
package client
