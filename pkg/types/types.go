// Package types holds the wire types shared by the HTTP API and the CLI.
package types
