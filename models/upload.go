package models

import "io"

// Upload is a file forwarded to an upstream service.
type Upload struct {
	Filename string
	Content  io.Reader
}
