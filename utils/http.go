// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// Shared client for the phase feed, reference-data mirrors and asset
// downloads. The generous timeout covers the larger asset files.
var HTTPClient = &http.Client{
	Timeout: 60 * time.Second,
}
