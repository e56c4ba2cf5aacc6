package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/medref/ExtractionAPI/internal/config"
)

// All outbound LLM/OCR traffic shares one pooled transport so repeated
// per-page recognition calls reuse connections instead of paying the TLS
// handshake every time.

var (
	once   sync.Once
	client *http.Client
)

func Client() *http.Client {
	once.Do(func() {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        config.MaxIdleConns,
				MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
				IdleConnTimeout:     config.IdleConnTimeout,
			},
		}
	})
	return client
}
