// Package service holds the business logic between handlers and repositories.
package service

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/qbank/exam-platform/internal/response"
)

// paginate clamps page parameters and returns the repository limit/offset.
func paginate(page, perPage int) (int, int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage, perPage, (page - 1) * perPage
}

func pagination(page, perPage, total int) *response.Pagination {
	return response.NewPagination(page, perPage, total)
}

// SeedSource yields shuffle seeds for new sessions and generated papers.
type SeedSource func() int64

// CryptoSeed draws a seed from crypto/rand.
func CryptoSeed() int64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
