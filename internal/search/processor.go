package search

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/outfitter/internal/models"
)

// ErrEmptyQuery is returned for a request without text.
var ErrEmptyQuery = errors.New("query text is required")

// MaxQueryLength bounds the request text in bytes.
const MaxQueryLength = 1000

// ProcessQuery validates and applies defaults to the match query.
func ProcessQuery(q *models.MatchQuery) error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return ErrEmptyQuery
	}
	if len(q.Text) > MaxQueryLength {
		n := MaxQueryLength
		for n > 0 && !utf8.RuneStart(q.Text[n]) {
			n--
		}
		q.Text = q.Text[:n]
	}
	q.Role, _ = models.ParseExpertRole(string(q.Role))
	q.SessionID = strings.TrimSpace(q.SessionID)
	return nil
}
