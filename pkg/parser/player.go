// Package parser turns a FIDE rating-list XML document into a stream of
// normalized player records.
package parser

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/jhonben94/fide-Scraper/pkg/writer"
)

// playerTag is the local element name that marks one player entry.
const playerTag = "player"

// Scanner walks the document incrementally and yields one PlayerRecord per
// player element, wherever it nests and whether or not the document uses a
// namespace prefix. Memory usage is bounded by a single element.
//
// Player elements without a numeric fideid are skipped silently; broken XML
// stops the scan and is reported by Err. Each Scanner over the same bytes
// is an independent traversal.
type Scanner struct {
	dec *xml.Decoder
	rec writer.PlayerRecord
	err error
}

// NewScanner prepares a scan over one XML document.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{dec: xml.NewDecoder(r)}
}

// Next advances to the next usable player record.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		tok, err := s.dec.Token()
		if err == io.EOF {
			return false
		}
		if err != nil {
			s.err = err
			return false
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != playerTag {
			continue
		}

		rec, ok, err := s.scanPlayer()
		if err != nil {
			s.err = err
			return false
		}
		if !ok {
			continue // no usable fideid
		}
		s.rec = rec
		return true
	}
}

// Record returns the record found by the last call to Next.
func (s *Scanner) Record() writer.PlayerRecord {
	return s.rec
}

// Err returns the document error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

// scanPlayer consumes tokens until the current player element closes,
// collecting child text keyed by local tag name.
func (s *Scanner) scanPlayer() (writer.PlayerRecord, bool, error) {
	fields := make(map[string]string)
	var (
		depth = 1
		field string
		text  strings.Builder
	)

	for depth > 0 {
		tok, err := s.dec.Token()
		if err != nil {
			// EOF inside a player element means a truncated document
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return writer.PlayerRecord{}, false, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				field = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 2 && field != "" {
				text.Write(t)
			}
		case xml.EndElement:
			depth--
			if depth == 1 && field != "" {
				fields[field] = strings.TrimSpace(text.String())
				field = ""
			}
		}
	}

	fideid := parseInt(fields["fideid"])
	if fideid == nil {
		return writer.PlayerRecord{}, false, nil
	}

	rec := writer.PlayerRecord{
		FideID:      *fideid,
		Name:        fields["name"],
		Country:     fields["country"],
		Sex:         optString(fields["sex"]),
		Title:       optString(fields["title"]),
		Rating:      parseInt(fields["rating"]),
		Games:       parseInt(fields["games"]),
		RapidRating: parseInt(fields["rapid_rating"]),
		RapidGames:  parseInt(fields["rapid_games"]),
		BlitzRating: parseInt(fields["blitz_rating"]),
		BlitzGames:  parseInt(fields["blitz_games"]),
		Birthday:    parseInt(fields["birthday"]),
		Flag:        optString(fields["flag"]),
		FOATitle:    optString(fields["foa_title"]),
		FOARating:   parseInt(fields["foa_rating"]),
	}
	return rec, true, nil
}

// parseInt coerces a text field to a number; empty or garbage input is nil,
// never an error.
func parseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
