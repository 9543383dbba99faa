package dataio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dimchansky/utfbom"

	"github.com/udisondev/opdps/internal/model"
)

// ReadCSV parses operators from CSV. A UTF-8 byte order mark is skipped and
// the delimiter (comma, semicolon or tab) is detected from the header line.
func ReadCSV(r io.Reader) (Result, error) {
	br := bufio.NewReader(utfbom.SkipOnly(r))
	first, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Result{}, fmt.Errorf("reading csv header: %w", err)
	}

	cr := csv.NewReader(br)
	cr.Comma = sniffDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading csv header: %w", err)
	}
	m := newMapper(header)
	if !m.hasName {
		return Result{}, fmt.Errorf("csv header has no operator name column")
	}

	var res Result
	for {
		cells, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Errors = append(res.Errors, RowError{Row: perr.StartLine, Err: perr.Err})
				continue
			}
			return res, fmt.Errorf("reading csv: %w", err)
		}
		if blank(cells) {
			continue
		}
		line, _ := cr.FieldPos(0)
		p, err := m.profile(cells)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: line, Err: err})
			continue
		}
		res.Records = append(res.Records, model.OperatorRecord{Profile: p})
	}
	return res, nil
}

// WriteCSV writes recs with the canonical header.
func WriteCSV(w io.Writer, recs []model.OperatorRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(headerNames()); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, rec := range recs {
		vals := row(rec.Profile)
		cells := make([]string, len(vals))
		for i, v := range vals {
			cells[i] = formatCell(v)
		}
		if err := cw.Write(cells); err != nil {
			return fmt.Errorf("writing csv row %q: %w", rec.Profile.Name, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func sniffDelimiter(sample []byte) rune {
	line := string(sample)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
