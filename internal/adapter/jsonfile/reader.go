package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/county-graph-etl/internal/domain"
)

// rawRecord mirrors one row of the county-level export. Pointers detect
// missing fields.
type rawRecord struct {
	Date   *int64  `json:"Date"`
	County *string `json:"County"`
	State  *string `json:"State"`
	Values *int64  `json:"values"`
	Type   *string `json:"Type"`
}

// Reader loads the raw observation batch from a JSON file.
// It implements pipeline.Extractor.
type Reader struct {
	path   string
	logger *slog.Logger
}

// NewReader creates a Reader for path.
func NewReader(path string, logger *slog.Logger) *Reader {
	return &Reader{path: path, logger: logger}
}

// Extract reads and decodes the whole file. Any unreadable or incomplete
// record fails the batch.
func (r *Reader) Extract(ctx context.Context) ([]domain.RawObservation, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read input %s: %w", r.path, err)
	}
	r.logger.Info("input read", "path", r.path, "size_mb", len(data)/1_000_000)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a JSON array of export rows.
func Decode(data []byte) ([]domain.RawObservation, error) {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	if rows == nil {
		return nil, errors.New("parse input: input is not a JSON array")
	}

	out := make([]domain.RawObservation, 0, len(rows))
	for i, row := range rows {
		obs, err := decodeRecord(row)
		if err != nil {
			return nil, fmt.Errorf("parse input: record %d: %w", i, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

func decodeRecord(row json.RawMessage) (domain.RawObservation, error) {
	if bytes.Equal(bytes.TrimSpace(row), []byte("null")) {
		return domain.RawObservation{}, fmt.Errorf("record is null")
	}

	var rec rawRecord
	if err := json.Unmarshal(row, &rec); err != nil {
		return domain.RawObservation{}, err
	}

	switch {
	case rec.Date == nil:
		return domain.RawObservation{}, errMissing("Date")
	case rec.County == nil:
		return domain.RawObservation{}, errMissing("County")
	case rec.State == nil:
		return domain.RawObservation{}, errMissing("State")
	case rec.Values == nil:
		return domain.RawObservation{}, errMissing("values")
	case rec.Type == nil:
		return domain.RawObservation{}, errMissing("Type")
	}

	return domain.RawObservation{
		TimestampMS: *rec.Date,
		County:      *rec.County,
		State:       *rec.State,
		Value:       *rec.Values,
		Kind:        domain.ParseKind(*rec.Type),
	}, nil
}

func errMissing(field string) error {
	return fmt.Errorf("missing required field %q", field)
}

// Encode renders observations in the export's row format, the inverse of
// Decode for well-formed input. Unknown kinds are written as "Other".
func Encode(records []domain.RawObservation) ([]byte, error) {
	rows := make([]rawRecord, len(records))
	for i := range records {
		r := &records[i]
		kind := r.Kind.String()
		rows[i] = rawRecord{Date: &r.TimestampMS, County: &r.County, State: &r.State, Values: &r.Value, Type: &kind}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	return append(data, '\n'), nil
}
