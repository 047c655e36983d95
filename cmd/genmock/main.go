// Command genmock writes a deterministic synthetic county export for local
// runs and fixtures. Output is stable for a given set of flags.
//
// Usage:
//
//	go run ./cmd/genmock --out data/mock/counties.json --days 14 --start 2020-03-15
package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/county-graph-etl/internal/adapter/jsonfile"
	"github.com/couchcryptid/county-graph-etl/internal/domain"
	goflags "github.com/jessevdk/go-flags"
)

type options struct {
	Out   string `long:"out" required:"yes" description:"Output path for the generated export"`
	Days  int    `long:"days" default:"7" description:"Number of consecutive days to generate"`
	Start string `long:"start" default:"2020-03-15" description:"First day (YYYY-MM-DD, UTC)"`
	Seed  uint64 `long:"seed" default:"2020" description:"Random seed"`
}

// counties mixes states with one name shared across them ("Washington").
var counties = []domain.CountyKey{
	{State: "California", County: "Los Angeles"},
	{State: "California", County: "San Diego"},
	{State: "California", County: "Alameda"},
	{State: "New York", County: "Kings"},
	{State: "New York", County: "Queens"},
	{State: "New York", County: "Washington"},
	{State: "Oregon", County: "Multnomah"},
	{State: "Oregon", County: "Washington"},
	{State: "Texas", County: "Harris"},
	{State: "Texas", County: "Travis"},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var flagsErr *goflags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == goflags.ErrHelp {
			return
		}
		log.Fatal(err)
	}
}

func run(args []string) error {
	var opts options
	if _, err := goflags.ParseArgs(&opts, args); err != nil {
		return err
	}
	if opts.Days <= 0 {
		return fmt.Errorf("--days must be positive, got %d", opts.Days)
	}
	start, err := time.Parse(time.DateOnly, opts.Start)
	if err != nil {
		return fmt.Errorf("parse --start: %w", err)
	}

	records := generate(start, opts.Days, opts.Seed)
	log.Printf("Generated %d records for %d counties over %d days", len(records), len(counties), opts.Days)

	agg := domain.Fold(records)
	for _, date := range agg.Dates() {
		var confirmed, deaths int64
		for _, c := range agg[date] {
			confirmed += c.Confirmed
			deaths += c.Deaths
		}
		log.Printf("  %s: %d counties, confirmed=%d deaths=%d", domain.FormatDate(date), len(agg[date]), confirmed, deaths)
	}

	data, err := jsonfile.Encode(records)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Out), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(opts.Out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.Out, err)
	}
	log.Printf("Wrote %s", opts.Out)
	return nil
}

// generate emits, per county and day, one or two confirmed rows, a deaths row
// and every few days a row of an unrecognized kind. Timestamps fall at
// random points within the day.
func generate(start time.Time, days int, seed uint64) []domain.RawObservation {
	rng := rand.New(rand.NewPCG(seed, uint64(days)))
	var out []domain.RawObservation

	for d := range days {
		day := start.AddDate(0, 0, d)
		for i, key := range counties {
			base := int64(20*(i+1) + 5*d)
			at := func() int64 {
				return day.Add(time.Duration(rng.Int64N(int64(24 * time.Hour)))).UnixMilli()
			}

			out = append(out, domain.RawObservation{TimestampMS: at(), State: key.State, County: key.County, Value: base + rng.Int64N(50), Kind: domain.KindConfirmed})
			if rng.IntN(3) == 0 {
				out = append(out, domain.RawObservation{TimestampMS: at(), State: key.State, County: key.County, Value: rng.Int64N(10), Kind: domain.KindConfirmed})
			}
			out = append(out, domain.RawObservation{TimestampMS: at(), State: key.State, County: key.County, Value: base / 20, Kind: domain.KindDeaths})
			if (d+i)%4 == 0 {
				out = append(out, domain.RawObservation{TimestampMS: at(), State: key.State, County: key.County, Value: rng.Int64N(30), Kind: domain.KindOther})
			}
		}
	}

	// Shuffle so the export is not grouped by county or day.
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
