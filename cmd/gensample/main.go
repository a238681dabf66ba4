// Command gensample generates a mock sightings CSV for fixtures and local
// demos. Output is deterministic for a given seed, and deliberately includes
// rows the pipeline must reject (unsupported countries, unparseable dates)
// so downstream counts exercise the rejection paths.
//
// Usage:
//
//	go run ./cmd/gensample -out data/ufo_full.csv -rows 5000 -seed 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"
)

var header = []string{
	"datetime", "city", "state", "country", "shape",
	"duration (seconds)", "comments", "date posted", "latitude", "longitude",
}

var (
	countries = []string{"us", "us", "us", "gb", "ca", "au", "fr", "de"} // us-weighted; last two get rejected
	shapes    = []string{"circle", "disk", "light", "fireball", "oval", "triangle", "formation", "cylinder", "unknown", "sphere"}
	cities    = []string{"phoenix", "leeds", "toronto", "perth", "roswell", "portland", ""}
)

func main() {
	out := flag.String("out", "", "output CSV path")
	rows := flag.Int("rows", 2000, "number of rows to generate")
	seed := flag.Int64("seed", 1, "RNG seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*out, *rows, *seed); err != nil {
		log.Fatal(err)
	}
}

func run(out string, rows int, seed int64) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < rows; i++ {
		if err := w.Write(makeRow(rng)); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Printf("wrote %d rows to %s", rows, out)
	return nil
}

func makeRow(rng *rand.Rand) []string {
	occurred := time.Date(1940+rng.Intn(76), time.Month(1+rng.Intn(12)), 1+rng.Intn(28),
		rng.Intn(24), rng.Intn(60), 0, 0, time.UTC)
	posted := occurred.AddDate(0, rng.Intn(12), rng.Intn(28))

	datetime := fmt.Sprintf("%d/%d/%d %02d:%02d",
		occurred.Month(), occurred.Day(), occurred.Year(), occurred.Hour(), occurred.Minute())
	if rng.Intn(50) == 0 {
		datetime = "sometime in " + strconv.Itoa(occurred.Year()) // unparseable on purpose
	}

	duration := strconv.Itoa(rng.Intn(7200))
	if rng.Intn(40) == 0 {
		duration = "a few minutes"
	}

	lat := fmt.Sprintf("%.4f", -60+rng.Float64()*120)
	lon := fmt.Sprintf("%.4f", -180+rng.Float64()*360)
	if rng.Intn(60) == 0 {
		lat, lon = "", ""
	}

	return []string{
		datetime,
		cities[rng.Intn(len(cities))],
		"zz",
		countries[rng.Intn(len(countries))],
		shapes[rng.Intn(len(shapes))],
		duration,
		"generated sample row",
		fmt.Sprintf("%d/%d/%d", posted.Month(), posted.Day(), posted.Year()),
		lat,
		lon,
	}
}
