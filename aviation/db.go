// aviation/db.go
// Copyright(c) 2023-2025 fms contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package aviation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avsim/fms/math"
	"github.com/avsim/fms/util"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
)

var (
	ErrNoMatchingFix     = errors.New("No matching fix in database")
	ErrNoMatchingAirport = errors.New("No matching airport in database")
)

// AmbiguousFixError is returned when an ident matches multiple fixes; the
// caller is expected to have the user pick one of the candidates, so this
// is a disambiguation request rather than a failure.
type AmbiguousFixError struct {
	Ident      string
	Candidates []Fix
}

func (e *AmbiguousFixError) Error() string {
	return fmt.Sprintf("%s: ambiguous fix ident (%d candidates)", e.Ident, len(e.Candidates))
}

type Fix struct {
	Key      FixKey
	Ident    string
	Type     string // "FIX", "VOR", "NDB", "APT"
	Location math.Point2LL
}

///////////////////////////////////////////////////////////////////////////
// Database

// Database is the navigation database: airports with their procedures,
// plus enroute fixes and navaids. It is loaded once from a zstd
// compressed JSON snapshot and read-only afterwards.
type Database struct {
	Airports map[string]Airport
	Fixes    map[FixKey]Fix

	byIdent map[string][]FixKey

	// Repeated ident lookups are common (every route edit re-resolves
	// the idents it touches), so cache them.
	lookupCache *lru.Cache[string, []Fix]
}

const lookupCacheSize = 512

// dbSnapshot is the on-disk form of the database.
type dbSnapshot struct {
	Airports map[string]Airport `json:"airports"`
	Fixes    []Fix              `json:"fixes"`
}

// LoadDatabase reads a compressed navdata snapshot. Validation problems
// are accumulated in e; the database is still returned if the snapshot
// was readable at all so that the caller can decide how much brokenness
// to tolerate.
func LoadDatabase(path string, e *util.ErrorLogger) (*Database, error) {
	defer e.CheckDepth(e.CurrentDepth())

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	b, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}

	var snap dbSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}

	return makeDatabase(snap, e), nil
}

// MakeDatabase builds a database directly from airport and fix records,
// bypassing the snapshot file. Hosts that keep navdata in their own
// format use this; so do tests.
func MakeDatabase(airports map[string]Airport, fixes []Fix, e *util.ErrorLogger) *Database {
	return makeDatabase(dbSnapshot{Airports: airports, Fixes: fixes}, e)
}

func makeDatabase(snap dbSnapshot, e *util.ErrorLogger) *Database {
	db := &Database{
		Airports: snap.Airports,
		Fixes:    make(map[FixKey]Fix),
		byIdent:  make(map[string][]FixKey),
	}
	db.lookupCache, _ = lru.New[string, []Fix](lookupCacheSize)

	e.Push("fixes")
	for _, fix := range snap.Fixes {
		if fix.Key == "" {
			e.ErrorString("%s: fix has no database key", fix.Ident)
			continue
		}
		if _, ok := db.Fixes[fix.Key]; ok {
			e.ErrorString("%s: duplicate fix key %q", fix.Ident, fix.Key)
			continue
		}
		if fix.Location.IsZero() {
			e.ErrorString("%s: fix has no location", fix.Ident)
		}
		db.Fixes[fix.Key] = fix
		db.byIdent[fix.Ident] = append(db.byIdent[fix.Ident], fix.Key)
	}
	e.Pop()

	e.Push("airports")
	for icao, ap := range snap.Airports {
		if ap.ICAO != icao {
			e.ErrorString("%s: airport key does not match ICAO %q", icao, ap.ICAO)
		}
		for _, proc := range ap.Departures {
			if len(proc.CommonLegs) == 0 && len(proc.RunwayTransitions) == 0 {
				e.ErrorString("%s: departure %s has no legs", icao, proc.Name)
			}
		}
		for _, appr := range ap.Approaches {
			if len(appr.Legs) == 0 {
				e.ErrorString("%s: approach %s has no final legs", icao, appr.Name)
			}
		}
	}
	e.Pop()

	return db
}

// Locate resolves a fix ident to a single fix. Zero matches gives
// ErrNoMatchingFix; multiple matches give an AmbiguousFixError carrying
// the candidates for caller-mediated selection.
func (db *Database) Locate(ident string) (Fix, error) {
	fixes := db.lookupAll(ident)
	switch len(fixes) {
	case 0:
		return Fix{}, ErrNoMatchingFix
	case 1:
		return fixes[0], nil
	default:
		return Fix{}, &AmbiguousFixError{Ident: ident, Candidates: fixes}
	}
}

func (db *Database) lookupAll(ident string) []Fix {
	ident = strings.ToUpper(ident)
	if fixes, ok := db.lookupCache.Get(ident); ok {
		return fixes
	}

	fixes := util.MapSlice(db.byIdent[ident], func(k FixKey) Fix { return db.Fixes[k] })
	db.lookupCache.Add(ident, fixes)
	return fixes
}

// LookupKey returns the fix with the given database key, if any.
func (db *Database) LookupKey(key FixKey) (Fix, bool) {
	fix, ok := db.Fixes[key]
	return fix, ok
}

// Airport returns the given airport or ErrNoMatchingAirport.
func (db *Database) Airport(icao string) (*Airport, error) {
	if ap, ok := db.Airports[strings.ToUpper(icao)]; ok {
		return &ap, nil
	}
	return nil, ErrNoMatchingAirport
}
