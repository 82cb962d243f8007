package store

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sbinet/npyio"
	"gopkg.in/yaml.v3"

	"tictactoe/game"
	"tictactoe/meta"
)

var (
	// ErrNotTrained is returned when a learned table is required but no snapshot exists.
	ErrNotTrained = errors.New("table not trained")
	// ErrFingerprint is returned when a snapshot was keyed on different canonical tables.
	ErrFingerprint = errors.New("snapshot built with different canonical tables")
)

// Meta describes a persisted value table.
type Meta struct {
	Name        string    `yaml:"name"`
	Fingerprint uint64    `yaml:"fingerprint"`
	Entries     int       `yaml:"entries"`
	SavedAt     time.Time `yaml:"saved_at"`
}

func valuesPath(dir, name string) string {
	return filepath.Join(dir, name+"_data_values.npy")
}

func metaPath(dir, name string) string {
	return filepath.Join(dir, name+"_data_meta.yaml")
}

// SaveValues writes t as a flat float64 array, unset slots holding meta.UNSET_VALUE,
// alongside a YAML description tying it to the canonical tables.
func SaveValues(dir, name string, tables *game.Tables, t *Table[float64]) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	flat := make([]float64, t.Cap())
	for id := range flat {
		v, ok := t.GetAt(id)
		if !ok {
			v = meta.UNSET_VALUE
		}
		flat[id] = v
	}

	f, err := os.Create(valuesPath(dir, name))
	if err != nil {
		return errors.Wrapf(err, "failed to create %s values", name)
	}
	defer f.Close()

	err = npyio.Write(f, flat)
	if err != nil {
		return errors.Wrapf(err, "failed to write %s values", name)
	}

	m := Meta{
		Name:        name,
		Fingerprint: tables.Fingerprint(),
		Entries:     t.Len(),
		SavedAt:     time.Now().UTC(),
	}
	out, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s meta", name)
	}
	err = os.WriteFile(metaPath(dir, name), out, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to write %s meta", name)
	}

	log.Debug().Msgf("stored %s values with %d entries", name, t.Len())
	return nil
}

// LoadValues reads a table written by SaveValues. A missing snapshot returns false
// with no error.
func LoadValues(dir, name string, tables *game.Tables) (*Table[float64], bool, error) {
	f, err := os.Open(valuesPath(dir, name))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to open %s values", name)
	}
	defer f.Close()

	var flat []float64
	err = npyio.Read(f, &flat)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read %s values", name)
	}
	if len(flat) != tables.Size() {
		return nil, false, errors.Wrapf(ErrFingerprint, "%s holds %d slots, want %d", name, len(flat), tables.Size())
	}

	raw, err := os.ReadFile(metaPath(dir, name))
	if err == nil {
		var m Meta
		err = yaml.Unmarshal(raw, &m)
		if err != nil {
			return nil, false, errors.Wrapf(err, "failed to decode %s meta", name)
		}
		if m.Fingerprint != tables.Fingerprint() {
			return nil, false, errors.Wrap(ErrFingerprint, name)
		}
	} else if !os.IsNotExist(err) {
		return nil, false, errors.Wrapf(err, "failed to read %s meta", name)
	}

	t := NewTable[float64](tables)
	for id, v := range flat {
		if v != meta.UNSET_VALUE {
			t.SetAt(id, v)
		}
	}
	log.Debug().Msgf("loaded %s values with %d entries", name, t.Len())
	return t, true, nil
}

// RequireValues loads a learned table, failing with ErrNotTrained when it is missing.
func RequireValues(dir, name string, tables *game.Tables) (*Table[float64], error) {
	t, ok, err := LoadValues(dir, name, tables)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotTrained, "no %s values in %s", name, dir)
	}
	return t, nil
}
