package game

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/sbinet/npyio"

	"tictactoe/meta"
)

const tablePrefix = "hash_table_"

// LoadOrBuildTables loads the canonical tables from dir, rebuilding and saving them
// when any snapshot is missing.
func LoadOrBuildTables(dir string) (*Tables, error) {
	t, ok, err := LoadTables(dir)
	if err != nil {
		return nil, err
	}
	if ok {
		log.Info().Msgf("loaded canonical tables from %s", dir)
		return t, nil
	}

	log.Info().Msg("canonical tables not found, rebuilding...")
	t = NewTables()
	err = SaveTables(dir, t)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("stored canonical tables with %d classes in %s", t.Size(), dir)
	return t, nil
}

// SaveTables writes hash_values, win_values and hash_keys as numpy arrays.
func SaveTables(dir string, t *Tables) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	keys := make([]uint16, 0, 3*Cells)
	for player := range t.hashKeys {
		keys = append(keys, t.hashKeys[player][:]...)
	}
	arrays := map[string][]uint16{
		"hash_values": t.hashValues,
		"win_values":  t.winValues,
		"hash_keys":   keys,
	}
	for name, values := range arrays {
		err = writeArray(filepath.Join(dir, tablePrefix+name+".npy"), values)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadTables reads tables written by SaveTables. It returns false when any file is missing.
func LoadTables(dir string) (*Tables, bool, error) {
	t := &Tables{}
	var keys []uint16
	targets := map[string]*[]uint16{
		"hash_values": &t.hashValues,
		"win_values":  &t.winValues,
		"hash_keys":   &keys,
	}
	for name, target := range targets {
		ok, err := readArray(filepath.Join(dir, tablePrefix+name+".npy"), target)
		if err != nil || !ok {
			return nil, false, err
		}
	}

	if len(t.hashValues) != meta.RAW_HASHES || len(t.winValues) != meta.CANONICAL_STATES || len(keys) != 3*Cells {
		return nil, false, fmt.Errorf("corrupt canonical tables in %s", dir)
	}
	for player := range t.hashKeys {
		copy(t.hashKeys[player][:], keys[player*Cells:(player+1)*Cells])
	}
	for _, id := range t.hashValues {
		if id != meta.UNSEEN_HASH && int(id) >= t.size {
			t.size = int(id) + 1
		}
	}
	return t, true, nil
}

func writeArray(path string, values []uint16) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	err = npyio.Write(f, values)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readArray(path string, target *[]uint16) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	err = npyio.Read(f, target)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return true, nil
}
