package mock

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/appsheetkit/appsheet_sdk_go/pkg/appsheet"
)

// SeedFile describes the initial content of a Store:
//
//	tables:
//	  - name: Tasks
//	    keys: [ID]
//	    rows:
//	      - {ID: "1", Title: Write docs, Status: Open}
type SeedFile struct {
	Tables []SeedTable `yaml:"tables" json:"tables"`
}

// SeedTable is one table of a seed file. Row values of any scalar type are
// stored as text.
type SeedTable struct {
	Name string           `yaml:"name" json:"name"`
	Keys []string         `yaml:"keys" json:"keys"`
	Rows []map[string]any `yaml:"rows" json:"rows"`
}

// ParseSeed decodes a YAML (or JSON) seed document.
func ParseSeed(data []byte) (SeedFile, error) {
	var sf SeedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return SeedFile{}, fmt.Errorf("mock appsheet: parse seed: %w", err)
	}
	return sf, nil
}

// LoadSeed reads a seed file from disk and applies it to the store.
func (s *Store) LoadSeed(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("mock appsheet: read seed: %w", err)
	}
	sf, err := ParseSeed(data)
	if err != nil {
		return err
	}
	return s.Seed(sf)
}

// Seed defines every table of sf and appends its rows. Rows go through the
// same checks as an Add action.
func (s *Store) Seed(sf SeedFile) error {
	for _, st := range sf.Tables {
		if err := s.DefineTable(st.Name, st.Keys...); err != nil {
			return err
		}
		if len(st.Rows) == 0 {
			continue
		}
		rows := make([]appsheet.Row, len(st.Rows))
		for i, in := range st.Rows {
			row := make(appsheet.Row, len(in))
			for col, v := range in {
				row[col] = appsheet.Text(v)
			}
			rows[i] = row
		}
		s.mu.Lock()
		_, err := s.tables[st.Name].add(rows, s.newID)
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("mock appsheet: seed table %q: %s", st.Name, seedDetail(err))
		}
	}
	return nil
}

func seedDetail(err error) string {
	var herr *appsheet.HTTPError
	if errors.As(err, &herr) {
		if msg := herr.Message(); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(err.Error())
}
