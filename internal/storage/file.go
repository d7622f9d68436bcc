package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/org/vitalguard/pkg/models"
	"github.com/rs/zerolog/log"
)

// FileBackend is a VitalsStore backed by a single JSON file. The whole file
// is read at open time and rewritten on every mutation.
type FileBackend struct {
	mu       sync.RWMutex
	path     string
	patients map[string]*models.Patient
	loadErr  error
}

// NewFileBackend loads path. A missing or unreadable file is not fatal: the
// backend starts empty and LoadError reports why.
func NewFileBackend(path string) *FileBackend {
	fb := &FileBackend{path: path, patients: map[string]*models.Patient{}}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn().Str("file", path).Msg("vitals file not found, starting with no patients")
		} else {
			log.Warn().Err(err).Str("file", path).Msg("cannot open vitals file, starting with no patients")
		}
		fb.loadErr = err
		return fb
	}
	defer f.Close()

	patients, err := DecodeVitals(f)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("vitals file is malformed, starting with no patients")
		fb.loadErr = err
		return fb
	}
	fb.patients = patients
	log.Info().Str("file", path).Int("patients", len(patients)).Msg("vitals loaded")
	return fb
}

// LoadError returns the error encountered while loading, if any.
func (fb *FileBackend) LoadError() error {
	return fb.loadErr
}

// DecodeVitals parses a vitals document: a JSON object mapping patient id to
// either an array of snapshots or a {name, vitals, history} object. A
// patient with an empty snapshot list is skipped with a warning so the rest
// of the dataset still loads; any other bad entry rejects the document.
func DecodeVitals(r io.Reader) (map[string]*models.Patient, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make(map[string]*models.Patient, len(raw))
	for id, doc := range raw {
		if bytes.Equal(bytes.TrimSpace(doc), []byte("null")) {
			return nil, fmt.Errorf("%w: patient %q is null", ErrMalformed, id)
		}
		var p models.Patient
		if err := json.Unmarshal(doc, &p); err != nil {
			if errors.Is(err, models.ErrNoReadings) {
				log.Warn().Str("patient", id).Msg("patient has no vitals readings, skipping")
				continue
			}
			return nil, fmt.Errorf("%w: patient %q: %v", ErrMalformed, id, err)
		}
		p.ID = id
		if p.Vitals.PatientID == "" {
			p.Vitals.PatientID = id
		}
		out[id] = &p
	}
	return out, nil
}

// EncodeVitals writes patients in the nested form, indented.
func EncodeVitals(w io.Writer, patients map[string]*models.Patient) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(patients)
}

func (fb *FileBackend) ListPatientIDs(ctx context.Context) ([]string, error) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	ids := make([]string, 0, len(fb.patients))
	for id := range fb.patients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (fb *FileBackend) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	p, ok := fb.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (fb *FileBackend) SavePatient(ctx context.Context, p *models.Patient) error {
	if p.ID == "" {
		return errors.New("patient id is required")
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()

	prev, existed := fb.patients[p.ID]
	fb.patients[p.ID] = p.Clone()
	if err := fb.flush(); err != nil {
		if existed {
			fb.patients[p.ID] = prev
		} else {
			delete(fb.patients, p.ID)
		}
		return fmt.Errorf("writing vitals file: %w", err)
	}
	return nil
}

// flush rewrites the whole file. Callers hold mu.
func (fb *FileBackend) flush() error {
	var buf bytes.Buffer
	if err := EncodeVitals(&buf, fb.patients); err != nil {
		return err
	}
	if dir := filepath.Dir(fb.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(fb.path, buf.Bytes(), 0o644)
}

func (fb *FileBackend) Close() {}
