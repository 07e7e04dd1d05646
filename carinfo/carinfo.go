package carinfo

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/jd3nn1s/forzadash"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrCarNotFound = errors.New("car not found")
	ErrInvalidCode = errors.New("invalid code")
)

var (
	classLabels      = []string{"E", "D", "C", "B", "A", "S", "R", "P", "X"}
	drivetrainLabels = []string{"FWD", "RWD", "AWD"}
)

// Table maps car ordinals to year, make and model. It is safe for concurrent
// use.
type Table struct {
	mu   sync.RWMutex
	cars map[int32]forzadash.Car
}

func New() *Table {
	return &Table{
		cars: make(map[int32]forzadash.Car),
	}
}

// Load reads and merges car list files in order, later files override earlier
// entries with the same ordinal.
func Load(fileNames ...string) (*Table, error) {
	t := New()
	for _, fileName := range fileNames {
		if err := t.mergeFile(fileName); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) mergeFile(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return errors.Wrapf(err, "unable to open car list %s", fileName)
	}
	defer file.Close()
	n, err := t.Merge(file)
	if err != nil {
		return errors.Wrapf(err, "unable to load car list %s", fileName)
	}
	log.WithField("file", fileName).WithField("cars", n).Info("loaded car list")
	return nil
}

// Merge reads a JSON object keyed by ordinal, e.g.
// {"2352": {"year": 2018, "make": "Porsche", "model": "911 GT2 RS"}}
// and returns the number of entries read.
func (t *Table) Merge(r io.Reader) (int, error) {
	list := map[string]forzadash.Car{}
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return 0, errors.Wrap(err, "unable to decode car list")
	}

	cars := make(map[int32]forzadash.Car, len(list))
	for key, car := range list {
		ordinal, err := strconv.ParseInt(key, 10, 32)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid car ordinal %q", key)
		}
		cars[int32(ordinal)] = car
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for ordinal, car := range cars {
		t.cars[ordinal] = car
	}
	return len(cars), nil
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.cars)
}

// Cars returns a copy of the table.
func (t *Table) Cars() map[int32]forzadash.Car {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cars := make(map[int32]forzadash.Car, len(t.cars))
	for ordinal, car := range t.cars {
		cars[ordinal] = car
	}
	return cars
}

func (t *Table) LookupCar(ordinal int32) (forzadash.Car, error) {
	t.mu.RLock()
	car, ok := t.cars[ordinal]
	t.mu.RUnlock()
	if !ok {
		return forzadash.Car{}, errors.Wrapf(ErrCarNotFound, "car ordinal %d is not in the car list", ordinal)
	}
	return car, nil
}

func (t *Table) ClassLabel(code int32) (string, error) {
	return label(classLabels, code, "class")
}

func (t *Table) DrivetrainLabel(code int32) (string, error) {
	return label(drivetrainLabels, code, "drivetrain")
}

func label(labels []string, code int32, kind string) (string, error) {
	if code < 0 || int(code) >= len(labels) {
		return "", errors.Wrapf(ErrInvalidCode, "%s code %d", kind, code)
	}
	return labels[code], nil
}
