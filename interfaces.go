package forzadash

import (
	"fmt"
)

type Car struct {
	Year  int    `json:"year"`
	Make  string `json:"make"`
	Model string `json:"model"`
}

func (c Car) String() string {
	return fmt.Sprintf("%d %s %s", c.Year, c.Make, c.Model)
}

// CarInfo resolves the integer codes sent by the game into display labels.
type CarInfo interface {
	LookupCar(ordinal int32) (Car, error)
	ClassLabel(code int32) (string, error)
	DrivetrainLabel(code int32) (string, error)
}

// StateSource is implemented by LiveState.
type StateSource interface {
	Snapshot() (State, bool)
}
